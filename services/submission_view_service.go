package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/repositories"
)

// SubmissionViewKind says in which capacity the requester sees a submission.
type SubmissionViewKind string

const (
	ViewAdministered SubmissionViewKind = "administered"
	ViewParticipated SubmissionViewKind = "participated"
	ViewObserved     SubmissionViewKind = "observed"
)

type SubmissionView struct {
	Kind       SubmissionViewKind     `json:"kind"`
	Submission models.RoundSubmission `json:"submission"`
	// UploadURL is only set while the requester may submit a file right now.
	UploadURL string `json:"upload_url,omitempty"`
}

type SubmissionViewService interface {
	GetSubmission(ctx context.Context, submissionID int, requesterID *int) (*SubmissionView, error)
}

type submissionViewService struct {
	submissionRepo repositories.RoundSubmissionRepository
}

func NewSubmissionViewService(submissionRepo repositories.RoundSubmissionRepository) SubmissionViewService {
	return &submissionViewService{submissionRepo: submissionRepo}
}

func (s *submissionViewService) GetSubmission(ctx context.Context, submissionID int, requesterID *int) (*SubmissionView, error) {
	if err := validateID(submissionID); err != nil {
		return nil, err
	}

	v, err := s.submissionRepo.GetVisible(ctx, submissionID, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load round submission: %w", err)
	}

	view := &SubmissionView{Kind: ViewObserved, Submission: v.Submission}
	if requesterID == nil {
		return view, nil
	}
	uid := *requesterID
	sub := v.Submission

	switch {
	case v.Event.HostUserID == uid:
		view.Kind = ViewAdministered
	case sub.ParticipantID == uid || (sub.FillInParticipantID != nil && *sub.FillInParticipantID == uid):
		view.Kind = ViewParticipated
		if canSubmit(v.Event, sub, uid) {
			view.UploadURL = fmt.Sprintf("/roundsubmissions/%d/file", sub.ID)
		}
	}
	return view, nil
}

// canSubmit mirrors the submit guard on already loaded rows.
func canSubmit(event models.Event, sub models.RoundSubmission, userID int) bool {
	if event.CurrentRoundID == nil || *event.CurrentRoundID != sub.RoundID {
		return false
	}
	_, ok := models.NextStatus(models.ActionSubmitFile, sub.Status, sub.RoleOf(userID))
	return ok
}
