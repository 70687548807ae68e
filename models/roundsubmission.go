package models

// RoundSubmissionStatus представляет статусы слота участника в раунде.
type RoundSubmissionStatus string

const (
	SubmissionStatusPlanned         RoundSubmissionStatus = "Planned"
	SubmissionStatusStarted         RoundSubmissionStatus = "Started"
	SubmissionStatusFillInRequested RoundSubmissionStatus = "FillInRequested"
	SubmissionStatusFillInAquired   RoundSubmissionStatus = "FillInAquired"
	SubmissionStatusSubmitted       RoundSubmissionStatus = "Submitted"
	SubmissionStatusCompleted       RoundSubmissionStatus = "Completed"
	SubmissionStatusSkipped         RoundSubmissionStatus = "Skipped"

	// SubmissionStatusRefuted is a legacy value still accepted by the submit guard.
	// Nothing in this service ever assigns it and Valid reports false for it.
	SubmissionStatusRefuted RoundSubmissionStatus = "Refuted"
)

func (s RoundSubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPlanned, SubmissionStatusStarted, SubmissionStatusFillInRequested,
		SubmissionStatusFillInAquired, SubmissionStatusSubmitted, SubmissionStatusCompleted,
		SubmissionStatusSkipped:
		return true
	}
	return false
}

func (s RoundSubmissionStatus) Terminal() bool {
	return s == SubmissionStatusCompleted || s == SubmissionStatusSkipped
}

type RoundSubmission struct {
	ID                  int                   `json:"id" db:"id"`
	EventID             int                   `json:"event_id" db:"event_id"`
	RoundID             int                   `json:"round_id" db:"round_id"`
	ParticipantID       int                   `json:"participant_id" db:"participant"`
	FillInParticipantID *int                  `json:"fill_in_participant_id,omitempty" db:"fill_in_participant"`
	Status              RoundSubmissionStatus `json:"status" db:"status"`
	SeededFileID        *int                  `json:"seeded_file_id,omitempty" db:"file_id_seeded"`
	SubmittedFileID     *int                  `json:"submitted_file_id,omitempty" db:"file_id_submitted"`
}

// RoleOf returns the acting role userID holds on the submission.
// A participant whose slot was handed to a fill-in no longer acts on it.
func (s RoundSubmission) RoleOf(userID int) SubmissionRole {
	if userID <= 0 {
		return RoleNone
	}
	if s.FillInParticipantID != nil {
		if *s.FillInParticipantID == userID {
			return RoleFillIn
		}
		return RoleNone
	}
	if s.ParticipantID == userID {
		return RoleParticipant
	}
	return RoleNone
}
