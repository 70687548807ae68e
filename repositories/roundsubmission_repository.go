package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Dosada05/round-submissions/models"
)

var (
	ErrRoundSubmissionNotFound = errors.New("round submission not found")
	// ErrSubmissionNotSubmittable covers a missing slot, a slot outside the current
	// round and an actor or status the submit transition does not allow.
	ErrSubmissionNotSubmittable = errors.New("round submission does not accept a file from this user")
)

var submissionColumns = []string{
	"rs.id", "rs.event_id", "rs.round_id", "rs.participant", "rs.fill_in_participant",
	"rs.status", "rs.file_id_seeded", "rs.file_id_submitted",
}

// VisibleSubmission is a submission together with the event it belongs to.
type VisibleSubmission struct {
	Submission models.RoundSubmission
	Event      models.Event
}

type RoundSubmissionRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.RoundSubmission, error)
	// FindSubmittable evaluates the submit guard for userID in one query.
	FindSubmittable(ctx context.Context, id, userID int) (*models.RoundSubmission, error)
	// ApplySubmit moves the slot to the status the transition table allows for role
	// and records fileID as its submitted file.
	ApplySubmit(ctx context.Context, exec SQLExecutor, sub *models.RoundSubmission, role models.SubmissionRole, fileID int) error
	GetVisible(ctx context.Context, id int, requesterID *int) (*VisibleSubmission, error)
}

type sqlRoundSubmissionRepository struct {
	baseRepository
}

func NewPostgresRoundSubmissionRepository(db *sql.DB) RoundSubmissionRepository {
	return NewRoundSubmissionRepository(db, PostgresDialect)
}

func NewRoundSubmissionRepository(db *sql.DB, d Dialect) RoundSubmissionRepository {
	return &sqlRoundSubmissionRepository{baseRepository: newBaseRepository(db, d)}
}

func scanSubmissionInto(s *models.RoundSubmission) []any {
	return []any{
		&s.ID, &s.EventID, &s.RoundID, &s.ParticipantID, &s.FillInParticipantID,
		&s.Status, &s.SeededFileID, &s.SubmittedFileID,
	}
}

func (r *sqlRoundSubmissionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.RoundSubmission, error) {
	q := r.sb.Select(submissionColumns...).From("roundsubmissions rs").Where(sq.Eq{"rs.id": id})
	row, err := queryRow(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, err
	}
	s := &models.RoundSubmission{}
	if err := row.Scan(scanSubmissionInto(s)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load round submission %d: %w", id, err)
	}
	return s, nil
}

func (r *sqlRoundSubmissionRepository) FindSubmittable(ctx context.Context, id, userID int) (*models.RoundSubmission, error) {
	q := r.sb.Select(submissionColumns...).
		From("roundsubmissions rs").
		Join("events e ON rs.event_id = e.id").
		Where(submitGuard(id, userID))
	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	s := &models.RoundSubmission{}
	if err := row.Scan(scanSubmissionInto(s)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotSubmittable
		}
		return nil, fmt.Errorf("failed to evaluate submit guard for submission %d: %w", id, err)
	}
	return s, nil
}

func (r *sqlRoundSubmissionRepository) ApplySubmit(ctx context.Context, exec SQLExecutor, sub *models.RoundSubmission, role models.SubmissionRole, fileID int) error {
	next, ok := models.NextStatus(models.ActionSubmitFile, sub.Status, role)
	if !ok {
		return ErrSubmissionNotSubmittable
	}

	// Expected-status precondition: if the slot left the eligible set since the
	// guard ran, nothing is updated and the caller rolls back.
	q := r.sb.Update("roundsubmissions").
		Set("file_id_submitted", fileID).
		Set("status", string(next)).
		Where(sq.And{
			sq.Eq{"id": sub.ID},
			sq.Eq{"status": statusStrings(models.EligibleStatuses(models.ActionSubmitFile, role))},
		})
	result, err := execQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return fmt.Errorf("failed to record submitted file for submission %d: %w", sub.ID, handlePQError(err))
	}
	if err := checkAffectedRows(result, ErrSubmissionNotSubmittable); err != nil {
		return err
	}

	sub.Status = next
	sub.SubmittedFileID = &fileID
	return nil
}

func (r *sqlRoundSubmissionRepository) GetVisible(ctx context.Context, id int, requesterID *int) (*VisibleSubmission, error) {
	q := r.sb.Select(append(append([]string{}, submissionColumns...), eventColumns...)...).
		From("roundsubmissions rs").
		Join("events e ON rs.event_id = e.id").
		Where(sq.And{
			sq.Eq{"rs.id": id},
			submissionVisibility(requesterID),
		})
	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return nil, err
	}

	var v VisibleSubmission
	dest := scanSubmissionInto(&v.Submission)
	dest = append(dest,
		&v.Event.ID, &v.Event.Name, &v.Event.Status, &v.Event.IsPublic, &v.Event.AreChangesVisible,
		&v.Event.HostUserID, &v.Event.CurrentRoundID, &v.Event.InitialFileID,
	)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load round submission %d: %w", id, err)
	}
	return &v, nil
}
