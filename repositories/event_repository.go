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
	ErrEventNotFound   = errors.New("event not found")
	ErrEventNotPlanned = errors.New("event is not in planned status")
)

var eventColumns = []string{
	"e.id", "e.name", "e.status", "e.is_public", "e.are_changes_visible",
	"e.host_user_id", "e.current_round", "e.initial_file",
}

type EventRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	// GetHosted returns the event only when hostID hosts it.
	GetHosted(ctx context.Context, id, hostID int) (*models.Event, error)
	SetInitialFile(ctx context.Context, exec SQLExecutor, eventID, hostID, fileID int) error
	// IsVisible reports whether requesterID (nil for anonymous) may see the event.
	// A missing event is not visible.
	IsVisible(ctx context.Context, id int, requesterID *int) (bool, error)
}

type sqlEventRepository struct {
	baseRepository
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return NewEventRepository(db, PostgresDialect)
}

func NewEventRepository(db *sql.DB, d Dialect) EventRepository {
	return &sqlEventRepository{baseRepository: newBaseRepository(db, d)}
}

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID, &e.Name, &e.Status, &e.IsPublic, &e.AreChangesVisible,
		&e.HostUserID, &e.CurrentRoundID, &e.InitialFileID,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *sqlEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	return r.getOne(ctx, exec, sq.Eq{"e.id": id})
}

func (r *sqlEventRepository) GetHosted(ctx context.Context, id, hostID int) (*models.Event, error) {
	return r.getOne(ctx, nil, sq.And{sq.Eq{"e.id": id}, hostedBy("e", hostID)})
}

func (r *sqlEventRepository) getOne(ctx context.Context, exec SQLExecutor, where sq.Sqlizer) (*models.Event, error) {
	q := r.sb.Select(eventColumns...).From("events e").Where(where)
	row, err := queryRow(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return e, nil
}

// SetInitialFile points the event at fileID. The host and planned-status
// conditions are repeated here so a concurrent status change aborts the update.
func (r *sqlEventRepository) SetInitialFile(ctx context.Context, exec SQLExecutor, eventID, hostID, fileID int) error {
	q := r.sb.Update("events").
		Set("initial_file", fileID).
		Where(sq.Eq{
			"id":           eventID,
			"host_user_id": hostID,
			"status":       string(models.EventStatusPlanned),
		})
	result, err := execQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return fmt.Errorf("failed to update initial file of event %d: %w", eventID, handlePQError(err))
	}
	return checkAffectedRows(result, ErrEventNotPlanned)
}

func (r *sqlEventRepository) IsVisible(ctx context.Context, id int, requesterID *int) (bool, error) {
	q := r.sb.Select("1").
		From("events e").
		Where(sq.And{sq.Eq{"e.id": id}, eventVisibility(requesterID)})
	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return false, err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check visibility of event %d: %w", id, err)
	}
	return true, nil
}
