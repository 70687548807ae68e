package repositories

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/Dosada05/round-submissions/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	GetByID(ctx context.Context, id int) (*models.Round, error)
}

type sqlRoundRepository struct {
	baseRepository
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return NewRoundRepository(db, PostgresDialect)
}

func NewRoundRepository(db *sql.DB, d Dialect) RoundRepository {
	return &sqlRoundRepository{baseRepository: newBaseRepository(db, d)}
}

func (r *sqlRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	q := r.sb.Select("id", "event_id", "round_index").From("rounds").Where(sq.Eq{"id": id})
	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	round := &models.Round{}
	if err := row.Scan(&round.ID, &round.EventID, &round.Index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return round, nil
}
