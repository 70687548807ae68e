package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var ErrInvalidReference = errors.New("referenced row does not exist")

// SQLExecutor is satisfied by *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Dialect carries what differs between the production postgres database and SQLite.
type Dialect struct {
	Placeholder sq.PlaceholderFormat
	// NextFileIDQuery returns a fresh, never reused file id without creating a files row.
	NextFileIDQuery string
}

var (
	PostgresDialect = Dialect{
		Placeholder:     sq.Dollar,
		NextFileIDQuery: `SELECT nextval('files_id_seq')`,
	}
	SQLiteDialect = Dialect{
		Placeholder:     sq.Question,
		NextFileIDQuery: `INSERT INTO file_ids DEFAULT VALUES RETURNING id`,
	}
)

func (d Dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

type baseRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func newBaseRepository(db *sql.DB, d Dialect) baseRepository {
	return baseRepository{db: db, sb: d.builder()}
}

func (r baseRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func queryRow(ctx context.Context, exec SQLExecutor, q sq.Sqlizer) (*sql.Row, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return exec.QueryRowContext(ctx, query, args...), nil
}

func execQuery(ctx context.Context, exec SQLExecutor, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return exec.ExecContext(ctx, query, args...)
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

func handlePQError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	}
	return err
}

func statusStrings[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
