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
	ErrFileNotFound = errors.New("file not found")
)

// FileAccess is the outcome of the single-query visibility check.
type FileAccess struct {
	File    models.File
	Allowed bool
}

type FileRepository interface {
	NextID(ctx context.Context) (int, error)
	Create(ctx context.Context, exec SQLExecutor, file *models.File) error
	GetByID(ctx context.Context, id int) (*models.File, error)
	GetWithAccess(ctx context.Context, id int, requesterID *int) (*FileAccess, error)
	ExistingFilenames(ctx context.Context, names []string) (map[string]bool, error)
}

type sqlFileRepository struct {
	baseRepository
	nextIDQuery string
}

func NewPostgresFileRepository(db *sql.DB) FileRepository {
	return NewFileRepository(db, PostgresDialect)
}

func NewFileRepository(db *sql.DB, d Dialect) FileRepository {
	return &sqlFileRepository{baseRepository: newBaseRepository(db, d), nextIDQuery: d.NextFileIDQuery}
}

func (r *sqlFileRepository) NextID(ctx context.Context) (int, error) {
	var id int
	if err := r.db.QueryRowContext(ctx, r.nextIDQuery).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate file id: %w", err)
	}
	return id, nil
}

func (r *sqlFileRepository) Create(ctx context.Context, exec SQLExecutor, f *models.File) error {
	q := r.sb.Insert("files").
		Columns("id", "filename", "size_bytes").
		Values(f.ID, f.Filename, f.SizeBytes)
	if _, err := execQuery(ctx, r.getExecutor(exec), q); err != nil {
		return fmt.Errorf("failed to insert file %d: %w", f.ID, handlePQError(err))
	}
	return nil
}

func (r *sqlFileRepository) GetByID(ctx context.Context, id int) (*models.File, error) {
	q := r.sb.Select("id", "filename", "size_bytes").From("files").Where(sq.Eq{"id": id})
	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return nil, err
	}

	f := &models.File{}
	if err := row.Scan(&f.ID, &f.Filename, &f.SizeBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

// GetWithAccess looks the file up and evaluates the visibility rule in the same
// statement. A file reachable through several relations yields several joined
// rows; the allowed one sorts first.
func (r *sqlFileRepository) GetWithAccess(ctx context.Context, id int, requesterID *int) (*FileAccess, error) {
	allowed := sq.Case().When(fileVisibility(requesterID), "1").Else("0")

	q := r.sb.Select("f.id", "f.filename", "f.size_bytes").
		Column(sq.Alias(allowed, "allowed")).
		From("files f").
		LeftJoin("events e ON f.id = e.initial_file").
		LeftJoin("roundsubmissions rsse ON f.id = rsse.file_id_seeded").
		LeftJoin("events es ON rsse.event_id = es.id").
		LeftJoin("roundsubmissions rssu ON f.id = rssu.file_id_submitted").
		LeftJoin("events esu ON rssu.event_id = esu.id").
		Where(sq.Eq{"f.id": id}).
		OrderBy("allowed DESC").
		Limit(1)

	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return nil, err
	}

	var (
		access  FileAccess
		allowFl int
	)
	if err := row.Scan(&access.File.ID, &access.File.Filename, &access.File.SizeBytes, &allowFl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to evaluate access for file %d: %w", id, err)
	}
	access.Allowed = allowFl == 1
	return &access, nil
}

func (r *sqlFileRepository) ExistingFilenames(ctx context.Context, names []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(names))
	if len(names) == 0 {
		return existing, nil
	}

	query, args, err := r.sb.Select("filename").From("files").Where(sq.Eq{"filename": names}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up filenames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return existing, nil
}
