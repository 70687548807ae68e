// Package dbtest opens throwaway SQLite databases carrying the service schema.
package dbtest

import (
	"context"
	"database/sql"
	_ "embed"
	"path/filepath"
	"testing"

	"github.com/Dosada05/round-submissions/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Open creates a fresh database under t.TempDir and closes it when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rounds.db")
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	// One connection keeps transactions and plain reads on the same SQLite handle.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close sqlite db: %v", err)
		}
	})

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func insert(t testing.TB, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var id int
	if err := db.QueryRowContext(context.Background(), query+" RETURNING id", args...).Scan(&id); err != nil {
		t.Fatalf("insert %q: %v", query, err)
	}
	return id
}

func InsertUser(t testing.TB, db *sql.DB, username string) int {
	t.Helper()
	return insert(t, db, `INSERT INTO users (username) VALUES (?)`, username)
}

func InsertUserWithPassword(t testing.TB, db *sql.DB, username, passwordHash string) int {
	t.Helper()
	return insert(t, db, `INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
}

// InsertEvent stores e without its round pointer or initial file; set those afterwards.
func InsertEvent(t testing.TB, db *sql.DB, e models.Event) int {
	t.Helper()
	if e.Status == "" {
		e.Status = models.EventStatusPlanned
	}
	return insert(t, db,
		`INSERT INTO events (name, status, is_public, are_changes_visible, host_user_id) VALUES (?, ?, ?, ?, ?)`,
		e.Name, string(e.Status), e.IsPublic, e.AreChangesVisible, e.HostUserID,
	)
}

func InsertRound(t testing.TB, db *sql.DB, eventID, index int) int {
	t.Helper()
	return insert(t, db, `INSERT INTO rounds (event_id, round_index) VALUES (?, ?)`, eventID, index)
}

func SetCurrentRound(t testing.TB, db *sql.DB, eventID, roundID int) {
	t.Helper()
	exec(t, db, `UPDATE events SET current_round = ? WHERE id = ?`, roundID, eventID)
}

func SetInitialFile(t testing.TB, db *sql.DB, eventID, fileID int) {
	t.Helper()
	exec(t, db, `UPDATE events SET initial_file = ? WHERE id = ?`, fileID, eventID)
}

func InsertSubmission(t testing.TB, db *sql.DB, s models.RoundSubmission) int {
	t.Helper()
	if s.Status == "" {
		s.Status = models.SubmissionStatusPlanned
	}
	return insert(t, db,
		`INSERT INTO roundsubmissions (event_id, round_id, participant, fill_in_participant, status, file_id_seeded, file_id_submitted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.EventID, s.RoundID, s.ParticipantID, s.FillInParticipantID, string(s.Status), s.SeededFileID, s.SubmittedFileID,
	)
}

// InsertFile allocates an id the same way the service does and stores the row.
func InsertFile(t testing.TB, db *sql.DB, filename string, size int64) int {
	t.Helper()
	id := insert(t, db, `INSERT INTO file_ids DEFAULT VALUES`)
	exec(t, db, `INSERT INTO files (id, filename, size_bytes) VALUES (?, ?, ?)`, id, filename, size)
	return id
}

func CountRows(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
