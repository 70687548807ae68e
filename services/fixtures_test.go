package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/round-submissions/db/dbtest"
	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/repositories"
	"github.com/Dosada05/round-submissions/storage"
)

func intPtr(v int) *int { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type published struct {
	channel string
	payload any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (n *fakeNotifier) Publish(_ context.Context, channel string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, published{channel: channel, payload: payload})
	return n.err
}

func (n *fakeNotifier) messages() []published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]published(nil), n.sent...)
}

type failingBlobStore struct {
	storage.BlobStore
	writeErr error
	statErr  error
}

func (s failingBlobStore) Write(ctx context.Context, name, contentType string, r io.Reader) (int64, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	return s.BlobStore.Write(ctx, name, contentType, r)
}

func (s failingBlobStore) Stat(ctx context.Context, name string) (int64, error) {
	if s.statErr != nil {
		return 0, s.statErr
	}
	return s.BlobStore.Stat(ctx, name)
}

// failingCreateRepo makes the metadata transaction fail after the blob is written.
type failingCreateRepo struct {
	repositories.FileRepository
}

var errInsertFailed = errors.New("insert failed")

func (failingCreateRepo) Create(context.Context, repositories.SQLExecutor, *models.File) error {
	return errInsertFailed
}

// env is an event with a past and a current round, its users and every service
// wired to a SQLite database and a local blob directory.
type env struct {
	db          *sql.DB
	blobDir     string
	blobs       storage.BlobStore
	notifier    *fakeNotifier
	files       repositories.FileRepository
	events      repositories.EventRepository
	rounds      repositories.RoundRepository
	submissions repositories.RoundSubmissionRepository
	users       repositories.UserRepository

	host, participant, fillIn, stranger int
	eventID, currentRound, pastRound    int
}

func newEnv(t *testing.T, ev models.Event) *env {
	t.Helper()

	db := dbtest.Open(t)
	dir := t.TempDir()
	blobs, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	e := &env{
		db:          db,
		blobDir:     dir,
		blobs:       blobs,
		notifier:    &fakeNotifier{},
		files:       repositories.NewFileRepository(db, repositories.SQLiteDialect),
		events:      repositories.NewEventRepository(db, repositories.SQLiteDialect),
		rounds:      repositories.NewRoundRepository(db, repositories.SQLiteDialect),
		submissions: repositories.NewRoundSubmissionRepository(db, repositories.SQLiteDialect),
		users:       repositories.NewUserRepository(db, repositories.SQLiteDialect),
	}
	e.host = dbtest.InsertUser(t, db, "host")
	e.participant = dbtest.InsertUser(t, db, "participant")
	e.fillIn = dbtest.InsertUser(t, db, "fillin")
	e.stranger = dbtest.InsertUser(t, db, "stranger")

	ev.HostUserID = e.host
	if ev.Name == "" {
		ev.Name = "Song Swap"
	}
	e.eventID = dbtest.InsertEvent(t, db, ev)
	e.pastRound = dbtest.InsertRound(t, db, e.eventID, 0)
	e.currentRound = dbtest.InsertRound(t, db, e.eventID, 1)
	dbtest.SetCurrentRound(t, db, e.eventID, e.currentRound)
	return e
}

func (e *env) ingestion() IngestionService {
	return e.ingestionWith(e.files, e.blobs)
}

func (e *env) ingestionWith(files repositories.FileRepository, blobs storage.BlobStore) IngestionService {
	return NewIngestionService(e.db, files, e.events, e.rounds, e.submissions, e.users, blobs, e.notifier, discardLogger())
}

func (e *env) submission(t *testing.T, s models.RoundSubmission) int {
	t.Helper()
	s.EventID = e.eventID
	if s.RoundID == 0 {
		s.RoundID = e.currentRound
	}
	if s.ParticipantID == 0 {
		s.ParticipantID = e.participant
	}
	return dbtest.InsertSubmission(t, e.db, s)
}

func (e *env) blobNames(t *testing.T) []string {
	t.Helper()
	infos, err := e.blobs.List(context.Background())
	if err != nil {
		t.Fatalf("list blobs: %v", err)
	}
	names := make([]string, 0, len(infos))
	for _, b := range infos {
		names = append(names, b.Name)
	}
	return names
}
