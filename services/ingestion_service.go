package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/repositories"
	"github.com/Dosada05/round-submissions/storage"
)

const defaultNotifyTimeout = 5 * time.Second

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// IngestionService stores uploaded files and attaches them to their owner.
type IngestionService interface {
	UploadSubmissionFile(ctx context.Context, submissionID, userID int, up Upload) (int, error)
	UploadEventInitialFile(ctx context.Context, eventID, userID int, up Upload) (int, error)
}

type ingestionService struct {
	db             *sql.DB
	fileRepo       repositories.FileRepository
	eventRepo      repositories.EventRepository
	roundRepo      repositories.RoundRepository
	submissionRepo repositories.RoundSubmissionRepository
	userRepo       repositories.UserRepository
	blobs          storage.BlobStore
	notifier       Notifier
	logger         *slog.Logger
	notifyTimeout  time.Duration
}

func NewIngestionService(
	db *sql.DB,
	fileRepo repositories.FileRepository,
	eventRepo repositories.EventRepository,
	roundRepo repositories.RoundRepository,
	submissionRepo repositories.RoundSubmissionRepository,
	userRepo repositories.UserRepository,
	blobs storage.BlobStore,
	notifier Notifier,
	logger *slog.Logger,
) IngestionService {
	return &ingestionService{
		db:             db,
		fileRepo:       fileRepo,
		eventRepo:      eventRepo,
		roundRepo:      roundRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		blobs:          blobs,
		notifier:       notifier,
		logger:         logger,
		notifyTimeout:  defaultNotifyTimeout,
	}
}

// applyFunc records fileID on the owning entity inside the metadata transaction.
type applyFunc func(ctx context.Context, tx *sql.Tx, fileID int) error

func (s *ingestionService) UploadSubmissionFile(ctx context.Context, submissionID, userID int, up Upload) (int, error) {
	if err := validateID(submissionID); err != nil {
		return 0, err
	}

	sub, err := s.submissionRepo.FindSubmittable(ctx, submissionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotSubmittable) {
			return 0, ErrAccessDenied
		}
		return 0, fmt.Errorf("failed to authorize submission upload: %w", err)
	}
	role := sub.RoleOf(userID)

	fileID, err := s.ingest(ctx, up, func(ctx context.Context, tx *sql.Tx, fileID int) error {
		err := s.submissionRepo.ApplySubmit(ctx, tx, sub, role, fileID)
		if errors.Is(err, repositories.ErrSubmissionNotSubmittable) {
			return ErrAccessDenied
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "submission file uploaded",
		slog.Int("submission_id", sub.ID), slog.Int("file_id", fileID), slog.Int("user_id", userID))
	s.announceSubmission(ctx, sub, userID)
	return fileID, nil
}

func (s *ingestionService) UploadEventInitialFile(ctx context.Context, eventID, userID int, up Upload) (int, error) {
	if err := validateID(eventID); err != nil {
		return 0, err
	}

	event, err := s.eventRepo.GetHosted(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return 0, ErrAccessDenied
		}
		return 0, fmt.Errorf("failed to authorize initial file upload: %w", err)
	}
	if event.Status != models.EventStatusPlanned {
		return 0, ErrEventNotPlanned
	}

	fileID, err := s.ingest(ctx, up, func(ctx context.Context, tx *sql.Tx, fileID int) error {
		err := s.eventRepo.SetInitialFile(ctx, tx, event.ID, userID, fileID)
		if errors.Is(err, repositories.ErrEventNotPlanned) {
			return ErrEventNotPlanned
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "event initial file uploaded",
		slog.Int("event_id", event.ID), slog.Int("file_id", fileID), slog.Int("user_id", userID))
	s.announceInitialFile(ctx, event, userID)
	return fileID, nil
}

// ingest allocates an id, writes the blob and only then commits the file row
// together with apply. A failed commit leaves the blob behind for the orphan sweeper.
func (s *ingestionService) ingest(ctx context.Context, up Upload, apply applyFunc) (int, error) {
	fileID, err := s.fileRepo.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	name := fmt.Sprintf("%d.%s", fileID, fileExtension(up.Filename, up.ContentType))

	if _, err := s.blobs.Write(ctx, name, up.ContentType, up.Body); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	size, err := s.blobs.Stat(ctx, name)
	if err != nil {
		s.logger.WarnContext(ctx, "blob written but not confirmed, leaving it orphaned",
			slog.String("blob", name), slog.Any("error", err))
		return 0, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.fileRepo.Create(ctx, tx, &models.File{ID: fileID, Filename: name, SizeBytes: size}); err != nil {
			return err
		}
		return apply(ctx, tx, fileID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "metadata transaction failed, blob orphaned",
			slog.String("blob", name), slog.Any("error", err))
		if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrPreconditionFailed) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
	return fileID, nil
}

// notifyContext outlives the request: the mutation is committed, so a client
// hanging up must not cancel the announcement.
func (s *ingestionService) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
}

func (s *ingestionService) announceSubmission(ctx context.Context, sub *models.RoundSubmission, userID int) {
	ctx, cancel := s.notifyContext(ctx)
	defer cancel()

	var (
		event *models.Event
		round *models.Round
		user  *models.User
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.eventRepo.GetByID(gCtx, nil, sub.EventID)
		return err
	})
	g.Go(func() error {
		var err error
		round, err = s.roundRepo.GetByID(gCtx, sub.RoundID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetByID(gCtx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "failed to load notification context",
			slog.Int("submission_id", sub.ID), slog.Any("error", err))
		return
	}

	s.publish(ctx, *event, *event, submittedMessage(user.Username, *round, event.Name))
}

// announceInitialFile sends the snapshot taken during authorization on the
// global channel and the reloaded event on the event channel.
func (s *ingestionService) announceInitialFile(ctx context.Context, snapshot *models.Event, userID int) {
	ctx, cancel := s.notifyContext(ctx)
	defer cancel()

	var (
		event *models.Event
		user  *models.User
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.eventRepo.GetByID(gCtx, nil, snapshot.ID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetByID(gCtx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "failed to load notification context",
			slog.Int("event_id", snapshot.ID), slog.Any("error", err))
		return
	}

	s.publish(ctx, *snapshot, *event, initialFileMessage(user.Username, event.Name))
}

func (s *ingestionService) publish(ctx context.Context, global, scoped models.Event, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, GlobalEventsChannel, EventsChangedPayload{EventsChanged: []models.Event{global}}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification",
			slog.String("channel", GlobalEventsChannel), slog.Any("error", err))
	}
	channel := EventChannel(scoped.ID)
	payload := EventChangedPayload{EventChanged: EventChange{Event: scoped, Message: message}}
	if err := s.notifier.Publish(ctx, channel, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification",
			slog.String("channel", channel), slog.Any("error", err))
	}
}
