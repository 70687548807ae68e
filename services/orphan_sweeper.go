package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/round-submissions/repositories"
	"github.com/Dosada05/round-submissions/storage"
)

const sweepBatchSize = 500

// OrphanSweeper deletes blobs no file row refers to. Blobs younger than the
// grace period are kept since their ingestion may still be about to commit.
type OrphanSweeper struct {
	fileRepo repositories.FileRepository
	blobs    storage.BlobStore
	grace    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewOrphanSweeper(fileRepo repositories.FileRepository, blobs storage.BlobStore, grace time.Duration, logger *slog.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		fileRepo: fileRepo,
		blobs:    blobs,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep returns how many blobs it removed.
func (s *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list blobs: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	var candidates []string
	for _, b := range blobs {
		if b.ModTime.After(cutoff) {
			continue
		}
		candidates = append(candidates, b.Name)
	}

	removed := 0
	for start := 0; start < len(candidates); start += sweepBatchSize {
		end := min(start+sweepBatchSize, len(candidates))
		batch := candidates[start:end]

		known, err := s.fileRepo.ExistingFilenames(ctx, batch)
		if err != nil {
			return removed, fmt.Errorf("failed to look up file rows: %w", err)
		}
		for _, name := range batch {
			if known[name] {
				continue
			}
			if err := s.blobs.Delete(ctx, name); err != nil {
				s.logger.WarnContext(ctx, "failed to delete orphaned blob", slog.String("blob", name), slog.Any("error", err))
				continue
			}
			s.logger.InfoContext(ctx, "orphaned blob deleted", slog.String("blob", name), slog.Bool("temp", storage.IsTemp(name)))
			removed++
		}
	}
	return removed, nil
}
