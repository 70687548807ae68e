package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/repositories"
	"github.com/Dosada05/round-submissions/storage"
)

// FileService answers read requests for stored files.
type FileService interface {
	// CanAccessFile returns the file when requesterID (nil for anonymous) may read it,
	// ErrAccessDenied when it exists but may not be read and ErrFileNotFound otherwise.
	CanAccessFile(ctx context.Context, fileID int, requesterID *int) (*models.File, error)
	OpenFile(ctx context.Context, fileID int, requesterID *int) (*models.File, io.ReadCloser, error)
}

type fileService struct {
	fileRepo repositories.FileRepository
	blobs    storage.BlobStore
	logger   *slog.Logger
}

func NewFileService(fileRepo repositories.FileRepository, blobs storage.BlobStore, logger *slog.Logger) FileService {
	return &fileService{fileRepo: fileRepo, blobs: blobs, logger: logger}
}

func (s *fileService) CanAccessFile(ctx context.Context, fileID int, requesterID *int) (*models.File, error) {
	if err := validateID(fileID); err != nil {
		return nil, err
	}

	access, err := s.fileRepo.GetWithAccess(ctx, fileID, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to evaluate file access: %w", err)
	}
	if !access.Allowed {
		return nil, ErrAccessDenied
	}
	return &access.File, nil
}

func (s *fileService) OpenFile(ctx context.Context, fileID int, requesterID *int) (*models.File, io.ReadCloser, error) {
	f, err := s.CanAccessFile(ctx, fileID, requesterID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, f.Filename)
	if err != nil {
		s.logger.ErrorContext(ctx, "file row has no readable blob",
			slog.Int("file_id", f.ID), slog.String("blob", f.Filename), slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return f, rc, nil
}
