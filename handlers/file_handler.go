package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/Dosada05/round-submissions/middleware"
	"github.com/Dosada05/round-submissions/services"
)

const multipartMemory = 8 << 20

type FileHandler struct {
	fileService      services.FileService
	ingestionService services.IngestionService
	maxUploadBytes   int64
	logger           *slog.Logger
}

func NewFileHandler(fileService services.FileService, ingestionService services.IngestionService, maxUploadBytes int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService:      fileService,
		ingestionService: ingestionService,
		maxUploadBytes:   maxUploadBytes,
		logger:           logger,
	}
}

// Download streams a file the requester may read. An unresolvable credential
// is treated as no credential.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	fileID, err := getIDFromURL(r, "id")
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}

	requester := middleware.IdentityFromContext(r.Context()).Requester()
	f, rc, err := h.fileService.OpenFile(r.Context(), fileID, requester)
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	name := services.DownloadName(f.ID, f.Filename)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.FormatInt(f.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "file download interrupted", slog.Int("file_id", f.ID), slog.Any("error", err))
	}
}

func (h *FileHandler) UploadSubmissionFile(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.ingestionService.UploadSubmissionFile)
}

func (h *FileHandler) UploadEventInitialFile(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.ingestionService.UploadEventInitialFile)
}

type ingestFunc func(ctx context.Context, id, userID int, up services.Upload) (int, error)

func (h *FileHandler) upload(w http.ResponseWriter, r *http.Request, ingest ingestFunc) {
	// A malformed id is rejected before the credential is looked at.
	id, err := getIDFromURL(r, "id")
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}
	userID, err := middleware.RequireUser(r.Context())
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}

	file, header, err := h.singleFile(w, r)
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}
	defer file.Close()

	fileID, err := ingest(r.Context(), id, userID, services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}
	writeResult(w, h.logger, http.StatusOK, "File uploaded!", jsonResponse{"file_id": fileID})
}

// singleFile parses the multipart body and requires exactly one file in it,
// whatever its field name.
func (h *FileHandler) singleFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", errUploadTooLarge, h.maxUploadBytes)
		}
		return nil, nil, fmt.Errorf("%w: %v", services.ErrUploadRequired, err)
	}

	var headers []*multipart.FileHeader
	for _, fhs := range r.MultipartForm.File {
		headers = append(headers, fhs...)
	}
	if len(headers) != 1 {
		return nil, nil, services.ErrUploadRequired
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", services.ErrUploadRequired, err)
	}
	return file, headers[0], nil
}
