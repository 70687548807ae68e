package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/round-submissions/middleware"
	"github.com/Dosada05/round-submissions/services"
)

type SubmissionHandler struct {
	viewService services.SubmissionViewService
	logger      *slog.Logger
}

func NewSubmissionHandler(viewService services.SubmissionViewService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{viewService: viewService, logger: logger}
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}

	requester := middleware.IdentityFromContext(r.Context()).Requester()
	view, err := h.viewService.GetSubmission(r.Context(), id, requester)
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}
	writeResult(w, h.logger, http.StatusOK, "OK", jsonResponse{"roundsubmission": view})
}
