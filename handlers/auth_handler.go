package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/services"
)

type AuthHandler struct {
	authService services.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		writeResult(w, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	token, user, err := h.authService.SignIn(r.Context(), input)
	if err != nil {
		errorResult(w, r, h.logger, err)
		return
	}

	writeResult(w, h.logger, http.StatusOK, "Signed in", jsonResponse{
		"token": token,
		"user":  user,
	})
}
