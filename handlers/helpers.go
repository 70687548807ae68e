package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/round-submissions/services"
)

type jsonResponse map[string]interface{}

const serverErrorMessage = "the server encountered a problem and could not process your request"

var errUploadTooLarge = errors.New("upload is too large")

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// writeResult sends the structured {code, message} body every endpoint answers with.
// The HTTP status always equals code.
func writeResult(w http.ResponseWriter, logger *slog.Logger, code int, message string, extra jsonResponse) {
	body := jsonResponse{"code": code, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	if err := writeJSON(w, code, body, nil); err != nil {
		logger.Error("failed to write response", slog.Any("error", err))
	}
}

// mapServiceErrorToResult converts any service error into a result code and
// a message safe to show to the client.
func mapServiceErrorToResult(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidIdentifier),
		errors.Is(err, services.ErrInvalidChannel),
		errors.Is(err, services.ErrUploadRequired):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, services.ErrAuthenticationRequired),
		errors.Is(err, services.ErrAuthenticationFailed),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, services.ErrAccessDenied):
		return http.StatusForbidden, services.ErrAccessDenied.Error()

	case errors.Is(err, services.ErrFileNotFound):
		return http.StatusNotFound, services.ErrFileNotFound.Error()
	case errors.Is(err, services.ErrSubmissionNotFound):
		return http.StatusNotFound, services.ErrSubmissionNotFound.Error()

	case errors.Is(err, services.ErrEventNotPlanned):
		return http.StatusConflict, "can't change initial file after event has been started"
	case errors.Is(err, services.ErrPreconditionFailed):
		return http.StatusConflict, services.ErrPreconditionFailed.Error()

	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()

	case errors.Is(err, services.ErrStorageFailure):
		return http.StatusInternalServerError, "failed to store file"
	case errors.Is(err, services.ErrTransactionFailure):
		return http.StatusInternalServerError, "failed to save file"

	default:
		return http.StatusInternalServerError, serverErrorMessage
	}
}

// errorResult writes err as a structured result and logs it when it is the
// server's fault.
func errorResult(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code, message := mapServiceErrorToResult(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	writeResult(w, logger, code, message, nil)
}

// getIDFromURL reads a positive integer path parameter. Anything else,
// including "+3" or "007", is rejected.
func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	id, err := strconv.Atoi(idStr)
	if err != nil || strconv.Itoa(id) != idStr {
		return 0, fmt.Errorf("%w: %s must be an integer", services.ErrInvalidIdentifier, paramName)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive and non-zero", services.ErrInvalidIdentifier, paramName)
	}
	return id, nil
}
