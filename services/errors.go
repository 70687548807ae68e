package services

import (
	"errors"
	"fmt"
)

// Ошибки сервисного слоя. Каждая соответствует одному коду ответа на границе HTTP.
var (
	ErrInvalidIdentifier      = errors.New("invalid id")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrInvalidCredentials     = errors.New("invalid username or password")

	// Путь чтения отличает отсутствие файла от отказа в доступе.
	ErrFileNotFound       = errors.New("file not found")
	ErrSubmissionNotFound = errors.New("round submission not found")
	ErrAccessDenied       = errors.New("access denied")

	ErrPreconditionFailed = errors.New("precondition failed")
	ErrEventNotPlanned    = fmt.Errorf("%w: event is not planned", ErrPreconditionFailed)

	ErrInvalidChannel     = errors.New("unknown channel")
	ErrUploadRequired     = errors.New("you have to upload one file")
	ErrStorageFailure     = errors.New("storage failure")
	ErrTransactionFailure = errors.New("transaction failure")
)

// validateID rejects identifiers that are not positive integers before any I/O.
func validateID(id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIdentifier, id)
	}
	return nil
}
