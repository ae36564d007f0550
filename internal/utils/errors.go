package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrWorkbookNotFound  = errors.New("workbook_not_found")
	ErrSheetNotFound     = errors.New("sheet_not_found")
	ErrNoListings        = errors.New("no_listings_loaded")
	ErrInvalidFolderID   = errors.New("invalid_folder_id")
	ErrRemoteUnavailable = errors.New("remote_unavailable")
	ErrDocumentNotFound  = errors.New("document_not_found")
	ErrSessionNotFound   = errors.New("session_not_found")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
