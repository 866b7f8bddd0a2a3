// Package errors provides error code definitions for the ReadNest core.
package errors

import "fmt"

// ErrorCode represents a unique error code surfaced across the core API.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Store errors
	ErrNotFound             ErrorCode = "NOT_FOUND"
	ErrUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrTransportUnavailable ErrorCode = "TRANSPORT_UNAVAILABLE"
	ErrDatabase             ErrorCode = "DATABASE_ERROR"
	ErrMigration            ErrorCode = "MIGRATION_FAILED"

	// Payload errors
	ErrPayloadCorrupt ErrorCode = "PAYLOAD_CORRUPT"

	// Sync errors
	ErrDocumentUnavailable ErrorCode = "DOCUMENT_UNAVAILABLE"
	ErrConcurrentMutation  ErrorCode = "CONCURRENT_MUTATION"

	// Collection errors
	ErrInvalidMove       ErrorCode = "INVALID_MOVE"
	ErrCollectionInvalid ErrorCode = "COLLECTION_INVALID"

	// Cloud mirror errors
	ErrMirrorNotConfigured ErrorCode = "MIRROR_NOT_CONFIGURED"
	ErrMirrorFailed        ErrorCode = "MIRROR_FAILED"
	ErrMirrorAuthFailed    ErrorCode = "MIRROR_AUTH_FAILED"

	// Export errors
	ErrExportFailed ErrorCode = "EXPORT_FAILED"
	ErrImportFailed ErrorCode = "IMPORT_FAILED"
	ErrCryptoFailed ErrorCode = "CRYPTO_FAILED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code, unwrapping as needed.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain,
// or ErrInternal when err carries none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrInternal
}
