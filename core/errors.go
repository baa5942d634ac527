package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TallyErrorBadInput          = "TALLY_BAD_INPUT"
	TallyErrorSignatureHeader   = "TALLY_SIGNATURE_HEADER_INVALID"
	TallyErrorSignatureStale    = "TALLY_SIGNATURE_STALE"
	TallyErrorSignatureMismatch = "TALLY_SIGNATURE_MISMATCH"
	TallyErrorMissingEventID    = "TALLY_MISSING_EVENT_ID"
	TallyErrorMalformedPayload  = "TALLY_MALFORMED_PAYLOAD"
	TallyErrorStorageFailure    = "TALLY_STORAGE_FAILURE"
	TallyErrorInternal          = "TALLY_INTERNAL_ERROR"
)

// AuthenticationError builds the envelope for signature failures. They are
// terminal: the sender must not retry the same payload unchanged.
func AuthenticationError(message string, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// ValidationError covers permanently malformed input past the signature
// check: missing event id, undecodable body.
func ValidationError(message string, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// StorageError marks a transient store failure; the sender should retry.
func StorageError(source error, message string, metadata map[string]any) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	} else {
		err = goerrors.New(message, goerrors.CategoryExternal)
	}
	err = err.
		WithCode(http.StatusInternalServerError).
		WithTextCode(TallyErrorStorageFailure)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// IsRetryable reports whether the sender should re-deliver after this error.
// Only storage failures qualify; auth and validation errors are permanent.
func IsRetryable(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryExternal ||
		rich.Category == goerrors.CategoryInternal
}

// MapError normalizes any error into a tally envelope with category, HTTP
// code, and text code populated.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureTallyEnvelope(rich)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"), strings.Contains(msg, "timestamp"):
		return ensureTallyEnvelope(
			goerrors.New(err.Error(), goerrors.CategoryAuth).
				WithTextCode(TallyErrorSignatureMismatch),
		)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"),
		strings.Contains(msg, "malformed"):
		return ensureTallyEnvelope(
			goerrors.New(err.Error(), goerrors.CategoryBadInput).
				WithTextCode(TallyErrorBadInput),
		)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureTallyEnvelope(mapped)
}

func ensureTallyEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = tallyHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTallyTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTallyTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return TallyErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return TallyErrorSignatureMismatch
	case goerrors.CategoryExternal:
		return TallyErrorStorageFailure
	default:
		return TallyErrorInternal
	}
}

func tallyHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
