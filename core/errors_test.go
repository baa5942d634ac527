package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestMapErrorPreservesRichEnvelope(t *testing.T) {
	source := AuthenticationError("bad signature", TallyErrorSignatureMismatch, nil)
	mapped := MapError(source)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", mapped.Code)
	}
	if mapped.TextCode != TallyErrorSignatureMismatch {
		t.Fatalf("unexpected text code %q", mapped.TextCode)
	}
}

func TestMapErrorClassifiesPlainErrors(t *testing.T) {
	mapped := MapError(errors.New("signature timestamp drift"))
	if mapped.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %v", mapped.Category)
	}
	if mapped.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", mapped.Code)
	}

	mapped = MapError(errors.New("event id is required"))
	if mapped.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %v", mapped.Category)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", mapped.Code)
	}
}

func TestMapErrorNil(t *testing.T) {
	if MapError(nil) != nil {
		t.Fatalf("nil error must map to nil")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(StorageError(fmt.Errorf("connection reset"), "write failed", nil)) {
		t.Fatalf("storage failures must be retryable")
	}
	if IsRetryable(AuthenticationError("mismatch", TallyErrorSignatureMismatch, nil)) {
		t.Fatalf("auth failures must not be retryable")
	}
	if IsRetryable(ValidationError("missing id", TallyErrorMissingEventID, nil)) {
		t.Fatalf("validation failures must not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("unclassified errors must not be retryable")
	}
}

func TestStorageErrorWrapsSource(t *testing.T) {
	source := errors.New("disk full")
	err := StorageError(source, "ledger write failed", map[string]any{"event_id": "evt_1"})
	if !errors.Is(err, source) {
		t.Fatalf("expected source to be wrapped")
	}
	mapped := MapError(err)
	if mapped.TextCode != TallyErrorStorageFailure {
		t.Fatalf("unexpected text code %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", mapped.Code)
	}
}
