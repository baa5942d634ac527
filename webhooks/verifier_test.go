package webhooks

import (
	"context"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tally/core"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func textCodeOf(t *testing.T, err error) string {
	t.Helper()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected rich error, got %T: %v", err, err)
	}
	return rich.TextCode
}

func TestSignatureVerifierAcceptsValidSignature(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 0)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_test", now, body)
	if err := verifier.Verify(context.Background(), body, header); err != nil {
		t.Fatalf("expected valid signature to pass, got %v", err)
	}
}

func TestSignatureVerifierAcceptsRotatedSecret(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_rotate"}`)

	verifier := NewSignatureVerifier([]string{"whsec_new", "whsec_old"}, 0)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_old", now, body)
	if err := verifier.Verify(context.Background(), body, header); err != nil {
		t.Fatalf("expected old rotation secret to pass, got %v", err)
	}
}

func TestSignatureVerifierRejectsTamperedBody(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","amount":100}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 0)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_test", now, body)
	tampered := []byte(`{"id":"evt_1","amount":999900}`)
	err := verifier.Verify(context.Background(), tampered, header)
	if err == nil {
		t.Fatal("expected tampered body to be rejected")
	}
	if code := textCodeOf(t, err); code != core.TallyErrorSignatureMismatch {
		t.Fatalf("expected mismatch code, got %s", code)
	}
}

func TestSignatureVerifierRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 0)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_other", now, body)
	if err := verifier.Verify(context.Background(), body, header); err == nil {
		t.Fatal("expected wrong-secret signature to be rejected")
	}
}

func TestSignatureVerifierRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_stale"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 30*time.Minute)
	verifier.Now = fixedClock(now)

	signedAt := now.Add(-31 * time.Minute)
	header := BuildSignatureHeader("whsec_test", signedAt, body)
	err := verifier.Verify(context.Background(), body, header)
	if err == nil {
		t.Fatal("expected stale timestamp to be rejected")
	}
	if code := textCodeOf(t, err); code != core.TallyErrorSignatureStale {
		t.Fatalf("expected stale code, got %s", code)
	}
}

func TestSignatureVerifierRejectsFutureTimestampOutsideTolerance(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_future"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 30*time.Minute)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_test", now.Add(45*time.Minute), body)
	if err := verifier.Verify(context.Background(), body, header); err == nil {
		t.Fatal("expected far-future timestamp to be rejected")
	}
}

func TestSignatureVerifierAcceptsTimestampAtToleranceEdge(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_edge"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 30*time.Minute)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_test", now.Add(-30*time.Minute), body)
	if err := verifier.Verify(context.Background(), body, header); err != nil {
		t.Fatalf("expected edge-of-tolerance timestamp to pass, got %v", err)
	}
}

func TestSignatureVerifierRejectsMalformedHeaders(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 0)
	verifier.Now = fixedClock(now)

	cases := map[string]string{
		"empty":              "",
		"no timestamp":       "v1=deadbeef",
		"no digest":          "t=1770000000",
		"non-numeric t":      "t=yesterday,v1=deadbeef",
		"undecodable digest": "t=1770000000,v1=zzzz",
	}
	for name, header := range cases {
		err := verifier.Verify(context.Background(), body, header)
		if err == nil {
			t.Fatalf("%s: expected rejection for header %q", name, header)
		}
		code := textCodeOf(t, err)
		if code != core.TallyErrorSignatureHeader && code != core.TallyErrorSignatureStale {
			t.Fatalf("%s: unexpected code %s", name, code)
		}
	}
}

func TestSignatureVerifierIgnoresUnknownHeaderKeys(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1"}`)

	verifier := NewSignatureVerifier([]string{"whsec_test"}, 0)
	verifier.Now = fixedClock(now)

	header := BuildSignatureHeader("whsec_test", now, body) + ",v0=legacy"
	if err := verifier.Verify(context.Background(), body, header); err != nil {
		t.Fatalf("expected unknown keys to be ignored, got %v", err)
	}
}

func TestSignatureVerifierRequiresConfiguredSecret(t *testing.T) {
	verifier := NewSignatureVerifier(nil, 0)
	if err := verifier.Verify(context.Background(), []byte("{}"), "t=1,v1=00"); err == nil {
		t.Fatal("expected verifier without secrets to reject")
	}
	if !strings.Contains(verifier.now().String(), "UTC") {
		t.Fatal("expected verifier clock to report UTC")
	}
}
