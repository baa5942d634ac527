package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-tally/core"
)

const DefaultTolerance = 1800 * time.Second

const (
	signatureKeyTimestamp = "t"
	signatureKeyDigest    = "v1"
)

// SignatureVerifier authenticates the raw payload bytes against a
// `t=<unix-seconds>,v1=<hex-hmac-sha256>` header. The signed message is the
// literal "{t}.{body}" concatenation, never a reserialized form. Multiple
// secrets are accepted so a rotation window does not reject live traffic.
type SignatureVerifier struct {
	Secrets   []string
	Tolerance time.Duration
	Now       func() time.Time
}

func NewSignatureVerifier(secrets []string, tolerance time.Duration) *SignatureVerifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &SignatureVerifier{
		Secrets:   append([]string(nil), secrets...),
		Tolerance: tolerance,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (v *SignatureVerifier) Verify(_ context.Context, body []byte, signatureHeader string) error {
	if v == nil || len(v.Secrets) == 0 {
		return core.AuthenticationError(
			"webhooks: signing secret is not configured",
			core.TallyErrorSignatureMismatch,
			nil,
		)
	}

	timestamp, digests, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	now := v.now()
	skew := now.Sub(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > tolerance {
		return core.AuthenticationError(
			"webhooks: signature timestamp outside tolerance window",
			core.TallyErrorSignatureStale,
			map[string]any{
				"timestamp":         timestamp,
				"tolerance_seconds": int64(tolerance / time.Second),
			},
		)
	}

	signed := signedMessage(timestamp, body)
	for _, secret := range v.Secrets {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		expected := computeDigest(secret, signed)
		for _, digest := range digests {
			if subtle.ConstantTimeCompare(digest, expected) == 1 {
				return nil
			}
		}
	}
	return core.AuthenticationError(
		"webhooks: signature verification failed",
		core.TallyErrorSignatureMismatch,
		nil,
	)
}

func (v *SignatureVerifier) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

// parseSignatureHeader extracts the timestamp and every v1 digest from the
// comma-separated key=value header. Unknown keys are ignored.
func parseSignatureHeader(header string) (int64, [][]byte, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil, invalidHeader("webhooks: signature header is required")
	}

	var timestampRaw string
	var digests [][]byte
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case signatureKeyTimestamp:
			timestampRaw = value
		case signatureKeyDigest:
			decoded, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			digests = append(digests, decoded)
		}
	}

	if timestampRaw == "" {
		return 0, nil, invalidHeader("webhooks: signature header is missing timestamp")
	}
	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		return 0, nil, invalidHeader("webhooks: signature timestamp is not a unix epoch")
	}
	if len(digests) == 0 {
		return 0, nil, invalidHeader("webhooks: signature header is missing v1 digest")
	}
	return timestamp, digests, nil
}

func invalidHeader(message string) error {
	return core.AuthenticationError(message, core.TallyErrorSignatureHeader, nil)
}

func signedMessage(timestamp int64, body []byte) []byte {
	prefix := strconv.FormatInt(timestamp, 10) + "."
	message := make([]byte, 0, len(prefix)+len(body))
	message = append(message, prefix...)
	return append(message, body...)
}

func computeDigest(secret string, message []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(message)
	return mac.Sum(nil)
}

// SignPayload computes the lowercase hex digest a sender would place in the
// v1 slot for the given timestamp and body.
func SignPayload(secret string, at time.Time, body []byte) string {
	return hex.EncodeToString(computeDigest(secret, signedMessage(at.Unix(), body)))
}

// BuildSignatureHeader renders a complete signature header for the payload.
func BuildSignatureHeader(secret string, at time.Time, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), SignPayload(secret, at, body))
}

var _ core.Verifier = (*SignatureVerifier)(nil)
