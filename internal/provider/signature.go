package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature is returned for any webhook signature failure: missing
// header, malformed header, timestamp outside tolerance, or digest mismatch.
// Callers must reject the notification without touching state.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultSignatureTolerance bounds how far a notification's timestamp may
// drift from the verifier's clock before it is treated as a replay.
const DefaultSignatureTolerance = 5 * time.Minute

// SignatureVerifier checks provider webhook signatures of the form
// "t=<unix>,v1=<hex>", where the hex value is HMAC-SHA256 over
// "<t>.<payload>" with a pre-shared secret. Verification runs over the
// exact received bytes; re-serializing the body before verifying would
// break the digest.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	nowFunc   func() time.Time
}

// NewSignatureVerifier creates a verifier with the given pre-shared secret
// and the default replay tolerance.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{
		secret:    []byte(secret),
		tolerance: DefaultSignatureTolerance,
		nowFunc:   time.Now,
	}
}

// WithTolerance overrides the replay tolerance window.
func (v *SignatureVerifier) WithTolerance(d time.Duration) *SignatureVerifier {
	v.tolerance = d
	return v
}

// Verify checks the signature header against the raw request body. Every
// failure mode collapses to ErrInvalidSignature so the endpoint's behavior
// leaks nothing about which check tripped.
func (v *SignatureVerifier) Verify(payload []byte, header string) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return ErrInvalidSignature
	}

	now := v.nowFunc()
	issued := time.Unix(timestamp, 0)
	if issued.Before(now.Add(-v.tolerance)) || issued.After(now.Add(v.tolerance)) {
		return ErrInvalidSignature
	}

	expected := ComputeSignature(v.secret, timestamp, payload)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// ComputeSignature returns the hex HMAC-SHA256 digest of "<timestamp>.<payload>".
func ComputeSignature(secret []byte, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload builds a complete signature header for the given payload.
// Used by the mock provider and tests to produce verifiable notifications.
func SignPayload(secret []byte, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, ComputeSignature(secret, timestamp, payload))
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]" into its
// timestamp and candidate signatures. Multiple v1 entries are allowed to
// support provider-side secret rotation.
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, errors.New("empty signature header")
	}

	var (
		timestamp  int64
		signatures []string
		hasTS      bool
	)

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, fmt.Errorf("malformed signature element %q", part)
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("parse signature timestamp: %w", err)
			}
			timestamp = ts
			hasTS = true
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if !hasTS || len(signatures) == 0 {
		return 0, nil, errors.New("signature header missing timestamp or digest")
	}

	return timestamp, signatures, nil
}
