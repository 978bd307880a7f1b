package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
)

// TimestampUnit selects the epoch precision an exchange expects.
// Using the wrong unit makes every signature fail authentication.
type TimestampUnit int

const (
	UnitSeconds TimestampUnit = iota
	UnitMilliseconds
)

// CanonicalLayout selects what byte sequence gets signed.
type CanonicalLayout int

const (
	// CanonicalPrefix signs method + timestamp + path + body and sends
	// the timestamp in its own header.
	CanonicalPrefix CanonicalLayout = iota
	// CanonicalBody signs the serialized body itself; the timestamp is
	// stamped into the payload before serialization.
	CanonicalBody
)

// Scheme describes one exchange's signing convention: timestamp unit,
// canonical-string layout, and header names.
type Scheme struct {
	Name            string
	TimestampUnit   TimestampUnit
	Layout          CanonicalLayout
	APIKeyHeader    string
	SignatureHeader string
	TimestampHeader string // empty when the timestamp lives in the body
}

var (
	// SchemeCoinDCX: millisecond timestamp embedded in a compact JSON
	// body; the signature covers the body bytes verbatim.
	SchemeCoinDCX = Scheme{
		Name:            "coindcx",
		TimestampUnit:   UnitMilliseconds,
		Layout:          CanonicalBody,
		APIKeyHeader:    "X-AUTH-APIKEY",
		SignatureHeader: "X-AUTH-SIGNATURE",
	}

	// SchemeDelta: second timestamp; the signature covers
	// method + timestamp + path + body.
	SchemeDelta = Scheme{
		Name:            "delta",
		TimestampUnit:   UnitSeconds,
		Layout:          CanonicalPrefix,
		APIKeyHeader:    "api-key",
		SignatureHeader: "signature",
		TimestampHeader: "timestamp",
	}
)

// TimestampSetter is implemented by payloads of body-embedded schemes
// so the signer can stamp them before serializing.
type TimestampSetter interface {
	SetTimestamp(ts int64)
}

// SignedRequest is a ready-to-send authenticated request. Body holds
// the exact bytes the signature was computed over; transmitting
// anything else (e.g. a re-marshalled payload) breaks authentication.
type SignedRequest struct {
	Headers   map[string]string
	Body      []byte
	Timestamp int64
}

// Signer produces authenticated requests for a single exchange.
type Signer struct {
	scheme Scheme
	key    string
	secret string
	now    func() time.Time
}

// NewSigner fails fast on empty credentials rather than producing
// silently unauthenticated requests.
func NewSigner(scheme Scheme, key, secret string) (*Signer, error) {
	if key == "" || secret == "" {
		return nil, errors.Wrapf(domain.ErrMissingCredentials, "exchange %s", scheme.Name)
	}
	return &Signer{scheme: scheme, key: key, secret: secret, now: time.Now}, nil
}

func (s *Signer) timestamp() int64 {
	t := s.now()
	if s.scheme.TimestampUnit == UnitMilliseconds {
		return t.UnixMilli()
	}
	return t.Unix()
}

// Sign builds a signed request for method+path with an optional body
// payload. The payload is serialized once with encoding/json (struct
// field order fixed, no whitespace) and those exact bytes are signed
// and returned. A nil payload signs an empty body.
func (s *Signer) Sign(method, path string, payload any) (*SignedRequest, error) {
	ts := s.timestamp()
	return s.signAt(method, path, payload, ts)
}

func (s *Signer) signAt(method, path string, payload any, ts int64) (*SignedRequest, error) {
	var body []byte
	if payload != nil {
		if setter, ok := payload.(TimestampSetter); ok && s.scheme.Layout == CanonicalBody {
			setter.SetTimestamp(ts)
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "serialize request body")
		}
		body = b
	}

	var canonical []byte
	switch s.scheme.Layout {
	case CanonicalBody:
		canonical = body
	default:
		canonical = append(canonical, method...)
		canonical = append(canonical, formatTimestamp(ts)...)
		canonical = append(canonical, path...)
		canonical = append(canonical, body...)
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(canonical)
	signature := hex.EncodeToString(mac.Sum(nil))

	headers := map[string]string{
		s.scheme.APIKeyHeader:    s.key,
		s.scheme.SignatureHeader: signature,
		"Content-Type":           "application/json",
	}
	if s.scheme.TimestampHeader != "" {
		headers[s.scheme.TimestampHeader] = formatTimestamp(ts)
	}

	return &SignedRequest{Headers: headers, Body: body, Timestamp: ts}, nil
}

func formatTimestamp(ts int64) string {
	return strconv.FormatInt(ts, 10)
}
