package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

const (
	SignatureMethodHMACSHA1   = "HMAC-SHA1"
	SignatureMethodHMACSHA256 = "HMAC-SHA256"
)

// IdentityResolver is the trust-store surface the signature strategy needs.
type IdentityResolver interface {
	Lookup(ctx context.Context, key string) (core.Identity, error)
}

type SignatureStrategyConfig struct {
	Trust     IdentityResolver
	Replay    core.ReplayLedger
	ReplayTTL time.Duration
	ClockSkew time.Duration
	Now       func() time.Time
}

// SignatureStrategy verifies form-post launches signed with OAuth 1.0a
// HMAC. Unknown consumers run the same verification path against the null
// secret and are rejected afterwards regardless of the comparison outcome.
type SignatureStrategy struct {
	trust     IdentityResolver
	replay    core.ReplayLedger
	replayTTL time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewSignatureStrategy(cfg SignatureStrategyConfig) *SignatureStrategy {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	replay := cfg.Replay
	if replay == nil {
		replay = core.AcceptAllReplayLedger{}
	}
	return &SignatureStrategy{
		trust:     cfg.Trust,
		replay:    replay,
		replayTTL: cfg.ReplayTTL,
		clockSkew: cfg.ClockSkew,
		now:       now,
	}
}

func (s *SignatureStrategy) Verify(ctx context.Context, req core.LaunchRequest) (map[string]any, error) {
	if s == nil || s.trust == nil {
		return nil, fmt.Errorf("auth: trust resolver is required")
	}

	key := req.Param("oauth_consumer_key")
	if key == "" {
		return nil, core.MissingFieldError("oauth_consumer_key")
	}
	provided := req.Param("oauth_signature")
	if provided == "" {
		return nil, core.MissingFieldError("oauth_signature")
	}
	nonce := req.Param("oauth_nonce")
	if nonce == "" {
		return nil, core.MissingFieldError("oauth_nonce")
	}
	timestamp := req.Param("oauth_timestamp")
	if timestamp == "" {
		return nil, core.MissingFieldError("oauth_timestamp")
	}

	if err := s.checkTimestamp(timestamp); err != nil {
		return nil, err
	}
	if err := s.claimNonce(ctx, key, nonce, timestamp); err != nil {
		return nil, err
	}

	identity, err := s.trust.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	method := req.Param("oauth_signature_method")
	expected, err := ComputeSignature(identity.Secret, req.Method, req.URL, req.Params, method)
	if err != nil {
		return nil, core.InvalidSignatureError(err)
	}

	// The comparison always runs so known and unknown keys share the same
	// timing shape, but a null-secret identity never authenticates: the
	// empty-key HMAC is computable by anyone.
	match := hmac.Equal([]byte(expected), []byte(provided))
	if !identity.HasSecret() {
		return nil, core.UnknownConsumerError(key)
	}
	if !match {
		return nil, core.InvalidSignatureError(nil)
	}

	payload := make(map[string]any, len(req.Params))
	for name := range req.Params {
		payload[name] = req.Params.Get(name)
	}
	return payload, nil
}

func (s *SignatureStrategy) checkTimestamp(timestamp string) error {
	if s.clockSkew <= 0 {
		return nil
	}
	issued, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return core.InvalidSignatureError(fmt.Errorf("auth: malformed oauth_timestamp %q", timestamp))
	}
	drift := s.now().Sub(time.Unix(issued, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > s.clockSkew {
		return core.InvalidSignatureError(fmt.Errorf("auth: oauth_timestamp outside accepted window"))
	}
	return nil
}

func (s *SignatureStrategy) claimNonce(ctx context.Context, key string, nonce string, timestamp string) error {
	claimed, err := s.replay.Claim(ctx, key+"::"+nonce+"::"+timestamp, s.replayTTL)
	if err != nil {
		return fmt.Errorf("auth: nonce claim failed: %w", err)
	}
	if !claimed {
		return core.InvalidSignatureError(fmt.Errorf("auth: oauth_nonce was already used"))
	}
	return nil
}

// SignatureBaseString builds the RFC 5849 base string: the uppercased
// method, the base URL without query or fragment, and the normalized
// parameter set, each percent-encoded and joined with ampersands.
func SignatureBaseString(method string, rawURL string, params url.Values) (string, error) {
	baseURL, err := normalizeBaseURL(rawURL)
	if err != nil {
		return "", err
	}
	normalized := normalizeParams(params)
	return strings.ToUpper(strings.TrimSpace(method)) + "&" +
		rfc3986Encode(baseURL) + "&" +
		rfc3986Encode(normalized), nil
}

// ComputeSignature signs the base string with the consumer secret. A nil
// secret signs with the empty key, matching the null-identity contract.
func ComputeSignature(secret []byte, method string, rawURL string, params url.Values, signatureMethod string) (string, error) {
	base, err := SignatureBaseString(method, rawURL, params)
	if err != nil {
		return "", err
	}

	var digest func() hash.Hash
	switch strings.ToUpper(strings.TrimSpace(signatureMethod)) {
	case "", SignatureMethodHMACSHA1:
		digest = sha1.New
	case SignatureMethodHMACSHA256:
		digest = sha256.New
	default:
		return "", fmt.Errorf("auth: unsupported oauth_signature_method %q", signatureMethod)
	}

	signingKey := rfc3986Encode(string(secret)) + "&"
	mac := hmac.New(digest, []byte(signingKey))
	_, _ = mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func normalizeBaseURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("auth: malformed request url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path, nil
}

func normalizeParams(params url.Values) string {
	pairs := make([]string, 0, len(params))
	for name, values := range params {
		if name == "oauth_signature" {
			continue
		}
		encodedName := rfc3986Encode(name)
		for _, value := range values {
			pairs = append(pairs, encodedName+"="+rfc3986Encode(value))
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

func rfc3986Encode(value string) string {
	var builder strings.Builder
	for _, b := range []byte(value) {
		switch {
		case b >= 'A' && b <= 'Z',
			b >= 'a' && b <= 'z',
			b >= '0' && b <= '9',
			b == '-', b == '.', b == '_', b == '~':
			builder.WriteByte(b)
		default:
			builder.WriteString(fmt.Sprintf("%%%02X", b))
		}
	}
	return builder.String()
}

var _ core.SignatureVerifier = (*SignatureStrategy)(nil)
