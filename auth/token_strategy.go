package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

// RegistrationResolver is the trust-store surface the token strategy needs.
type RegistrationResolver interface {
	LookupRegistrationByIssuer(ctx context.Context, issuer string) (core.Registration, error)
}

type TokenStrategyConfig struct {
	Trust  RegistrationResolver
	Leeway time.Duration
	Now    func() time.Time
}

// TokenStrategy verifies LTI 1.3 launch tokens. The issuer claim selects the
// registration, whose key material decides the accepted algorithm: RS256
// when the platform published a public key, HS256 against the shared secret
// otherwise. Every failure closes the launch.
type TokenStrategy struct {
	trust  RegistrationResolver
	leeway time.Duration
	now    func() time.Time
}

func NewTokenStrategy(cfg TokenStrategyConfig) *TokenStrategy {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TokenStrategy{
		trust:  cfg.Trust,
		leeway: cfg.Leeway,
		now:    now,
	}
}

func (s *TokenStrategy) Verify(ctx context.Context, token string) (core.Registration, map[string]any, error) {
	if s == nil || s.trust == nil {
		return core.Registration{}, nil, fmt.Errorf("auth: trust resolver is required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return core.Registration{}, nil, core.MissingFieldError("id_token")
	}

	issuer, err := unverifiedIssuer(token)
	if err != nil {
		return core.Registration{}, nil, core.InvalidTokenError(err)
	}
	registration, err := s.trust.LookupRegistrationByIssuer(ctx, issuer)
	if err != nil {
		return core.Registration{}, nil, err
	}

	method, signingKey, err := registrationKey(registration)
	if err != nil {
		return core.Registration{}, nil, core.InvalidTokenError(err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method}),
		jwt.WithIssuer(registration.Issuer),
		jwt.WithAudience(registration.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)
	claims := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return core.Registration{}, nil, core.TokenExpiredError(err)
		}
		return core.Registration{}, nil, core.InvalidTokenError(err)
	}
	if parsed == nil || !parsed.Valid {
		return core.Registration{}, nil, core.InvalidTokenError(nil)
	}

	if version, _ := claims[core.ClaimVersion].(string); strings.TrimSpace(version) != core.VersionClaimV1P3 {
		return core.Registration{}, nil, core.InvalidTokenError(
			fmt.Errorf("auth: unexpected version claim %q", version),
		)
	}

	payload := make(map[string]any, len(claims))
	for name, value := range claims {
		payload[name] = value
	}
	return registration, payload, nil
}

func unverifiedIssuer(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("auth: malformed launch token: %w", err)
	}
	issuer, err := claims.GetIssuer()
	if err != nil || strings.TrimSpace(issuer) == "" {
		return "", fmt.Errorf("auth: launch token is missing iss claim")
	}
	return strings.TrimSpace(issuer), nil
}

func registrationKey(registration core.Registration) (string, any, error) {
	if pem := strings.TrimSpace(registration.PlatformKeyPEM); pem != "" {
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return "", nil, fmt.Errorf("auth: parse platform public key: %w", err)
		}
		return jwt.SigningMethodRS256.Alg(), publicKey, nil
	}
	secret := strings.TrimSpace(registration.SharedSecret)
	if secret == "" {
		return "", nil, fmt.Errorf("auth: registration has no verification key material")
	}
	return jwt.SigningMethodHS256.Alg(), []byte(secret), nil
}

var _ core.TokenVerifier = (*TokenStrategy)(nil)
