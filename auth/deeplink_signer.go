package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

type DeepLinkSignerConfig struct {
	MessageTTL time.Duration
	Now        func() time.Time
}

// DeepLinkSigner signs deep-linking response messages addressed back to the
// platform. The tool-side private key selects RS256; registrations without
// one fall back to the shared secret with HS256.
type DeepLinkSigner struct {
	messageTTL time.Duration
	now        func() time.Time
}

func NewDeepLinkSigner(cfg DeepLinkSignerConfig) *DeepLinkSigner {
	messageTTL := cfg.MessageTTL
	if messageTTL <= 0 {
		messageTTL = 10 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &DeepLinkSigner{messageTTL: messageTTL, now: now}
}

// Sign issues the response token. Standard claims are derived from the
// registration; extra claims win on collision so callers can pin nonce or
// deployment values.
func (s *DeepLinkSigner) Sign(registration core.Registration, extra map[string]any) (string, error) {
	if s == nil {
		return "", fmt.Errorf("auth: deep link signer is required")
	}

	issuedAt := s.now()
	claims := jwt.MapClaims{
		"iss":                  registration.ClientID,
		"aud":                  registration.Issuer,
		"iat":                  issuedAt.Unix(),
		"exp":                  issuedAt.Add(s.messageTTL).Unix(),
		core.ClaimVersion:      core.VersionClaimV1P3,
		core.ClaimMessageType:  core.ClaimDeepLinkMsg,
		core.ClaimDeploymentID: registration.DeploymentID,
	}
	for name, value := range extra {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		claims[trimmed] = value
	}

	if pem := strings.TrimSpace(registration.ToolKeyPEM); pem != "" {
		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
		if err != nil {
			return "", fmt.Errorf("auth: parse tool private key: %w", err)
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
		if err != nil {
			return "", fmt.Errorf("auth: sign deep link message: %w", err)
		}
		return signed, nil
	}

	secret := strings.TrimSpace(registration.SharedSecret)
	if secret == "" {
		return "", fmt.Errorf("auth: registration has no signing key material")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign deep link message: %w", err)
	}
	return signed, nil
}
