package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

func TestDeepLinkSigner_SignsWithSharedSecret(t *testing.T) {
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	signer := NewDeepLinkSigner(DeepLinkSignerConfig{
		MessageTTL: 5 * time.Minute,
		Now:        func() time.Time { return fixed },
	})

	token, err := signer.Sign(testRegistration(), map[string]any{"nonce": "nonce-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return fixed }),
	).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("shared-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse signed token: %v", err)
	}
	if !parsed.Valid {
		t.Fatalf("expected valid token")
	}

	if claims["iss"] != "client-1" {
		t.Fatalf("expected tool client id as issuer, got %v", claims["iss"])
	}
	if claims["aud"] != "https://platform.example" {
		t.Fatalf("expected platform issuer as audience, got %v", claims["aud"])
	}
	if claims[core.ClaimVersion] != core.VersionClaimV1P3 {
		t.Fatalf("expected version claim, got %v", claims[core.ClaimVersion])
	}
	if claims[core.ClaimMessageType] != core.ClaimDeepLinkMsg {
		t.Fatalf("expected deep linking message type, got %v", claims[core.ClaimMessageType])
	}
	if claims[core.ClaimDeploymentID] != "deployment-1" {
		t.Fatalf("expected deployment id claim, got %v", claims[core.ClaimDeploymentID])
	}
	if claims["nonce"] != "nonce-1" {
		t.Fatalf("expected extra claim, got %v", claims["nonce"])
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("expected expiry claim: %v", err)
	}
	if got := exp.Time.Sub(fixed); got != 5*time.Minute {
		t.Fatalf("expected 5m expiry window, got %v", got)
	}
}

func TestDeepLinkSigner_ExtraClaimsWinOnCollision(t *testing.T) {
	signer := NewDeepLinkSigner(DeepLinkSignerConfig{})
	token, err := signer.Sign(testRegistration(), map[string]any{
		core.ClaimDeploymentID: "override-deployment",
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims[core.ClaimDeploymentID] != "override-deployment" {
		t.Fatalf("expected extra claim to win, got %v", claims[core.ClaimDeploymentID])
	}
}

func TestDeepLinkSigner_RequiresKeyMaterial(t *testing.T) {
	signer := NewDeepLinkSigner(DeepLinkSignerConfig{})
	if _, err := signer.Sign(core.Registration{ClientID: "client-1"}, nil); err == nil {
		t.Fatalf("expected missing key material error")
	}
}
