package core

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "ltitool" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.AnonymousUser != "ltiuser" {
		t.Fatalf("expected default anonymous user, got %q", cfg.AnonymousUser)
	}
	if cfg.Replay.Mode != ReplayModeAcceptAll {
		t.Fatalf("expected accept_all replay mode, got %q", cfg.Replay.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate: %v", err)
	}
}

func TestConfig_ValidateRejectsUnknownReplayMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Replay.Mode = "strict"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported replay mode error")
	}
}

func TestConfig_ValidateRequiresServiceName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceName = "   "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected service_name error")
	}
}

func TestReplayConfig_Durations(t *testing.T) {
	cfg := ReplayConfig{TTLSeconds: 120, ClockSkewSecond: 30}
	if got := cfg.TTL(); got != 2*time.Minute {
		t.Fatalf("expected 2m ttl, got %v", got)
	}
	if got := cfg.ClockSkew(); got != 30*time.Second {
		t.Fatalf("expected 30s skew, got %v", got)
	}

	zero := ReplayConfig{}
	if got := zero.TTL(); got != 5*time.Minute {
		t.Fatalf("expected default 5m ttl, got %v", got)
	}
	if got := zero.ClockSkew(); got != 0 {
		t.Fatalf("expected zero skew default, got %v", got)
	}
}

func TestDeepLinkingConfig_MessageTTL(t *testing.T) {
	if got := (DeepLinkingConfig{MessageTTLSeconds: 60}).MessageTTL(); got != time.Minute {
		t.Fatalf("expected 1m message ttl, got %v", got)
	}
	if got := (DeepLinkingConfig{}).MessageTTL(); got != 10*time.Minute {
		t.Fatalf("expected default 10m message ttl, got %v", got)
	}
}
