package core

import (
	"context"
	"testing"
)

func TestCfgxConfigProvider_AppliesRawValuesOverDefaults(t *testing.T) {
	provider := NewCfgxConfigProvider(NewStaticRawConfigLoader(map[string]any{
		"service_name": "campus-lti",
		"replay": map[string]any{
			"mode":        ReplayModeLedger,
			"ttl_seconds": 120,
		},
	}))

	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "campus-lti" {
		t.Fatalf("expected loaded service name, got %q", cfg.ServiceName)
	}
	if cfg.Replay.Mode != ReplayModeLedger {
		t.Fatalf("expected ledger replay mode, got %q", cfg.Replay.Mode)
	}
	if cfg.Replay.TTLSeconds != 120 {
		t.Fatalf("expected loaded ttl, got %d", cfg.Replay.TTLSeconds)
	}
	if cfg.AnonymousUser != "ltiuser" {
		t.Fatalf("expected default anonymous user to survive, got %q", cfg.AnonymousUser)
	}
}

func TestCfgxConfigProvider_RejectsInvalidRawValues(t *testing.T) {
	provider := NewCfgxConfigProvider(NewStaticRawConfigLoader(map[string]any{
		"replay": map[string]any{"mode": "strict"},
	}))
	if _, err := provider.Load(context.Background(), DefaultConfig()); err == nil {
		t.Fatalf("expected validation failure for unknown replay mode")
	}
}

func TestCfgxConfigProvider_NilLoaderKeepsDefaults(t *testing.T) {
	provider := NewCfgxConfigProvider(nil)
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "ltitool" {
		t.Fatalf("expected defaults, got %q", cfg.ServiceName)
	}
}

func TestGoOptionsResolver_RuntimeWinsOverLoaded(t *testing.T) {
	defaults := DefaultConfig()

	loaded := defaults
	loaded.ServiceName = "from-config"
	loaded.Replay.TTLSeconds = 120

	runtime := Config{}
	runtime.ServiceName = "from-runtime"

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime override, got %q", resolved.ServiceName)
	}
	if resolved.Replay.TTLSeconds != 120 {
		t.Fatalf("expected config-layer ttl to survive, got %d", resolved.Replay.TTLSeconds)
	}
	if resolved.AnonymousUser != "ltiuser" {
		t.Fatalf("expected default anonymous user, got %q", resolved.AnonymousUser)
	}
}

func TestGoOptionsResolver_ZeroRuntimeDoesNotClobber(t *testing.T) {
	defaults := DefaultConfig()
	loaded := defaults
	loaded.Replay.Mode = ReplayModeLedger

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, Config{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Replay.Mode != ReplayModeLedger {
		t.Fatalf("expected loaded replay mode to survive empty runtime, got %q", resolved.Replay.Mode)
	}
}

func TestGoOptionsResolver_RejectsInvalidMerge(t *testing.T) {
	defaults := DefaultConfig()
	runtime := Config{Replay: ReplayConfig{Mode: "strict"}}
	if _, err := (GoOptionsResolver{}).Resolve(defaults, defaults, runtime); err == nil {
		t.Fatalf("expected merged config validation failure")
	}
}
