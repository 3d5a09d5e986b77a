package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	ReplayModeAcceptAll = "accept_all"
	ReplayModeLedger    = "ledger"
)

type ReplayConfig struct {
	// Mode selects the nonce policy. accept_all preserves the legacy
	// datastore contract where every nonce passes; ledger claims
	// (consumer, nonce, timestamp) keys with a TTL.
	Mode            string `koanf:"mode" mapstructure:"mode"`
	TTLSeconds      int    `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
	MaxEntries      int    `koanf:"max_entries" mapstructure:"max_entries"`
	ClockSkewSecond int    `koanf:"clock_skew_seconds" mapstructure:"clock_skew_seconds"`
}

func (c ReplayConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c ReplayConfig) ClockSkew() time.Duration {
	if c.ClockSkewSecond <= 0 {
		return 0
	}
	return time.Duration(c.ClockSkewSecond) * time.Second
}

type DeepLinkingConfig struct {
	// LaunchURL is the absolute content launch endpoint referenced by every
	// returned resource link.
	LaunchURL         string `koanf:"launch_url" mapstructure:"launch_url"`
	MessageTTLSeconds int    `koanf:"message_ttl_seconds" mapstructure:"message_ttl_seconds"`
}

func (c DeepLinkingConfig) MessageTTL() time.Duration {
	if c.MessageTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.MessageTTLSeconds) * time.Second
}

type Config struct {
	ServiceName string `koanf:"service_name" mapstructure:"service_name"`
	// AnonymousUser names the placeholder identity that skips attribute sync.
	AnonymousUser string            `koanf:"anonymous_user" mapstructure:"anonymous_user"`
	Replay        ReplayConfig      `koanf:"replay" mapstructure:"replay"`
	DeepLinking   DeepLinkingConfig `koanf:"deep_linking" mapstructure:"deep_linking"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "ltitool",
		AnonymousUser: "ltiuser",
		Replay: ReplayConfig{
			Mode:       ReplayModeAcceptAll,
			TTLSeconds: 300,
			MaxEntries: 8192,
		},
		DeepLinking: DeepLinkingConfig{
			MessageTTLSeconds: 600,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	mode := strings.TrimSpace(strings.ToLower(c.Replay.Mode))
	switch mode {
	case "", ReplayModeAcceptAll, ReplayModeLedger:
	default:
		return fmt.Errorf("core: unsupported replay mode %q", c.Replay.Mode)
	}
	return nil
}
