package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

func structToMap(cfg *Config) map[string]any {
	k := koanf.New(".")
	_ = k.Load(structs.Provider(cfg, "koanf"), nil)
	return k.Raw()
}

// defaultService is the Service the rest of the engine uses; NewService
// always returns this (the interface exists so tests can substitute a
// mockService without a real koanf tree).
type defaultService struct{}

// NewService returns the default Service.
func NewService() Service { return &defaultService{} }

// Load merges every source's data into a fresh koanf tree, in order, and
// unmarshals it into a Config. With no sources it returns Default(). Nil
// entries in sources are skipped so callers can pass optional providers
// without filtering first.
func (s *defaultService) Load(ctx context.Context, sources ...Source) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(structToMap(Default()), "."), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	for _, p := range sources {
		if p == nil {
			continue
		}
		if p.Type() == SourceEnv {
			if err := k.Load(env.Provider(".", env.Opt{
				TransformFunc: func(key string, value string) (string, any) {
					return transformEnvKey(key), value
				},
			}), nil); err != nil {
				return nil, fmt.Errorf("config: loading env: %w", err)
			}
			continue
		}
		data, err := p.Load()
		if err != nil {
			return nil, fmt.Errorf("config: failed to load from source %s: %w", p.Type(), err)
		}
		if err := k.Load(confmap.Provider(data, "."), nil); err != nil {
			return nil, fmt.Errorf("config: merging %s: %w", p.Type(), err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	cfg.Mode = normalizeMode(cfg.Mode)

	if err := s.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch registers callback to be invoked on future config reloads.
// Hot-reload propagation is not wired yet; this records the intent and
// validates the callback so callers can rely on the method existing.
func (s *defaultService) Watch(ctx context.Context, callback func(*Config)) error {
	if callback == nil {
		return fmt.Errorf("config: callback cannot be nil")
	}
	return nil
}

// GetSource reports which source last set a key. Per-key attribution is
// not tracked (koanf merges without retaining provenance), so this
// always reports SourceDefault.
func (s *defaultService) GetSource(key string) SourceType {
	return SourceDefault
}

// Validate enforces the invariants required for the engine to start:
// valid ranges/enums on every section, and internal consistency between
// the dispatcher heartbeat timings.
func (s *defaultService) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: configuration cannot be nil")
	}
	var problems []string

	if cfg.Mode != "" && !validMode(cfg.Mode) {
		problems = append(problems, fmt.Sprintf("mode %q is not a recognized mode", cfg.Mode))
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	switch cfg.Runtime.Environment {
	case "development", "staging", "production":
	default:
		problems = append(problems, "runtime.environment must be one of development, staging, production")
	}
	switch cfg.Runtime.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "runtime.log_level must be one of debug, info, warn, error")
	}
	if cfg.Runtime.AsyncTokenCounterWorkers <= 0 {
		problems = append(problems, "runtime.async_token_counter_workers must be positive")
	}
	if cfg.Runtime.DispatcherHeartbeatTTL <= cfg.Runtime.DispatcherHeartbeatInterval {
		problems = append(problems, "dispatcher heartbeat TTL must be greater than heartbeat interval")
	}
	if cfg.Runtime.DispatcherStaleThreshold <= cfg.Runtime.DispatcherHeartbeatTTL {
		problems = append(problems, "dispatcher stale threshold must be greater than heartbeat TTL")
	}

	if cfg.Limits.MaxNestingDepth <= 0 {
		problems = append(problems, "limits.max_nesting_depth must be positive")
	}
	if cfg.Limits.MaxStringLength <= 0 {
		problems = append(problems, "limits.max_string_length must be positive")
	}
	if cfg.Limits.MaxMessageContent <= 0 {
		problems = append(problems, "limits.max_message_content must be positive")
	}

	if cfg.Database.ConnString == "" {
		if cfg.Database.Host == "" {
			problems = append(problems, "database.host is required when conn_string is unset")
		}
		if cfg.Database.Port == "" {
			problems = append(problems, "database.port is required when conn_string is unset")
		}
		if cfg.Database.User == "" {
			problems = append(problems, "database.user is required when conn_string is unset")
		}
		if cfg.Database.DBName == "" {
			problems = append(problems, "database.db_name is required when conn_string is unset")
		}
	}

	if cfg.Temporal.HostPort == "" {
		problems = append(problems, "temporal.host_port is required")
	}

	if cfg.Redis.Port != "" {
		if err := validatePort(cfg.Redis.Port); err != nil {
			problems = append(problems, "Redis "+err.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// transformEnvKey maps an environment variable name (SERVER_HOST) to its
// dotted koanf path (server.host), collapsing runs of underscores and
// trimming leading/trailing ones.
func transformEnvKey(key string) string {
	var parts []string
	for _, p := range strings.Split(strings.ToLower(key), "_") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}

func validatePort(raw string) error {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			if raw[0] == '-' {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return fmt.Errorf("port must be a valid integer")
		}
	}
	for _, r := range raw {
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
