package config

import "context"

// SourceType identifies which layer a Source contributes to the merged
// configuration (used for logging/GetSource, not for merge order —
// merge order is the order Sources are passed to Service.Load).
type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceEnv     SourceType = "env"
	SourceYAML    SourceType = "yaml"
	SourceCLI     SourceType = "cli"
)

// Source supplies one layer of configuration data to be merged into the
// koanf tree, in the order passed to Service.Load.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
	// Watch invokes cb whenever the underlying source changes; sources
	// with no notion of change (env, CLI flags) return nil immediately.
	Watch(ctx context.Context, cb func()) error
}

// Service loads, validates, and (eventually) hot-reloads a Config from
// an ordered set of Sources.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Watch(ctx context.Context, callback func(*Config)) error
	Validate(cfg *Config) error
	GetSource(key string) SourceType
}
