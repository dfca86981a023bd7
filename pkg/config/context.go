package config

import "context"

type contextKey struct{}

// ContextWithConfig attaches cfg to ctx for retrieval by FromContext.
func ContextWithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the Config attached to ctx, falling back to the
// global Config if Initialize has run, or nil if neither is available.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m == nil {
		return nil
	}
	return m.Get()
}
