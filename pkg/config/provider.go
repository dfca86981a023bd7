package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type defaultProvider struct{}

// NewDefaultProvider supplies Default() as the base configuration layer.
func NewDefaultProvider() Source { return defaultProvider{} }

func (defaultProvider) Load() (map[string]any, error) {
	return structToMap(Default()), nil
}
func (defaultProvider) Type() SourceType                    { return SourceDefault }
func (defaultProvider) Watch(context.Context, func()) error { return nil }

// envProvider's Load is intentionally a no-op: environment variables are
// merged directly into koanf by Service.Load via the env/v2 provider,
// which needs the live koanf instance to apply its key transform.
type envProvider struct{}

func NewEnvProvider() Source { return envProvider{} }

func (envProvider) Load() (map[string]any, error)       { return map[string]any{}, nil }
func (envProvider) Type() SourceType                     { return SourceEnv }
func (envProvider) Watch(context.Context, func()) error { return nil }

type yamlProvider struct {
	path string

	mu      sync.Mutex
	watcher *Watcher
}

// NewYAMLProvider loads configuration from a YAML file on disk.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (p *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", p.path, err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", p.path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (p *yamlProvider) Type() SourceType { return SourceYAML }

// Watch starts a filesystem watch on the first call; subsequent calls
// register an additional callback on the same watch instead of starting
// a second one.
func (p *yamlProvider) Watch(ctx context.Context, cb func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		w, err := NewWatcher()
		if err != nil {
			return err
		}
		if err := w.Watch(ctx, p.path); err != nil {
			_ = w.Close()
			return err
		}
		p.watcher = w
	}
	p.watcher.OnChange(cb)
	return nil
}

// cliFlagMap maps legacy flat CLI flag names to their nested config path.
var cliFlagMap = map[string]string{
	"host":                          "server.host",
	"port":                          "server.port",
	"cors":                          "server.cors_enabled",
	"max-nesting-depth":             "limits.max_nesting_depth",
	"max-string-length":             "limits.max_string_length",
	"max-message-content-length":    "limits.max_message_content",
	"dispatcher-heartbeat-interval": "runtime.dispatcher_heartbeat_interval",
	"async-token-counter-workers":   "runtime.async_token_counter_workers",
}

type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider wraps parsed CLI flags as the highest-precedence source.
func NewCLIProvider(flags map[string]any) Source {
	return cliProvider{flags: flags}
}

func (p cliProvider) Load() (map[string]any, error) {
	out := map[string]any{}
	for k, v := range p.flags {
		path, ok := cliFlagMap[k]
		if !ok {
			continue
		}
		setNested(out, path, v)
	}
	return out, nil
}
func (cliProvider) Type() SourceType                    { return SourceCLI }
func (cliProvider) Watch(context.Context, func()) error { return nil }

func setNested(m map[string]any, dottedPath string, value any) {
	keys := splitDot(dottedPath)
	cur := m
	for i, k := range keys {
		if i == len(keys)-1 {
			cur[k] = value
			return
		}
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
}

func splitDot(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
