package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Manager owns the current Config, reloading it through Service and
// notifying OnChange callbacks whenever a load or reload produces a
// materially different configuration. Debouncing collapses bursts of
// file-watcher events (an editor's save-as-temp-then-rename pattern)
// into one reload.
type Manager struct {
	Service Service

	debounce time.Duration
	current  atomic.Pointer[Config]
	sources  []Source

	mu        sync.Mutex
	callbacks []func(*Config)
	timer     *time.Timer
	watchCtx  context.Context
	cancel    context.CancelFunc
	closed    bool
}

// NewManager wraps svc (NewService() when nil) with atomic config
// storage and change notification.
func NewManager(svc Service) *Manager {
	if svc == nil {
		svc = NewService()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{Service: svc, debounce: 100 * time.Millisecond, watchCtx: ctx, cancel: cancel}
}

// SetDebounce overrides the default 100ms reload debounce.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// Load loads cfg from sources, stores it, starts watching each source
// for changes, and remembers sources for Reload.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, err
	}
	m.sources = sources
	prev := m.current.Swap(cfg)
	if !configEqual(prev, cfg) {
		m.notify(cfg)
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		_ = src.Watch(m.watchCtx, m.scheduleReload)
	}
	return cfg, nil
}

// Get returns the most recently loaded Config, or nil before the first
// Load.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// scheduleReload debounces repeated change notifications from a Source
// into a single Reload call.
func (m *Manager) scheduleReload() {
	m.mu.Lock()
	debounce := m.debounce
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(debounce, func() {
		_ = m.Reload(m.watchCtx)
	})
	m.mu.Unlock()
}

// Reload re-runs Load against the sources from the last Load call and
// notifies OnChange callbacks if the result differs from the current
// Config.
func (m *Manager) Reload(ctx context.Context) error {
	next, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return err
	}
	if err := m.Service.Validate(next); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	prev := m.current.Swap(next)
	if !configEqual(prev, next) {
		m.notify(next)
	}
	return nil
}

// OnChange registers cb to run after every Load/Reload that changes the
// configuration.
func (m *Manager) OnChange(cb func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func (m *Manager) notify(cfg *Config) {
	m.mu.Lock()
	cbs := make([]func(*Config), len(m.callbacks))
	copy(cbs, m.callbacks)
	m.mu.Unlock()
	for _, cb := range cbs {
		cb(cfg)
	}
}

// Close stops watching every source and releases their resources.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.cancel()
	return nil
}
