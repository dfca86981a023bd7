package config

import (
	"context"
	"fmt"
	"sync"
)

var (
	globalMu      sync.Mutex
	globalManager *Manager
	initialized   bool
)

// Initialize loads the process-wide Config from sources and stores it
// for Get/OnChange/Reload. Subsequent calls are no-ops so that importing
// packages can each call Initialize defensively without clobbering
// whichever caller ran first.
func Initialize(ctx context.Context, svc Service, sources ...Source) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if initialized {
		return nil
	}
	m := NewManager(svc)
	if _, err := m.Load(ctx, sources...); err != nil {
		return fmt.Errorf("failed to initialize global config: %w", err)
	}
	globalManager = m
	initialized = true
	return nil
}

// Get returns the process-wide Config. It panics if Initialize has not
// been called — every entrypoint must initialize configuration before
// touching any component that depends on it.
func Get() *Config {
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m == nil {
		panic("config: Get called before Initialize")
	}
	return m.Get()
}

// OnChange registers a callback for process-wide config changes. Panics
// under the same precondition as Get.
func OnChange(cb func(*Config)) {
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m == nil {
		panic("config: OnChange called before Initialize")
	}
	m.OnChange(cb)
}

// Reload re-reads the process-wide Config from its original sources.
// Panics under the same precondition as Get.
func Reload(ctx context.Context) error {
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m == nil {
		panic("config: Reload called before Initialize")
	}
	return m.Reload(ctx)
}

// Close releases the process-wide Config's watch resources. Safe to
// call more than once, and safe to call before Initialize.
func Close(ctx context.Context) error {
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m == nil {
		return nil
	}
	return m.Close(ctx)
}

// resetForTest clears global state between test cases; only this
// package's tests call it.
func resetForTest() {
	globalMu.Lock()
	defer globalMu.Unlock()
	initialized = false
	globalManager = nil
}
