package config

const (
	databaseDriverSQLite   = "sqlite"
	databaseDriverPostgres = "postgres"
)

// ResolveMode returns the effective mode for one component: an explicit
// componentMode always wins, otherwise it falls back to the global
// config's Mode, defaulting to ModeMemory when neither is set.
func ResolveMode(cfg *Config, componentMode string) string {
	if componentMode != "" {
		return componentMode
	}
	if cfg != nil && cfg.Mode != "" {
		return cfg.Mode
	}
	return ModeMemory
}

// EffectiveRedisMode reports the mode the Redis-backed cache and
// distributed resume lock should run in: Redis.Mode overrides the
// global Config.Mode, which defaults to ModeMemory when unset.
func (c *Config) EffectiveRedisMode() string {
	if c == nil {
		return ModeMemory
	}
	return ResolveMode(c, c.Redis.Mode)
}

// EffectiveTemporalMode reports the mode the scheduler's durable-execution
// backend should run in. Temporal.Mode overrides the global Config.Mode;
// a distributed global mode without an explicit component override maps
// to ModeRemoteTemporal, since a distributed deployment cannot embed its
// own Temporal server.
func (c *Config) EffectiveTemporalMode() string {
	if c == nil {
		return ModeMemory
	}
	if c.Temporal.Mode != "" {
		return c.Temporal.Mode
	}
	if c.Mode == ModeDistributed {
		return ModeRemoteTemporal
	}
	return ResolveMode(c, "")
}

// EffectiveDatabaseDriver reports which SQL driver backs the task/run/
// workflow repositories: an explicit Database.Driver always wins,
// otherwise ModeDistributed selects postgres and every other mode
// (including a nil Config) selects sqlite.
func (c *Config) EffectiveDatabaseDriver() string {
	if c == nil {
		return databaseDriverSQLite
	}
	if c.Database.Driver != "" {
		return c.Database.Driver
	}
	if c.Mode == ModeDistributed {
		return databaseDriverPostgres
	}
	return databaseDriverSQLite
}
