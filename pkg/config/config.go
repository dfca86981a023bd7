// Package config loads and validates the engine's runtime configuration
// from layered sources (defaults, YAML file, environment, CLI flags),
// resolved through koanf in declared precedence order.
package config

import "time"

// Config is the engine's full runtime configuration tree.
type Config struct {
	Mode     string         `koanf:"mode"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Temporal TemporalConfig `koanf:"temporal"`
	Runtime  RuntimeConfig  `koanf:"runtime"`
	Limits   LimitsConfig   `koanf:"limits"`
	Cache    CacheConfig    `koanf:"cache"`
	Redis    RedisConfig    `koanf:"redis"`
}

// ServerConfig configures the controller's inbound surface (CLI-invoked
// in-process today; an HTTP listener is a plausible later addition).
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	CORSEnabled bool          `koanf:"cors_enabled"`
	Timeout     time.Duration `koanf:"timeout"`
}

// DatabaseConfig configures the Postgres connection backing the task,
// run, workflow and session repositories. ConnString wins when set;
// otherwise a DSN is synthesized from the individual fields.
type DatabaseConfig struct {
	// Driver overrides the mode-derived choice between "sqlite" and
	// "postgres" (see Config.EffectiveDatabaseDriver).
	Driver     string          `koanf:"driver"`
	ConnString string          `koanf:"conn_string"`
	Host       string          `koanf:"host"`
	Port       string          `koanf:"port"`
	User       string          `koanf:"user"`
	Password   SensitiveString `koanf:"password"`
	DBName     string          `koanf:"db_name"`
	SSLMode    string          `koanf:"ssl_mode"`
}

// TemporalConfig configures the durable-execution backend the scheduler
// runs on.
type TemporalConfig struct {
	// Mode overrides Config.Mode for the Temporal connection specifically
	// (see Config.EffectiveTemporalMode).
	Mode      string `koanf:"mode"`
	HostPort  string `koanf:"host_port"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// RuntimeConfig configures process-level behavior: logging, dispatcher
// heartbeats, and the async token-counting worker pool used by the agent
// node category.
type RuntimeConfig struct {
	Environment                 string        `koanf:"environment"`
	LogLevel                    string        `koanf:"log_level"`
	DispatcherHeartbeatInterval time.Duration `koanf:"dispatcher_heartbeat_interval"`
	DispatcherHeartbeatTTL      time.Duration `koanf:"dispatcher_heartbeat_ttl"`
	DispatcherStaleThreshold    time.Duration `koanf:"dispatcher_stale_threshold"`
	AsyncTokenCounterWorkers    int           `koanf:"async_token_counter_workers"`
	AsyncTokenCounterBufferSize int           `koanf:"async_token_counter_buffer_size"`
}

// LimitsConfig bounds resource consumption per run: template nesting,
// string sizes, and task-tree traversal depth.
type LimitsConfig struct {
	MaxNestingDepth       int `koanf:"max_nesting_depth"`
	MaxStringLength       int `koanf:"max_string_length"`
	MaxMessageContent     int `koanf:"max_message_content"`
	MaxTotalContentSize   int `koanf:"max_total_content_size"`
	MaxTaskContextDepth   int `koanf:"max_task_context_depth"`
	ParentUpdateBatchSize int `koanf:"parent_update_batch_size"`
}

// CacheConfig configures the Redis-backed response/status cache, kept
// distinct from RedisConfig since cache policy (TTL, eviction) is
// orthogonal to connection settings.
type CacheConfig struct {
	Enabled              bool          `koanf:"enabled"`
	TTL                  time.Duration `koanf:"ttl"`
	Prefix               string        `koanf:"prefix"`
	MaxItemSize          int64         `koanf:"max_item_size"`
	CompressionEnabled   bool          `koanf:"compression_enabled"`
	CompressionThreshold int64         `koanf:"compression_threshold"`
	EvictionPolicy       string        `koanf:"eviction_policy"`
	StatsInterval        time.Duration `koanf:"stats_interval"`
	KeyScanCount         int           `koanf:"key_scan_count"`
}

// RedisConfig configures the connection used for the distributed resume
// lock and run-status pub/sub (engine/infra/cache).
type RedisConfig struct {
	// Mode overrides Config.Mode for Redis specifically (see
	// Config.EffectiveRedisMode).
	Mode       string                `koanf:"mode"`
	Host       string                `koanf:"host"`
	Port       string                `koanf:"port"`
	Password   SensitiveString       `koanf:"password"`
	DB         int                   `koanf:"db"`
	Standalone RedisStandaloneConfig `koanf:"standalone"`
}

// RedisStandaloneConfig configures the embedded miniredis server used by
// ModeMemory and ModePersistent, where no external Redis is available.
type RedisStandaloneConfig struct {
	Persistence RedisPersistenceConfig `koanf:"persistence"`
}

// RedisPersistenceConfig configures BadgerDB-backed snapshotting of the
// embedded miniredis server, so a standalone run survives a restart.
type RedisPersistenceConfig struct {
	Enabled            bool          `koanf:"enabled"`
	DataDir            string        `koanf:"data_dir"`
	SnapshotInterval   time.Duration `koanf:"snapshot_interval"`
	RestoreOnStartup   bool          `koanf:"restore_on_startup"`
	SnapshotOnShutdown bool          `koanf:"snapshot_on_shutdown"`
}

// Default returns the configuration used when no source overrides a
// field.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5001,
			CORSEnabled: true,
			Timeout:     30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "compozy",
			SSLMode: "disable",
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "compozy-tasks",
		},
		Runtime: RuntimeConfig{
			Environment:                 "development",
			LogLevel:                    "info",
			DispatcherHeartbeatInterval: 30 * time.Second,
			DispatcherHeartbeatTTL:      90 * time.Second,
			DispatcherStaleThreshold:    120 * time.Second,
			AsyncTokenCounterWorkers:    4,
			AsyncTokenCounterBufferSize: 100,
		},
		Limits: LimitsConfig{
			MaxNestingDepth:       20,
			MaxStringLength:       10485760,
			MaxMessageContent:     10240,
			MaxTotalContentSize:   102400,
			MaxTaskContextDepth:   5,
			ParentUpdateBatchSize: 100,
		},
		Cache: CacheConfig{
			Enabled:              true,
			TTL:                  24 * time.Hour,
			Prefix:               "compozy:cache:",
			MaxItemSize:          1048576,
			CompressionEnabled:   true,
			CompressionThreshold: 1024,
			EvictionPolicy:       "lru",
			StatsInterval:        5 * time.Minute,
			KeyScanCount:         100,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
			Standalone: RedisStandaloneConfig{
				Persistence: RedisPersistenceConfig{
					Enabled:            false,
					DataDir:            "./.data/redis-snapshots",
					SnapshotInterval:   5 * time.Minute,
					RestoreOnStartup:   true,
					SnapshotOnShutdown: true,
				},
			},
		},
	}
}

func configEqual(a, b *Config) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
