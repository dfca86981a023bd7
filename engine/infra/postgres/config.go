package postgres

import (
	"fmt"
	"time"

	"github.com/pyspur-dev/workflow-engine/pkg/config"
)

// Config holds PostgreSQL connection settings for the driver.
// Prefer providing a DSN via ConnString. When empty, a DSN will be
// synthesized from the individual fields.
type Config struct {
	ConnString string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// dsn returns cfg.ConnString verbatim when set, otherwise synthesizes a
// libpq connection string from the individual fields.
func dsn(cfg *Config) string {
	if cfg.ConnString != "" {
		return cfg.ConnString
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode,
	)
}

// FromAppConfig builds a driver Config from the application's DatabaseConfig.
func FromAppConfig(db *config.DatabaseConfig) *Config {
	return &Config{
		ConnString: db.ConnString,
		Host:       db.Host,
		Port:       db.Port,
		User:       db.User,
		Password:   string(db.Password),
		DBName:     db.DBName,
		SSLMode:    db.SSLMode,
	}
}
