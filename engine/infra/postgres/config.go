package postgres

import (
	"fmt"

	appconfig "github.com/fieldops/dispatch/pkg/config"
)

// Config holds PostgreSQL connection settings for the driver.
// Prefer providing a DSN via ConnString. When empty, a DSN will be
// synthesized from the individual fields.
type Config struct {
	ConnString string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
}

// FromAppConfig maps the application database section onto the driver
// config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	db := cfg.Database
	return &Config{
		Host:     db.Host,
		Port:     db.Port,
		User:     db.User,
		Password: db.Password,
		DBName:   db.Name,
		SSLMode:  db.SSLMode,
	}
}

func dsn(cfg *Config) string {
	if cfg.ConnString != "" {
		return cfg.ConnString
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, sslMode)
}

// DSN exposes the synthesized connection string for migrations and tools.
func (c *Config) DSN() string { return dsn(c) }
