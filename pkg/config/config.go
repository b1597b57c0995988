package config

import "time"

// Config is the root application configuration. Defaults come from the
// structs provider; DISPATCH_* environment variables override them.
type Config struct {
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Database  DatabaseConfig  `koanf:"database"  validate:"required"`
	Geocoding GeocodingConfig `koanf:"geocoding" validate:"required"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Limits    LimitsConfig    `koanf:"limits"    validate:"required"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"gte=1,lte=65535"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string `koanf:"host"         validate:"required"`
	Port        int    `koanf:"port"         validate:"gte=1,lte=65535"`
	User        string `koanf:"user"         validate:"required"`
	Password    string `koanf:"password"`
	Name        string `koanf:"name"         validate:"required"`
	SSLMode     string `koanf:"ssl_mode"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// GeocodingConfig holds the external lookup settings.
type GeocodingConfig struct {
	Endpoint  string        `koanf:"endpoint"   validate:"required,url"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
	Timeout   time.Duration `koanf:"timeout"    validate:"gt=0"`
	CacheSize int           `koanf:"cache_size" validate:"gt=0"`
	Country   string        `koanf:"country"`
}

// RateLimitConfig throttles the ingestion endpoints.
type RateLimitConfig struct {
	Enabled bool   `koanf:"enabled"`
	Rate    string `koanf:"rate"`
}

// LimitsConfig holds business-rule thresholds.
type LimitsConfig struct {
	MinMessageLength int `koanf:"min_message_length" validate:"gt=0"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "dispatch",
			Name:    "dispatch",
			SSLMode: "disable",
		},
		Geocoding: GeocodingConfig{
			Endpoint:  "https://nominatim.openstreetmap.org",
			UserAgent: "dispatch-server/1.0",
			Timeout:   10 * time.Second,
			CacheSize: 1000,
			Country:   "Россия",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Rate:    "30-M",
		},
		Limits: LimitsConfig{
			MinMessageLength: 10,
		},
	}
}
