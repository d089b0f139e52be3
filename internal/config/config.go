package config

import "github.com/kelseyhightower/envconfig"

// Pagination sizes shared by the storage queries and the handlers.
const (
	MessagesPerPage = 15
	UsersPerPage    = 5
)

// Config holds every process-level setting. Values come from the environment
// (optionally seeded from a .env file by cmd/main.go).
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"user"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"chatdb"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// AuthServiceURL points at the external identity provider. When empty the
	// server falls back to locally issued JWTs (dev mode).
	AuthServiceURL string `envconfig:"AUTH_SERVICE_URL" default:""`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
