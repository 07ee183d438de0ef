package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the application configuration.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Track  TrackConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string
}

// RedisConfig holds the connection settings for the backing store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TrackConfig holds the location-notification settings.
type TrackConfig struct {
	// ChannelPrefix is prepended to the member name to form the
	// per-member publish channel.
	ChannelPrefix string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       db,
		},
		Track: TrackConfig{
			ChannelPrefix: getEnv("TRACK_CHANNEL_PREFIX", "geotrack:"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
