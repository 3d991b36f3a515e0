package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the server
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Game   GameConfig
}

// ServerConfig holds HTTP/websocket listener configuration
type ServerConfig struct {
	Port     string
	LogLevel string
}

// RedisConfig holds Redis-specific configuration. Addr may be empty, in
// which case rooms live in memory only.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GameConfig holds tunables for field generation and the turn loop
type GameConfig struct {
	FieldSize        int
	ShopStands       int
	BossHealInterval time.Duration
	BossHealFraction float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvOrDefault("PORT", "8080"),
			LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Game: GameConfig{
			FieldSize:        getEnvAsIntOrDefault("FIELD_SIZE", 25),
			ShopStands:       getEnvAsIntOrDefault("SHOP_STANDS", 4),
			BossHealInterval: getEnvAsDurationOrDefault("BOSS_HEAL_INTERVAL", 30*time.Second),
			BossHealFraction: 0.1,
		},
	}

	if cfg.Game.FieldSize < 9 {
		return nil, fmt.Errorf("FIELD_SIZE must be at least 9, got %d", cfg.Game.FieldSize)
	}
	if cfg.Game.ShopStands < 1 {
		return nil, fmt.Errorf("SHOP_STANDS must be at least 1, got %d", cfg.Game.ShopStands)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
