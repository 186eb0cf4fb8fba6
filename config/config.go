package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type StoreDriver string

const (
	StoreRedis  StoreDriver = "redis"
	StoreMemory StoreDriver = "memory"
)

type Config struct {
	HTTPAddr string

	StoreDriver   StoreDriver
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins []string
	Debug       bool
}

// Load reads an optional .env file and then the environment
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not read .env file: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	driver := StoreDriver(strings.ToLower(envOr("STORE_DRIVER", string(StoreRedis))))
	if driver != StoreMemory {
		driver = StoreRedis
	}
	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		StoreDriver:   driver,
		RedisAddr:     envOr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 8),
		CORSOrigins:   csvOr("CORS_ORIGINS", "*"),
		Debug:         strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", k, v, def)
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
