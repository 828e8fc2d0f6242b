package main

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// config is everything the server reads from the environment at startup.
type config struct {
	DBURL                string
	Addr                 string
	Location             *time.Location
	FetchTimeout         time.Duration
	FoodFetchConcurrency int
	PreloadFoodCatalog   bool
}

var errMissingDBURL = errors.New("DB_URL is required")

// loadConfig reads .env (if present) and then the process environment.
// Malformed optional values fall back to their defaults with a log line.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] could not read .env: %v", err)
	}

	cfg := config{
		DBURL:                strings.TrimSpace(os.Getenv("DB_URL")),
		Addr:                 getEnv("ADDR", "localhost:3000"),
		Location:             loadLocation(getEnv("TZ", "UTC")),
		FetchTimeout:         getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FoodFetchConcurrency: getEnvInt("FOOD_FETCH_CONCURRENCY", 8),
		PreloadFoodCatalog:   getEnvBool("PRELOAD_FOOD_CATALOG", true),
	}
	if cfg.DBURL == "" {
		return cfg, errMissingDBURL
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %t", key, raw, fallback)
		return fallback
	}
	return b
}

// loadLocation resolves an IANA zone name. Unknown names fall back to UTC.
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[config] unknown time zone %q, using UTC", name)
		return time.UTC
	}
	return loc
}
