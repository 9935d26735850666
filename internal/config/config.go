package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ListenAddr  string
	Store       string // postgres | memory
	DatabaseURL string
	UserAgent   string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := Config{
		Env:         getenv("APP_ENV", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		Store:       getenv("STORE", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		UserAgent:   getenv("USER_AGENT", "harvest/1.0"),
	}
	if cfg.Store == "postgres" && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
	}
	return cfg, nil
}
