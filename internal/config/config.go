package config

import (
	"os"
	"strconv"
)

type Config struct {
	MinPlayers               int
	MaxPlayers               int
	MaxPromptLength          int
	MaxDrawingBytes          int
	StaleAfterMinutes        int
	ReapSchedule             string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		MinPlayers:               2,
		MaxPlayers:               12,
		MaxPromptLength:          280,
		MaxDrawingBytes:          250 * 1024,
		StaleAfterMinutes:        5,
		ReapSchedule:             "*/5 * * * *",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("MIN_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 2 {
			cfg.MinPlayers = value
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.MaxPlayers = value
		}
	}
	if raw := os.Getenv("MAX_PROMPT_LENGTH"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPromptLength = value
		}
	}
	if raw := os.Getenv("MAX_DRAWING_BYTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxDrawingBytes = value
		}
	}
	if raw := os.Getenv("STALE_AFTER_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.StaleAfterMinutes = value
		}
	}
	if raw := os.Getenv("REAP_SCHEDULE"); raw != "" {
		cfg.ReapSchedule = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_TIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}
