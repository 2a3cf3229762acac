// Package config loads the process-level configuration for the engine
// binary: where its data directory lives, which ports it binds, and how
// verbosely it logs. Mutable policy (restart/monitor/uptime rules) is not
// part of this struct — it round-trips through the Durable Store instead,
// per the single-writer design in internal/store.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process-level configuration, sourced from the environment
// (optionally seeded by a .env file) with the same env-tag/default shape
// the teacher codebase uses for its build-time config structs.
type Config struct {
	DataDir        string `env:"DATA_DIR" default:"./data"`
	ManagementPort int    `env:"MANAGEMENT_PORT" default:"8080"`
	MetricsPort    int    `env:"METRICS_PORT" default:"9090"`
	LogLevel       string `env:"LOG_LEVEL" default:"info"`
	DockerHost     string `env:"DOCKER_HOST" default:""`

	// FilePerm/DirPerm govern permissions used when the Durable Store
	// creates artifacts and the data directory itself.
	FilePerm os.FileMode
	DirPerm  os.FileMode
}

const (
	defaultFilePerm os.FileMode = 0o644
	defaultDirPerm  os.FileMode = 0o755
)

// Load reads configuration from the environment, optionally loading a
// .env file first (missing .env is not an error — matches godotenv's own
// convention of silently skipping when absent).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:        getEnv("DATA_DIR", "./data"),
		ManagementPort: 8080,
		MetricsPort:    9090,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DockerHost:     getEnv("DOCKER_HOST", ""),
	}

	if v := os.Getenv("MANAGEMENT_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid MANAGEMENT_PORT %q: %w", v, err)
		}
		cfg.ManagementPort = p
	}

	if v := os.Getenv("METRICS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid METRICS_PORT %q: %w", v, err)
		}
		cfg.MetricsPort = p
	}

	filePerm, err := parsePerm("FILE_PERM", defaultFilePerm)
	if err != nil {
		return nil, err
	}
	dirPerm, err := parsePerm("DIR_PERM", defaultDirPerm)
	if err != nil {
		return nil, err
	}
	cfg.FilePerm = filePerm
	cfg.DirPerm = dirPerm

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePerm(key string, fallback os.FileMode) (os.FileMode, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(v, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return os.FileMode(parsed), nil
}
