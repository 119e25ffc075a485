package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	dbFileName = "taskboard.db"
	envFile    = ".env"

	EnvPath        = "TASKBOARD_PATH"
	EnvDatabaseURL = "TASKBOARD_DATABASE_URL"
	EnvRedisURL    = "TASKBOARD_REDIS_URL"
	EnvUser        = "TASKBOARD_USER"
)

// Config holds resolved configuration for the data directory, the database,
// the board cache and the acting user.
type Config struct {
	DataDir     string // resolved .taskboard directory path
	DBPath      string // full path to taskboard.db
	EnvVarSet   bool   // whether TASKBOARD_PATH was used
	DatabaseURL string // postgres:// URL; empty means the SQLite file
	RedisURL    string // board cache; empty disables caching
	User        string // acting user
	UserFromEnv bool   // whether TASKBOARD_USER was used
}

// Resolve returns the current configuration. A .env file in the working
// directory is read first, then one in the data directory; neither overrides
// variables already set in the environment. The data directory comes from
// TASKBOARD_PATH, falling back to $PWD/.taskboard.
func Resolve() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := loadEnvFile(filepath.Join(cwd, envFile)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if envPath := os.Getenv(EnvPath); envPath != "" {
		cfg.DataDir = envPath
		cfg.EnvVarSet = true
	} else {
		cfg.DataDir = filepath.Join(cwd, ".taskboard")
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, dbFileName)

	if err := loadEnvFile(filepath.Join(cfg.DataDir, envFile)); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = os.Getenv(EnvDatabaseURL)
	cfg.RedisURL = os.Getenv(EnvRedisURL)
	if u := strings.TrimSpace(os.Getenv(EnvUser)); u != "" {
		cfg.User = u
		cfg.UserFromEnv = true
	} else {
		cfg.User = DefaultUser()
	}
	return cfg, nil
}

// loadEnvFile applies a dotenv file without overriding existing variables.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// DSN returns what db.Open should be given: the database URL when one is
// configured, the SQLite file path otherwise.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// UsesFile reports whether the database is the local SQLite file.
func (c *Config) UsesFile() bool {
	return c.DatabaseURL == ""
}

// Exists checks if the data directory and DB file both exist.
// It returns an error for non-existence failures (e.g. permission errors).
func (c *Config) Exists() (bool, error) {
	if _, err := os.Stat(c.DataDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := os.Stat(c.DBPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var (
	defaultUser     string
	defaultUserOnce sync.Once
)

// DefaultUser returns the user to act as when TASKBOARD_USER is unset.
// It tries git config user.name first and falls back to the OS username.
// The result is cached for the lifetime of the process.
func DefaultUser() string {
	defaultUserOnce.Do(func() {
		defaultUser = resolveUser()
	})
	return defaultUser
}

func resolveUser() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}

	u, err := user.Current()
	if err == nil && u.Username != "" {
		return u.Username
	}

	return "unknown"
}
