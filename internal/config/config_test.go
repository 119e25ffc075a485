package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate runs the test from an empty working directory with every
// taskboard variable cleared.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() { _ = os.Chdir(prev) })
	for _, k := range []string{EnvPath, EnvDatabaseURL, EnvRedisURL, EnvUser} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	dir := isolate(t)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.DataDir != filepath.Join(cwd, ".taskboard") {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, filepath.Join(dir, ".taskboard"))
	}
	if filepath.Base(cfg.DBPath) != "taskboard.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.EnvVarSet || cfg.UserFromEnv {
		t.Error("env flags set without environment")
	}
	if !cfg.UsesFile() || cfg.DSN() != cfg.DBPath {
		t.Errorf("DSN = %q, want the db file", cfg.DSN())
	}
	if cfg.User == "" {
		t.Error("User is empty")
	}
}

func TestResolveFromEnvironment(t *testing.T) {
	isolate(t)
	data := t.TempDir()
	t.Setenv(EnvPath, data)
	t.Setenv(EnvDatabaseURL, "postgres://tb@localhost/tb")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvUser, " alice ")

	cfg, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.DataDir != data || !cfg.EnvVarSet {
		t.Errorf("DataDir = %q (env %v), want %q", cfg.DataDir, cfg.EnvVarSet, data)
	}
	if cfg.UsesFile() || cfg.DSN() != "postgres://tb@localhost/tb" {
		t.Errorf("DSN = %q", cfg.DSN())
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.User != "alice" || !cfg.UserFromEnv {
		t.Errorf("User = %q (env %v), want alice", cfg.User, cfg.UserFromEnv)
	}
}

func TestResolveLoadsDotEnv(t *testing.T) {
	dir := isolate(t)
	data := filepath.Join(dir, "store")
	writeFile(t, filepath.Join(dir, ".env"), "TASKBOARD_PATH="+data+"\nTASKBOARD_USER=carol\n")
	writeFile(t, filepath.Join(data, ".env"), "TASKBOARD_REDIS_URL=redis://cache:6379\nTASKBOARD_USER=dave\n")
	// godotenv does not override variables that are already set, so the
	// isolation blanks have to go.
	for _, k := range []string{EnvPath, EnvRedisURL, EnvUser} {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range []string{EnvPath, EnvRedisURL, EnvUser} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.DataDir != data {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, data)
	}
	if cfg.RedisURL != "redis://cache:6379" {
		t.Errorf("RedisURL = %q, want value from data dir .env", cfg.RedisURL)
	}
	if cfg.User != "carol" {
		t.Errorf("User = %q, want carol from working dir .env", cfg.User)
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "TASKBOARD_USER=fromfile\n")
	t.Setenv(EnvUser, "fromenv")

	cfg, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.User != "fromenv" {
		t.Errorf("User = %q, want fromenv", cfg.User)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DataDir: filepath.Join(dir, ".taskboard"), DBPath: filepath.Join(dir, ".taskboard", dbFileName)}

	ok, err := cfg.Exists()
	if err != nil || ok {
		t.Fatalf("Exists before init = %v, %v", ok, err)
	}
	writeFile(t, cfg.DBPath, "")
	ok, err = cfg.Exists()
	if err != nil || !ok {
		t.Errorf("Exists after init = %v, %v", ok, err)
	}
}
