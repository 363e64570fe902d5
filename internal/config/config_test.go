package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsim/internal/store"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load(Source{LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectDelay)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", "backend: bolt\npath: ws.bolt\nconnect_delay: 250ms\n")

	cfg, err := Load(Source{File: path, EnvFile: writeFile(t, dir, "none.env", ""), LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, store.BackendBolt, cfg.Backend)
	assert.Equal(t, "ws.bolt", cfg.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectDelay)
	assert.Equal(t, store.DefaultScope, cfg.Scope, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Source{File: filepath.Join(t.TempDir(), "missing.yaml"), LookupEnv: noEnv})
	assert.Error(t, err)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(Source{
		File:      writeFile(t, dir, "cfg.yaml", ""),
		EnvFile:   filepath.Join(dir, "missing.env"),
		LookupEnv: noEnv,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "cfg.yaml", "backend: bolt\npath: from-file\nscope: file\n")
	envFile := writeFile(t, dir, "test.env", "DBSIM_PATH=from-dotenv\nDBSIM_SCOPE=dotenv\n")

	cfg, err := Load(Source{
		File:      file,
		EnvFile:   envFile,
		LookupEnv: envMap(map[string]string{"DBSIM_SCOPE": "process"}),
	})
	require.NoError(t, err)
	assert.Equal(t, store.BackendBolt, cfg.Backend)
	assert.Equal(t, "from-dotenv", cfg.Path)
	assert.Equal(t, "process", cfg.Scope)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	none := writeFile(t, dir, "none.env", "")

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"DBSIM_BACKEND": "oracle"}},
		{"bad delay", map[string]string{"DBSIM_CONNECT_DELAY": "soon"}},
		{"negative delay", map[string]string{"DBSIM_CONNECT_DELAY": "-1s"}},
		{"bad level", map[string]string{"DBSIM_LOG_LEVEL": "loud"}},
		{"sqlite without path", map[string]string{"DBSIM_PATH": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Source{File: writeFile(t, dir, "c.yaml", ""), EnvFile: none, LookupEnv: envMap(tt.env)})
			assert.Error(t, err)
		})
	}
}

func TestLoad_MemoryNeedsNoPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Source{
		File:      writeFile(t, dir, "c.yaml", "backend: memory\npath: \"\"\n"),
		EnvFile:   writeFile(t, dir, "none.env", ""),
		LookupEnv: noEnv,
	})
	require.NoError(t, err)
	assert.Equal(t, store.Options{Backend: store.BackendMemory, Scope: store.DefaultScope}, cfg.StoreOptions())
}

func TestLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}
