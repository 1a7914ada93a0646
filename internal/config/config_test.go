package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  read_header_timeout: 3s
storage:
  type: postgres
postgres:
  dsn: postgres://localhost/social
access:
  demo_token: valid_access_key
  strict_user_lookup: true
seed:
  users:
    - username: alice
      access_key: abc
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/social", cfg.Postgres.DSN)
	assert.Equal(t, "valid_access_key", cfg.Access.DemoToken)
	assert.True(t, cfg.Access.StrictUserLookup)
	assert.Equal(t, []SeedUser{{Username: "alice", AccessKey: "abc"}}, cfg.Seed.Users)

	// значения по умолчанию
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, 20, cfg.GraphQL.DefaultPageSize)
	assert.Equal(t, 24*time.Hour, cfg.Access.JWTTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Empty(t, cfg.Access.DemoToken)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "access:\n  demo_token: from_file\n")
	t.Setenv("SOCIALGRAPH_DEMO_TOKEN", "from_env")
	t.Setenv("SOCIALGRAPH_JWT_SECRET", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Access.DemoToken)
	assert.Equal(t, "secret", cfg.Access.JWTSecret)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "server: [", "разбор конфигурации"},
		{"unknown storage", "storage:\n  type: redis\n", "неизвестный тип хранилища"},
		{"postgres without dsn", "storage:\n  type: postgres\n", "postgres.dsn"},
		{"page size", "graphql:\n  default_page_size: 500\n", "default_page_size"},
		{"seed without key", "seed:\n  users:\n    - username: alice\n", "access_key"},
		{"seed duplicate", "seed:\n  users:\n    - {username: a, access_key: k}\n    - {username: b, access_key: k}\n", "повторяется"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
