package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ButyrinIA/socialgraph/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_StorageOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: memory\n"), 0o600))

	configPath, storageType = path, ""
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Type)

	// postgres без dsn не проходит проверку
	storageType = config.StoragePostgres
	t.Setenv("SOCIALGRAPH_POSTGRES_DSN", "")
	_, err = loadConfig()
	assert.Error(t, err)
	storageType = ""
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	log, err := newLogger(cfg)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	cfg.Log.Level = "verbose"
	_, err = newLogger(cfg)
	assert.Error(t, err)
}

func TestOpenStorage_Seed(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Type = config.StorageMemory
	cfg.Seed.Users = []config.SeedUser{{Username: "alice", AccessKey: "abc"}}

	store, err := openStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	defer sess.Release()
	user, err := sess.GetUserByAccessKey(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAdminCommands_RequirePostgres(t *testing.T) {
	configPath, storageType = "", config.StorageMemory
	defer func() { storageType = "" }()

	_, err := postgresConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
