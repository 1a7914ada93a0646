package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/ButyrinIA/socialgraph/internal/config"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/ButyrinIA/socialgraph/internal/storage/memory"
	"github.com/ButyrinIA/socialgraph/internal/storage/postgres"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	storageType string
)

var rootCmd = &cobra.Command{
	Use:   "socialgraph",
	Short: "GraphQL API для пользователей, постов, комментариев и лайков",
	Long: `socialgraph обслуживает GraphQL API поверх PostgreSQL или хранилища в памяти.

Команды:
  serve    - запустить HTTP-сервер
  migrate  - создать таблицы в PostgreSQL
  adduser  - создать пользователя и вывести его ключ доступа
  token    - выпустить JWT для ключа доступа`,
	SilenceUsage: true,
}

// Execute запускает корневую команду
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "путь к файлу конфигурации")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "тип хранилища: memory или postgres (перекрывает конфигурацию)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log.level %q", cfg.Log.Level)
	}
	zcfg.Level = level
	return zcfg.Build()
}

// openStorage открывает хранилище, применяет миграции и создает пользователей из seed
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	var store storage.Storage
	switch cfg.Storage.Type {
	case config.StoragePostgres:
		log.Info("Инициализация хранилища PostgreSQL")
		pg, err := postgres.New(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, errors.Wrap(err, "не удалось инициализировать PostgreSQL")
		}
		store = pg
	case config.StorageMemory:
		log.Info("Инициализация хранилища Memory")
		store = memory.New()
	default:
		return nil, errors.Errorf("неизвестный тип хранилища: %s", cfg.Storage.Type)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	if len(cfg.Seed.Users) > 0 {
		users := make([]*models.User, len(cfg.Seed.Users))
		for i, u := range cfg.Seed.Users {
			users[i] = &models.User{Username: u.Username, AccessKey: u.AccessKey}
		}
		if err := store.Seed(ctx, users); err != nil {
			store.Close()
			return nil, errors.Wrap(err, "seed")
		}
		log.Info("seed users applied", zap.Int("count", len(users)))
	}
	return store, nil
}
