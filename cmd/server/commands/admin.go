package commands

import (
	"context"
	"fmt"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/config"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	username  string
	accessKey string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Создать таблицы и индексы в PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd)
	},
}

var adduserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Создать пользователя",
	Long: `Создать пользователя и вывести его ключ доступа.

Примеры:
  socialgraph adduser --username alice              # ключ сгенерируется
  socialgraph adduser --username bob --key xyz      # заданный ключ`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddUser(cmd)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпустить JWT для ключа доступа",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToken(cmd)
	},
}

func init() {
	adduserCmd.Flags().StringVar(&username, "username", "", "имя пользователя")
	adduserCmd.Flags().StringVar(&accessKey, "key", "", "ключ доступа; по умолчанию генерируется")
	_ = adduserCmd.MarkFlagRequired("username")

	tokenCmd.Flags().StringVar(&accessKey, "key", "", "ключ доступа пользователя")
	_ = tokenCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(migrateCmd, adduserCmd, tokenCmd)
}

func postgresConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Type != config.StoragePostgres {
		return nil, errors.New("команда работает только с storage.type=postgres")
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command) error {
	cfg, err := postgresConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	// openStorage применяет миграции и seed
	store, err := openStorage(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "Миграции применены")
	return nil
}

func runAddUser(cmd *cobra.Command) error {
	cfg, err := postgresConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	key := accessKey
	if key == "" {
		key = uuid.NewString()
	}
	user := &models.User{Username: username, AccessKey: key}
	if err := createUser(ctx, store, user); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "id: %d\nusername: %s\naccess_key: %s\n", user.ID, user.Username, user.AccessKey)
	return nil
}

func createUser(ctx context.Context, store storage.Storage, user *models.User) error {
	sess, err := store.Session(ctx)
	if err != nil {
		return err
	}
	defer sess.Release()
	return sess.CreateUser(ctx, user)
}

func runToken(cmd *cobra.Command) error {
	cfg, err := postgresConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Session(ctx)
	if err != nil {
		return err
	}
	defer sess.Release()

	user, err := sess.GetUserByAccessKey(ctx, accessKey)
	if err != nil {
		return errors.Wrap(err, "ключ доступа не найден")
	}
	token, err := access.NewIssuer(cfg.Access.JWTSecret, cfg.Access.JWTTTL).Issue(user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
