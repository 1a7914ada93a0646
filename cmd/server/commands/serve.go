package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/socialgraph/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить GraphQL-сервер",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Access.DemoToken == "" {
		log.Warn("access.demo_token is empty, allUsers is denied for everyone")
	}

	srv, err := server.New(cfg, store, log)
	if err != nil {
		return err
	}
	log.Info("Запуск сервера", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Type))
	return srv.Run(ctx)
}
