package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mapping-editor/internal/api"
	"mapping-editor/internal/auth"
	"mapping-editor/internal/collab"
	"mapping-editor/internal/config"
	"mapping-editor/internal/journal"
	"mapping-editor/internal/logger"
	"mapping-editor/internal/session"
	"mapping-editor/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("config loaded",
		zap.Int("port", cfg.Server.Port),
		zap.String("collaborator", cfg.Collaborator.BaseURL),
		zap.Bool("journal", cfg.Journal.Enabled),
	)

	// 2. Collaborator client
	client := collab.NewClient(cfg.Collaborator.BaseURL, cfg.Collaborator.Timeout())

	// 3. Activity journal
	var recorder journal.Recorder = journal.Noop{}
	var db *store.Store
	if cfg.Journal.Enabled {
		db, err = store.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Bootstrap(ctx); err != nil {
			return err
		}
		journal.Cleanup(ctx, db.DB, db.Dialect, cfg.Journal.RetentionDays)

		buffer := journal.NewBuffer(db, cfg.Journal.BufferSize, cfg.Journal.FlushInterval())
		defer buffer.Stop()
		recorder = buffer
		logger.Info("journal ready", zap.String("driver", db.Dialect.Name()))
	}

	// 4. Sessions
	manager := session.NewManager(client,
		session.WithJournal(recorder),
		session.WithHideDelay(cfg.Hover.HideDelay()),
	)
	defer manager.CloseAll()

	reaper := session.NewReaper(manager, cfg.Session.ReapInterval(), cfg.Session.IdleTimeout())
	reaper.Start()
	defer reaper.Stop()

	// 5. Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          api.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": manager.Len()})
	})

	var authn fiber.Handler
	if cfg.Auth.Enabled {
		authn = auth.Middleware(cfg.JWTSecret)
	}
	api.RegisterRoutes(app, api.NewHandler(manager, client, db), authn)

	// 6. Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("starting server", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.ShutdownWithContext(context.Background())
	}
}
