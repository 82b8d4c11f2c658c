package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/config"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/router"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/database"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-engine-oil", "env", cfg.Env, "addr", cfg.Server.Addr())

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, sqlDB); err != nil {
			sugar.Fatalf("db migrate: %v", err)
		}
		sugar.Info("database schema is up to date")
	}

	// wrap with sqlx for the repositories
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.RegisterRoutes(sugar, cfg, sqlxDB),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infof("listening on %s; press Ctrl+C to stop", srv.Addr)

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
