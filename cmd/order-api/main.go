package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/EmanElbedwihy/OMS/cmd/order-api/app"
	"github.com/EmanElbedwihy/OMS/configs"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "order-api:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		return err
	}

	logger := logging.Init(logging.Options{
		Component: cfg.App.Name,
		File:      cfg.App.LogFile,
		Level:     cfg.App.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := app.InitWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("order-api starting", "env", env, "addr", cfg.App.HTTPAddr)
	return a.Run(ctx)
}
