package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoGangH/logit-admin/internal/cmd/migrate"
	"github.com/GoGangH/logit-admin/internal/cmd/serve"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "logit-admin",
		Usage: "Admin API for the logit career-coaching product",
		Commands: []*cli.Command{
			serve.Command(),
			migrate.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
