package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/unlimited-chat/chatbilling/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if err := app.Migrate(ctx, *configPath); err != nil {
			log.Errorf("migration failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := app.RunServer(ctx, *configPath); err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
