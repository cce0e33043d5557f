package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfg "csvgate/src/configuration"
	server "csvgate/src/server"

	log "github.com/sirupsen/logrus"
)

func main() {
	config, err := cfg.ReadProperties()
	if err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging(config.LogLevel)
	if err := config.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.RunServer(ctx, config); err != nil {
		log.Fatal(err)
	}
}
