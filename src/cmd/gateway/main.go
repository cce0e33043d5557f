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

// The reference file gateway: the API the BFF forwards /files to, storing each
// user's files in MinIO under their token subject.
func main() {
	config, err := cfg.ReadProperties()
	if err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging(config.LogLevel)
	if err := config.ValidateGateway(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.RunGateway(ctx, config); err != nil {
		log.Fatal(err)
	}
}
