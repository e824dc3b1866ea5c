package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/krozgrov/nestwire/internal/daemon"
	"github.com/krozgrov/nestwire/internal/logging"
)

func main() {
	configPath := flag.String("config", "nestwd.toml", "path to the nestwd config file")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nestwd: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := daemon.NewService(cfg)
	if err := svc.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "nestwd: %v\n", err)
		os.Exit(1)
	}
}
