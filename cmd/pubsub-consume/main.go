// Command pubsub-consume runs a consume loop against the configured
// broker and prints every payload it receives. It exits cleanly on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/gobus/config"
	"github.com/shandysiswandi/gobus/pubsub"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the config file")
		deadLetter = flag.String("dead-letter", "", "optional dead letter topic for failed payloads")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewViper(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	defer cfg.Close()

	client, err := pubsub.New(pubsub.BrokerFromConfig(cfg), pubsub.OptionsFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	var opts []pubsub.ConsumeOption
	if *deadLetter != "" {
		opts = append(opts, pubsub.WithDeadLetter(*deadLetter))
	}

	err = pubsub.WithClient(ctx, client, func(ctx context.Context, c pubsub.Client) error {
		return c.Consume(ctx, func(ctx context.Context, payload []byte) error {
			slog.InfoContext(ctx, "received", "payload", string(payload))
			return nil
		}, opts...)
	})
	if err != nil {
		slog.Error("consume failed", "error", err)
		os.Exit(1)
	}
}
