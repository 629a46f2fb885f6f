// Command pubsub-publish publishes a sequence of example payloads to the
// configured broker. It is the producer half of a minimal end-to-end
// smoke test: run pubsub-consume first, then this command, and the
// consumer should print every payload in order.
package main

import (
	"context"
	"encoding/json"
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
		count      = flag.Int("count", 3, "number of messages to publish")
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

	err = pubsub.WithClient(ctx, client, func(ctx context.Context, c pubsub.Client) error {
		for uid := 0; uid < *count; uid++ {
			payload, err := json.Marshal(map[string]int{"uid": uid})
			if err != nil {
				return err
			}
			id, err := c.Publish(ctx, payload)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "published", "uid", uid, "id", id)
		}
		return nil
	})
	if err != nil {
		slog.Error("publish failed", "error", err)
		os.Exit(1)
	}
}
