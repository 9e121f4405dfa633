package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/athometyre/internal/config"
	"github.com/fjod/athometyre/internal/notifier"
	"github.com/fjod/athometyre/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("notifier", cfg.LogLevel)
	slog.SetDefault(log)

	var mailer notifier.Mailer
	if cfg.PostmarkToken == "" {
		log.Warn("POSTMARK_TOKEN not set, confirmations are only logged")
		mailer = &notifier.LogMailer{Log: log}
	} else {
		mailer = notifier.NewPostmarkMailer(cfg.PostmarkToken, cfg.EmailSender)
	}

	reader := notifier.NewKafkaReader(cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
	consumer := notifier.NewConsumer(reader, mailer, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("notifier consuming",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaGroupID))
	consumer.Run(ctx)
	log.Info("notifier stopped")
}
