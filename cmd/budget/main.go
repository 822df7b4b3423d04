package main

import (
	"context"
	"os"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/commands"
	"budget/internal/log"
	"budget/internal/services"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()

	root := commands.NewRootCommand(open, version)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func open(ctx context.Context, notifier services.Notifier) (*services.TransactionService, func() error, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, os.Stderr)

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Change events disabled", log.FieldError, err)
		} else {
			publisher = amqpClient
		}
	}

	svc, err := cli.OpenService(ctx, cfg, logger, publisher, notifier)
	if err != nil {
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		return nil, nil, err
	}

	closeFn := func() error {
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		return svc.Close()
	}
	return svc.TransactionService, closeFn, nil
}
