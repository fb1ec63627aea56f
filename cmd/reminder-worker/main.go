// Command reminder-worker scans upcoming calendar events on an
// interval and publishes a reminder message to RabbitMQ for each event
// that is due within the configured lead time.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"cashbook/internal/amqp"
	"cashbook/internal/api"
	"cashbook/internal/cli"
	"cashbook/internal/log"
	"cashbook/internal/timeutil"
	"cashbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger = logger.WithComponent(log.ComponentWorker)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the reminder worker")
		os.Exit(1)
	}

	zone, err := timeutil.LoadZone(cfg.DisplayTimezone)
	if err != nil {
		logger.Error("Failed to load display timezone", "error", err)
		os.Exit(1)
	}

	client, err := api.New(api.Config{
		BaseURL:   cfg.APIBaseURL,
		AuthToken: cfg.APIAuthToken,
		OrgID:     cfg.OrgID,
		UserID:    cfg.UserID,
		Timezone:  zone,
	})
	if err != nil {
		logger.Error("Failed to create API client", "error", err)
		os.Exit(1)
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}

	w := worker.NewReminderWorker(client, queue, zone, cfg.ReminderLeadTime)

	logger.Info("Reminder worker starting",
		"scan_interval", cfg.ReminderScanInterval.String(),
		"lead_time", cfg.ReminderLeadTime.String(),
		"queue", cfg.AMQPQueue)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		if err := queue.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", "error", err)
		}
	})

	go func() {
		if err := w.Run(ctx, cfg.ReminderScanInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
