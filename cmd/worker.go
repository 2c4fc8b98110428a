package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobboard/domain"
	"jobboard/infrastructure"
	"jobboard/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued application notifications over SMTP",
	Long: `Consume the RabbitMQ notification queue filled by "serve" when
notify.transport is rabbitmq, and send each message through the configured
SMTP server. A failed send is retried once, then moved to the
<queue>.failed dead-letter queue.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	log := logger.ComponentLogger("worker")

	rmq, err := infrastructure.NewRabbitMQ(cfg.Notify.RabbitMQURL, cfg.Notify.Queue, log)
	if err != nil {
		return err
	}
	defer rmq.Close()

	mailer := infrastructure.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("Worker started", "queue", cfg.Notify.Queue, "address", mailer.Addr)
	return rmq.Consume(ctx, func(ctx context.Context, n domain.Notification) error {
		if err := mailer.Dispatch(ctx, n); err != nil {
			return err
		}
		log.Infow("Notification sent", "subject", n.Subject, "address", n.Recipients)
		return nil
	})
}
