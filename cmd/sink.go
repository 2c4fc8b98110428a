package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobboard/domain"
	"jobboard/infrastructure"
	"jobboard/logger"
	"jobboard/service"
)

var (
	sinkBatchSize  int
	sinkFlushEvery time.Duration
	sinkBuffer     int
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Store lifecycle events from NATS in ClickHouse",
	RunE:  runSink,
}

func init() {
	sinkCmd.Flags().IntVar(&sinkBatchSize, "batch-size", 100, "events per ClickHouse insert")
	sinkCmd.Flags().DurationVar(&sinkFlushEvery, "flush-every", 5*time.Second, "flush a partial batch after this long")
	sinkCmd.Flags().IntVar(&sinkBuffer, "buffer", 1024, "events held in memory before new ones are dropped")
}

func runSink(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	log := logger.ComponentLogger("sink")
	if cfg.Events.NATSURL == "" {
		return errors.New("events.nats_url is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := infrastructure.NewClickHouseSink(cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.CreateTable(ctx); err != nil {
		return err
	}

	bus, err := infrastructure.NewNATSEventBus(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger.ComponentLogger("events"))
	if err != nil {
		return err
	}
	defer bus.Close()

	events := make(chan domain.Event, sinkBuffer)
	sub, err := bus.Subscribe(func(e domain.Event) {
		select {
		case events <- e:
		default:
			log.Warnw("Event dropped, sink is behind", "subject", e.Type, "job_id", e.JobID)
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Infow("Sink started", "table", cfg.ClickHouse.Table, "subject", bus.Subject(">"))
	sink := &service.EventSink{
		Writer:     store,
		BatchSize:  sinkBatchSize,
		FlushEvery: sinkFlushEvery,
		Log:        log,
	}
	sink.Run(ctx, events)
	return nil
}
