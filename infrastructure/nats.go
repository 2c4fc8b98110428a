package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"jobboard/domain"
)

// NATSEventBus publishes lifecycle events under <prefix>.<event type>.
type NATSEventBus struct {
	nc     *nats.Conn
	prefix string
	log    *zap.SugaredLogger
}

func NewNATSEventBus(url, prefix string, log *zap.SugaredLogger) (*NATSEventBus, error) {
	nc, err := nats.Connect(url, nats.Name("jobboard"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to NATS at %s", url)
	}
	log.Infow("Connected to NATS", "address", url)
	return &NATSEventBus{nc: nc, prefix: prefix, log: log}, nil
}

// Subject returns the subject an event type is published on.
func (b *NATSEventBus) Subject(t domain.EventType) string {
	return b.prefix + "." + string(t)
}

func (b *NATSEventBus) Publish(_ context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	if err := b.nc.Publish(b.Subject(e.Type), data); err != nil {
		return errors.Wrapf(err, "publish %s", e.Type)
	}
	return nil
}

// Subscribe delivers every event under the prefix to handler.
func (b *NATSEventBus) Subscribe(handler func(domain.Event)) (*nats.Subscription, error) {
	sub, err := b.nc.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		var e domain.Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			b.log.Warnw("Dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		handler(e)
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribe to events")
	}
	return sub, nil
}

func (b *NATSEventBus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}
