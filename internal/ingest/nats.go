package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nats-io/nats.go"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// NATSSource consumes telemetry from a NATS subject tree, e.g.
// greenpulse.telemetry.gps. The event kind is the last subject token.
type NATSSource struct {
	cfg *config.Config
	out chan<- *domain.Event
}

func NewNATSSource(cfg *config.Config, out chan<- *domain.Event) *NATSSource {
	return &NATSSource{cfg: cfg, out: out}
}

func (s *NATSSource) Run(ctx context.Context) error {
	nc, err := nats.Connect(s.cfg.NATSServerURL,
		nats.Name("greenpulse-ingest"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats: reconnected to %s", nc.ConnectedUrl())
		}))
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", s.cfg.NATSServerURL, err)
	}
	defer nc.Drain()

	sub, err := nc.Subscribe(s.cfg.NATSSubject, s.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.cfg.NATSSubject, err)
	}
	defer sub.Unsubscribe()
	log.Printf("nats: subscribed to %s on %s", s.cfg.NATSSubject, s.cfg.NATSServerURL)

	<-ctx.Done()
	return nil
}

func (s *NATSSource) handle(msg *nats.Msg) {
	tokens := strings.Split(msg.Subject, ".")
	kind := domain.EventKind(tokens[len(tokens)-1])

	ev, err := Normalize(kind, msg.Data)
	if err != nil {
		return
	}
	select {
	case s.out <- ev:
	default:
		metrics.ChannelDrops.WithLabelValues("ingest").Inc()
	}
}
