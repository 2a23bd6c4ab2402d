package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// MQTTSource subscribes to the telemetry topic tree and feeds validated
// events into the pipeline. The event kind is the last topic level, e.g.
// greenpulse/telemetry/gps.
type MQTTSource struct {
	cfg    *config.Config
	out    chan<- *domain.Event
	client mqtt.Client
}

func NewMQTTSource(cfg *config.Config, out chan<- *domain.Event) *MQTTSource {
	return &MQTTSource{cfg: cfg, out: out}
}

func (s *MQTTSource) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.MQTTBrokerURL).
		SetClientID("greenpulse-ingest").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			if tok := c.Subscribe(s.cfg.MQTTTopic, 0, s.handle); tok.Wait() && tok.Error() != nil {
				log.Printf("mqtt: subscribe %s: %v", s.cfg.MQTTTopic, tok.Error())
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	s.client = mqtt.NewClient(opts)
	if tok := s.client.Connect(); tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.cfg.MQTTBrokerURL, tok.Error())
	}
	log.Printf("mqtt: connected to %s, topic %s", s.cfg.MQTTBrokerURL, s.cfg.MQTTTopic)

	<-ctx.Done()
	s.client.Disconnect(250)
	return nil
}

func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	kind := domain.EventKind(parts[len(parts)-1])

	ev, err := Normalize(kind, msg.Payload())
	if err != nil {
		return
	}
	select {
	case s.out <- ev:
	default:
		metrics.ChannelDrops.WithLabelValues("ingest").Inc()
	}
}
