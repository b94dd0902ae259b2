// Package kafka implements the "kafka" target: publishes payload bytes as a
// message value to a configured topic via segmentio/kafka-go.
package kafka

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	kafkago "github.com/segmentio/kafka-go"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/plugin"
	"firestige.xyz/webhookd/pkg/program"
	"firestige.xyz/webhookd/pkg/state"
)

func init() {
	plugin.RegisterTarget("kafka", func() plugin.Target { return &Sender{} })
}

type config struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Sender is the kafka target plugin.
type Sender struct {
	writer *kafkago.Writer
	topic  string
}

func (s *Sender) Name() string { return "kafka" }

// Init parses the raw TargetSpec map, which carries the "kafka"
// discriminator key itself: {"kafka": {"brokers": [...], "topic": "..."}}.
func (s *Sender) Init(cfg map[string]any) error {
	raw, ok := cfg["kafka"]
	if !ok {
		return fmt.Errorf("kafka target: missing %q key: %w", "kafka", core.ErrInvalidConfig)
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("kafka target: %q must be a map: %w", "kafka", core.ErrInvalidConfig)
	}

	var c config
	if err := mapstructure.Decode(sub, &c); err != nil {
		return fmt.Errorf("kafka target: %w", core.ErrInvalidConfig)
	}
	if len(c.Brokers) == 0 || c.Topic == "" {
		return fmt.Errorf("kafka target: missing brokers/topic: %w", core.ErrInvalidConfig)
	}

	s.topic = c.Topic
	s.writer = &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    c.Topic,
		Balancer: &kafkago.LeastBytes{},
	}
	return nil
}

func (s *Sender) Start(ctx context.Context) error { return nil }

func (s *Sender) Stop(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// Send writes one message with the payload as value. The key is the JSON
// encoding of the whole current state when non-empty (so consumers can
// correlate a delivery with the program run that produced it), nil
// otherwise. Write failures are logged; Send still returns nil so a
// failing target never blocks delivery to the others in the same fan-out.
func (s *Sender) Send(ctx context.Context, payload core.Payload, st state.State) error {
	msg := kafkago.Message{Value: payload.Content}

	if st.Len() > 0 {
		key, err := program.ItemToJSON(st.AsItem())
		if err != nil {
			log.GetLogger().WithError(err).Errorf("kafka target: encoding state key for topic %q", s.topic)
		} else {
			msg.Key = key
		}
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.GetLogger().WithError(err).Errorf("kafka target: writing to topic %q", s.topic)
	}
	return nil
}
