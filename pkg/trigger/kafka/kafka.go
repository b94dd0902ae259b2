// Package kafka implements the "kafka" trigger: a long-lived consumer-group
// reader built on segmentio/kafka-go. GetOne blocks on the next record;
// Ack commits that record's offset.
package kafka

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	kafkago "github.com/segmentio/kafka-go"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/plugin"
)

func init() {
	plugin.RegisterTrigger("kafka", func() plugin.Trigger { return &Receiver{} })
}

type config struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// Receiver is the kafka trigger plugin: GetOne blocks on the next record,
// Ack commits that record's offset.
type Receiver struct {
	reader *kafkago.Reader
	topic  string
}

func (r *Receiver) Name() string { return "kafka" }

func (r *Receiver) Init(cfg map[string]any) error {
	var c config
	if err := mapstructure.Decode(cfg, &c); err != nil {
		return fmt.Errorf("kafka trigger: %w", core.ErrInvalidConfig)
	}
	if len(c.Brokers) == 0 || c.Topic == "" || c.GroupID == "" {
		return fmt.Errorf("kafka trigger: missing brokers/topic/group_id: %w", core.ErrInvalidConfig)
	}

	r.topic = c.Topic
	r.reader = kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: c.Brokers,
		Topic:   c.Topic,
		GroupID: c.GroupID,
	})

	log.GetLogger().Debugf("initializing kafka receiver for topic %q group %q", c.Topic, c.GroupID)
	return nil
}

func (r *Receiver) Start(ctx context.Context) error { return nil }

func (r *Receiver) Stop(ctx context.Context) error {
	if r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// GetOne fetches the next message from the consumer group. Cancellation
// safety is delegated to kafka.Reader.FetchMessage, which honors ctx
// natively and does not commit any offset: the offset is committed only by
// the returned message's Ack.
func (r *Receiver) GetOne(ctx context.Context) (core.SourceMessage, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka read: %w: %v", core.ErrPullError, err)
	}
	return &message{reader: r.reader, msg: msg}, nil
}

// message implements core.SourceMessage for one consumed kafka record.
type message struct {
	reader *kafkago.Reader
	msg    kafkago.Message
}

func (m *message) Bytes() []byte { return m.msg.Value }

func (m *message) Ack(ctx context.Context) {
	if err := m.reader.CommitMessages(ctx, m.msg); err != nil {
		log.GetLogger().WithError(err).Errorf(
			"error committing kafka offset for partition %d offset %d", m.msg.Partition, m.msg.Offset)
		return
	}
	log.GetLogger().Tracef("committed kafka offset partition %d offset %d", m.msg.Partition, m.msg.Offset)
}
