package kafka

import (
	"testing"

	"firestige.xyz/webhookd/internal/log"
)

func TestMain(m *testing.M) {
	log.Init(&log.LoggerConfig{Level: "off"})
	m.Run()
}

func TestName(t *testing.T) {
	r := &Receiver{}
	if r.Name() != "kafka" {
		t.Fatalf("got %q, want %q", r.Name(), "kafka")
	}
}

func TestInitRequiresBrokersTopicGroupID(t *testing.T) {
	cases := []map[string]any{
		{"topic": "t", "group_id": "g"},
		{"brokers": []string{"localhost:9092"}, "group_id": "g"},
		{"brokers": []string{"localhost:9092"}, "topic": "t"},
	}
	for _, cfg := range cases {
		r := &Receiver{}
		if err := r.Init(cfg); err == nil {
			t.Fatalf("expected error for incomplete config %#v", cfg)
		}
	}
}

func TestInitSucceedsAndStopClosesReader(t *testing.T) {
	r := &Receiver{}
	err := r.Init(map[string]any{
		"brokers":  []string{"localhost:9092"},
		"topic":    "events",
		"group_id": "webhookd",
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if r.topic != "events" {
		t.Fatalf("topic = %q, want %q", r.topic, "events")
	}
	if err := r.Stop(nil); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopOnUninitializedReceiverIsNoop(t *testing.T) {
	r := &Receiver{}
	if err := r.Stop(nil); err != nil {
		t.Fatalf("Stop on zero-value receiver: %v", err)
	}
}
