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
	s := &Sender{}
	if s.Name() != "kafka" {
		t.Fatalf("got %q, want %q", s.Name(), "kafka")
	}
}

func TestInitRejectsMissingKey(t *testing.T) {
	s := &Sender{}
	if err := s.Init(map[string]any{}); err == nil {
		t.Fatal("expected error for missing kafka key")
	}
}

func TestInitRequiresBrokersAndTopic(t *testing.T) {
	cases := []map[string]any{
		{"topic": "t"},
		{"brokers": []string{"localhost:9092"}},
	}
	for _, sub := range cases {
		s := &Sender{}
		if err := s.Init(map[string]any{"kafka": sub}); err == nil {
			t.Fatalf("expected error for incomplete config %#v", sub)
		}
	}
}

func TestInitSucceedsAndStopClosesWriter(t *testing.T) {
	s := &Sender{}
	err := s.Init(map[string]any{
		"kafka": map[string]any{
			"brokers": []string{"localhost:9092"},
			"topic":   "events",
		},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.topic != "events" {
		t.Fatalf("topic = %q, want %q", s.topic, "events")
	}
	if err := s.Stop(nil); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopOnUninitializedSenderIsNoop(t *testing.T) {
	s := &Sender{}
	if err := s.Stop(nil); err != nil {
		t.Fatalf("Stop on zero-value sender: %v", err)
	}
}
