package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"firestige.xyz/webhookd/internal/log"
)

func TestMain(m *testing.M) {
	log.Init(&log.LoggerConfig{Level: "off"})
	m.Run()
}

func TestReceiverInitRequiresSubscriptionAndCredential(t *testing.T) {
	r := &Receiver{}
	if err := r.Init(map[string]any{"credential": `{"token":"x"}`}); err == nil {
		t.Fatal("expected error for missing subscription_id")
	}
	if err := r.Init(map[string]any{"subscription_id": "sub"}); err == nil {
		t.Fatal("expected error for missing credential")
	}
}

func TestGetOneReturnsImmediatelyOnNonEmptyPull(t *testing.T) {
	var pulls int32

	data := base64.StdEncoding.EncodeToString([]byte("hello"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.URL.Path == "/v1/sub:pull":
			atomic.AddInt32(&pulls, 1)
			resp := pullResponse{ReceivedMessages: []receivedMessage{
				{AckID: "ack-1", Message: pubsubMessage{Data: data}},
			}}
			json.NewEncoder(w).Encode(resp)
		case req.URL.Path == "/v1/sub:acknowledge":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := &Receiver{}
	if err := r.Init(map[string]any{
		"subscription_id": "sub",
		"credential":       `{"token":"tkn"}`,
		"base_url":         srv.URL,
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := r.GetOne(ctx)
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if string(msg.Bytes()) != "hello" {
		t.Fatalf("got %q, want %q", msg.Bytes(), "hello")
	}
	if atomic.LoadInt32(&pulls) != 1 {
		t.Fatalf("expected exactly one pull, got %d", pulls)
	}

	msg.Ack(ctx)
}

func TestGetOneBacksOffOnEmptyResponses(t *testing.T) {
	var pulls int32
	data := base64.StdEncoding.EncodeToString([]byte("world"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/v1/sub:pull" {
			w.WriteHeader(http.StatusOK)
			return
		}
		n := atomic.AddInt32(&pulls, 1)
		if n < 3 {
			json.NewEncoder(w).Encode(pullResponse{})
			return
		}
		json.NewEncoder(w).Encode(pullResponse{ReceivedMessages: []receivedMessage{
			{AckID: "ack-2", Message: pubsubMessage{Data: data}},
		}})
	}))
	defer srv.Close()

	r := &Receiver{}
	if err := r.Init(map[string]any{
		"subscription_id": "sub",
		"credential":       `{"token":"tkn"}`,
		"base_url":         srv.URL,
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	msg, err := r.GetOne(ctx)
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if string(msg.Bytes()) != "world" {
		t.Fatalf("got %q, want %q", msg.Bytes(), "world")
	}
	if atomic.LoadInt32(&pulls) != 3 {
		t.Fatalf("expected 3 pulls, got %d", pulls)
	}
	// Two backoff sleeps (1.0s, then 1.25s) should have elapsed between the
	// three pulls.
	if elapsed := time.Since(start); elapsed < 1500*time.Millisecond {
		t.Fatalf("expected backoff delay, only %v elapsed", elapsed)
	}
}

func TestGetOneCancellationDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(pullResponse{})
	}))
	defer srv.Close()

	r := &Receiver{}
	if err := r.Init(map[string]any{
		"subscription_id": "sub",
		"credential":       `{"token":"tkn"}`,
		"base_url":         srv.URL,
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := r.GetOne(ctx)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}
