package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	body  []byte
	acked bool
}

func (m *fakeMessage) Bytes() []byte            { return m.body }
func (m *fakeMessage) Ack(ctx context.Context)  { m.acked = true }

func TestSendReceiveRendezvous(t *testing.T) {
	pusher, puller := New(0)

	msg := &fakeMessage{body: []byte("hello")}
	done := make(chan struct{})
	go func() {
		pusher.Send(msg)
		close(done)
	}()

	select {
	case got := <-puller.C():
		assert.Equal(t, "hello", string(got.Bytes()))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send did not unblock after receive")
	}
}

func TestBufferedQueueDoesNotBlock(t *testing.T) {
	pusher, puller := New(2)

	pusher.Send(&fakeMessage{body: []byte("a")})
	pusher.Send(&fakeMessage{body: []byte("b")})

	first := <-puller.C()
	second := <-puller.C()
	assert.Equal(t, "a", string(first.Bytes()))
	assert.Equal(t, "b", string(second.Bytes()))
}

func TestMultipleSendersShareOnePusher(t *testing.T) {
	pusher, puller := New(0)

	for i := 0; i < 3; i++ {
		go pusher.Send(&fakeMessage{body: []byte{byte(i)}})
	}

	seen := make(map[byte]bool)
	for i := 0; i < 3; i++ {
		select {
		case msg := <-puller.C():
			seen[msg.Bytes()[0]] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for concurrent senders")
		}
	}
	require.Len(t, seen, 3)
}
