package natsadapter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

type blockingHandler struct {
	release chan struct{}
	started chan struct{}

	mu      sync.Mutex
	active  int
	peak    int
	handled atomic.Int32
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{release: make(chan struct{}), started: make(chan struct{}, 64)}
}

func (h *blockingHandler) Handle(ctx context.Context, req domain.ChatRequest) domain.ChatReply {
	h.mu.Lock()
	h.active++
	if h.active > h.peak {
		h.peak = h.active
	}
	h.mu.Unlock()
	h.started <- struct{}{}

	<-h.release

	h.mu.Lock()
	h.active--
	h.mu.Unlock()
	h.handled.Add(1)
	return domain.ChatReply{Kind: domain.ReplyResults, Text: "ok"}
}

func chatMsg() *nats.Msg {
	return &nats.Msg{Subject: DefaultSubject, Data: []byte(`{"text":"find cafe","location":{"lat":40,"lon":-75}}`)}
}

func TestClose_WaitsForInFlightRequests(t *testing.T) {
	h := newBlockingHandler()
	r := NewResponder(nil, h, time.Second)
	r.Workers = 2

	msgs := make(chan *nats.Msg, 8)
	r.run(context.Background(), msgs)
	msgs <- chatMsg()
	<-h.started

	closed := make(chan error, 1)
	go func() { closed <- r.Close(context.Background()) }()

	select {
	case err := <-closed:
		t.Fatalf("Close returned before the in-flight request finished: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(h.release)
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the request finished")
	}
	assert.Equal(t, int32(1), h.handled.Load())
}

func TestClose_FinishesBufferedRequests(t *testing.T) {
	h := newBlockingHandler()
	close(h.release)
	r := NewResponder(nil, h, time.Second)
	r.Workers = 1

	msgs := make(chan *nats.Msg, 8)
	for i := 0; i < 5; i++ {
		msgs <- chatMsg()
	}
	r.run(context.Background(), msgs)

	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, int32(5), h.handled.Load())
	assert.Empty(t, msgs)
}

func TestWorkers_CapConcurrency(t *testing.T) {
	h := newBlockingHandler()
	r := NewResponder(nil, h, time.Second)
	r.Workers = 3

	msgs := make(chan *nats.Msg, 16)
	r.run(context.Background(), msgs)
	for i := 0; i < 10; i++ {
		msgs <- chatMsg()
	}
	for i := 0; i < 3; i++ {
		<-h.started
	}

	// Give a fourth worker the chance to start if the cap were not enforced.
	time.Sleep(50 * time.Millisecond)
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	assert.Equal(t, 3, active)

	close(h.release)
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, int32(10), h.handled.Load())
	assert.LessOrEqual(t, h.peak, 3)
}

func TestClose_HonoursDeadline(t *testing.T) {
	h := newBlockingHandler()
	defer close(h.release)
	r := NewResponder(nil, h, time.Minute)
	r.Workers = 1

	msgs := make(chan *nats.Msg, 1)
	r.run(context.Background(), msgs)
	msgs <- chatMsg()
	<-h.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
