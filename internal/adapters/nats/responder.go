package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/nearbyplaces/internal/core/amenity"
	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
)

const (
	DefaultSubject = "chat.nearby"
	DefaultQueue   = "nearby-workers"
	DefaultWorkers = 16
)

// ChatHandler answers one chat request.
type ChatHandler interface {
	Handle(ctx context.Context, req domain.ChatRequest) domain.ChatReply
}

// Responder serves chat requests arriving on a NATS subject using
// request/reply. Instances sharing a queue group split the load.
type Responder struct {
	conn    *nats.Conn
	handler ChatHandler
	timeout time.Duration
	sub     *nats.Subscription

	msgs     <-chan *nats.Msg
	done     chan struct{}
	stopOnce sync.Once
	workers  sync.WaitGroup

	// TriggersOnly drops messages without a trigger phrase instead of
	// answering them, for subjects shared with other chat components.
	TriggersOnly bool
	// Workers caps the number of requests handled at once. Zero means
	// DefaultWorkers.
	Workers int
}

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("nearbyplaces"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NewResponder creates a responder on an existing connection. timeout
// bounds the handling of each message.
func NewResponder(conn *nats.Conn, handler ChatHandler, timeout time.Duration) *Responder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Responder{conn: conn, handler: handler, timeout: timeout, done: make(chan struct{})}
}

// Start subscribes to subject in queue group queue.
func (r *Responder) Start(ctx context.Context, subject, queue string) error {
	if subject == "" {
		subject = DefaultSubject
	}
	if queue == "" {
		queue = DefaultQueue
	}
	if r.Workers <= 0 {
		r.Workers = DefaultWorkers
	}
	msgs := make(chan *nats.Msg, r.Workers*8)
	sub, err := r.conn.ChanQueueSubscribe(subject, queue, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.sub = sub
	r.run(ctx, msgs)
	slog.Info("chat responder listening", "subject", subject, "queue", queue, "workers", r.Workers)
	return nil
}

func (r *Responder) run(ctx context.Context, msgs <-chan *nats.Msg) {
	r.msgs = msgs
	for i := 0; i < r.Workers; i++ {
		r.workers.Add(1)
		go r.work(ctx)
	}
}

// work serves messages until Close, then finishes whatever is still buffered.
func (r *Responder) work(ctx context.Context) {
	defer r.workers.Done()
	for {
		select {
		case msg := <-r.msgs:
			r.serve(ctx, msg)
		case <-r.done:
			for {
				select {
				case msg := <-r.msgs:
					r.serve(ctx, msg)
				default:
					return
				}
			}
		}
	}
}

func (r *Responder) serve(ctx context.Context, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply := r.HandleMessage(ctx, msg.Data)
	if reply == nil || msg.Reply == "" {
		return
	}
	if err := msg.Respond(reply); err != nil {
		slog.Warn("chat respond failed", "subject", msg.Subject, "error", err)
	}
}

// HandleMessage decodes a JSON chat request and returns the encoded reply.
// Undecodable payloads get an error reply with the default error message.
// It returns nil when TriggersOnly is set and the text is not addressed to us.
func (r *Responder) HandleMessage(ctx context.Context, data []byte) []byte {
	var req domain.ChatRequest
	var reply domain.ChatReply
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("invalid chat request", "error", err)
		reply = domain.ChatReply{Kind: domain.ReplyError, Text: domain.DefaultErrorMessage}
	} else if r.TriggersOnly && !amenity.Matches(req.Text) {
		return nil
	} else {
		reply = r.handler.Handle(ctx, req)
	}
	metrics.ChatReplies.WithLabelValues(string(reply.Kind), "nats").Inc()

	out, _ := json.Marshal(reply)
	return out
}

// Close stops taking requests, waits for the in-flight ones to be answered
// and drains the connection. ctx bounds the whole shutdown.
func (r *Responder) Close(ctx context.Context) error {
	r.stopOnce.Do(func() {
		if r.sub != nil {
			if err := r.sub.Unsubscribe(); err != nil {
				slog.Warn("chat responder unsubscribe failed", "error", err)
			}
		}
		close(r.done)
	})

	idle := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
		return fmt.Errorf("wait for in-flight chat requests: %w", ctx.Err())
	}

	if r.conn == nil {
		return nil
	}
	closed := make(chan struct{})
	r.conn.SetClosedHandler(func(*nats.Conn) { close(closed) })
	if err := r.conn.Drain(); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}
		return fmt.Errorf("nats drain: %w", err)
	}
	select {
	case <-closed:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("nats drain: %w", ctx.Err())
	}
}
