package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"agilecoach/internal/metrics"
)

// Function names understood by the senders.
const (
	FunctionCourseRegistration = "course-registration-notification"
	FunctionGroupRegistration  = "group-registration-notification"
	FunctionConfirmEmail       = "auth-confirm-email"
	FunctionPasswordReset      = "auth-password-reset"
)

const (
	defaultQueueSize   = 100
	defaultSendTimeout = 15 * time.Second
)

var (
	// ErrQueueFull is returned when a notification cannot be enqueued without blocking.
	ErrQueueFull = errors.New("notification queue full")
	// ErrClosed is returned after the dispatcher has been shut down.
	ErrClosed = errors.New("notification dispatcher closed")
)

// Notifier invokes a named side-channel function with a JSON body.
type Notifier interface {
	Invoke(ctx context.Context, function string, body interface{}) error
}

// Message is one queued invocation.
type Message struct {
	Function string
	Body     json.RawMessage
}

// Sender delivers a message; implementations decide the transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher queues invocations and delivers them from a background worker.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher; call Start to begin delivery.
func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, queueSize),
		timeout: defaultSendTimeout,
		done:    make(chan struct{}),
	}
}

// Start runs the delivery worker until Close is called or ctx ends.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.worker(ctx)
}

// Invoke enqueues without blocking. A full queue is reported, never waited on.
func (d *Dispatcher) Invoke(ctx context.Context, function string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", function, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- Message{Function: function, Body: payload}:
		return nil
	default:
		metrics.Notifications.WithLabelValues(function, metrics.OutcomeDropped).Inc()
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case msg, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, msg)
		case <-ctx.Done():
			// Drain what is already queued without the cancelled parent.
			for {
				select {
				case msg, ok := <-d.queue:
					if !ok {
						return
					}
					d.deliver(context.Background(), msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		log.Printf("notify: %s delivery failed: %v", msg.Function, err)
		metrics.Notifications.WithLabelValues(msg.Function, metrics.OutcomeFailure).Inc()
		return
	}
	metrics.Notifications.WithLabelValues(msg.Function, metrics.OutcomeSuccess).Inc()
}

// LogSender writes notifications to the log; used when no mail provider is configured.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("notify: %s %s", msg.Function, string(msg.Body))
	return nil
}
