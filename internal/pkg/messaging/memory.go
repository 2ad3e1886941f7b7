package messaging

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Memory is an in-process broker for local runs and tests.
//
// Every Consume call on a topic receives its own copy of each message published
// after it subscribed. Nacked messages are redelivered once per nack.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]chan *envelope
	seq    atomic.Uint64
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]chan *envelope)}
}

// Close stops accepting publishes.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish fans the message out to current subscribers of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	subs := append([]chan *envelope(nil), m.subs[destination]...)
	m.mu.RUnlock()

	id := strconv.FormatUint(m.seq.Inc(), 10)
	now := time.Now()
	for _, ch := range subs {
		env := &envelope{body: msg.Body, key: msg.Key, headers: msg.Headers, id: id, topic: destination, ts: now}
		select {
		case ch <- env:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Topic: destination, Timestamp: now}, nil
}

// Consume delivers messages published to source until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)

	ch := make(chan *envelope, 64)
	m.mu.Lock()
	m.subs[source] = append(m.subs[source], ch)
	m.mu.Unlock()
	defer m.unsubscribe(source, ch)

	var wg sync.WaitGroup
	for range concurrencyOrDefault(co.concurrency, 1) {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case env := <-ch:
					env.nack = func(context.Context) error {
						redelivery := &envelope{body: env.body, key: env.key, headers: env.headers, id: env.id, topic: env.topic, ts: env.ts}
						select {
						case ch <- redelivery:
						default:
						}
						return nil
					}
					//nolint:errcheck // in-process ack never fails
					dispatch(ctx, "memory", handler, env, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

// Subscribers reports how many consumers are attached to topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[topic])
}

func (m *Memory) unsubscribe(topic string, ch chan *envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[topic]
	for i := range subs {
		if subs[i] == ch {
			m.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
