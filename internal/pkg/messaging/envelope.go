package messaging

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// envelope is the Message implementation shared by every driver.
type envelope struct {
	body    []byte
	key     []byte
	headers []Header
	id      string
	topic   string
	ts      time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (e *envelope) Body() []byte         { return e.body }
func (e *envelope) Key() []byte          { return e.key }
func (e *envelope) Headers() []Header    { return e.headers }
func (e *envelope) ID() string           { return e.id }
func (e *envelope) Topic() string        { return e.topic }
func (e *envelope) Timestamp() time.Time { return e.ts }

func (e *envelope) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.responded.Swap(true) || e.ack == nil {
		return nil
	}
	return e.ack(ctx)
}

func (e *envelope) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.responded.Swap(true) || e.nack == nil {
		return nil
	}
	return e.nack(ctx)
}

// dispatch runs handler with panic recovery and applies the auto-ack policy.
//
// It returns the error of the ack or nack call, never the handler error.
func dispatch(ctx context.Context, kind string, handler Handler, env *envelope, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, env)
	})

	if !autoAck || env.responded.Load() {
		return nil
	}
	if herr != nil {
		return env.Nack(ctx)
	}
	return env.Ack(ctx)
}

func concurrencyOrDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
