package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func startConsumer(t *testing.T, m *Memory, topic string, handler Handler, opts ...ConsumeOption) context.CancelFunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Consume(ctx, topic, handler, opts...) }()

	require.Eventually(t, func() bool { return m.Subscribers(topic) > 0 }, time.Second, 5*time.Millisecond)

	return func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	}
}

func TestMemory_PublishConsume(t *testing.T) {
	m := NewMemory()
	received := make(chan Message, 1)

	stop := startConsumer(t, m, "otp-requests", func(_ context.Context, msg Message) error {
		received <- msg
		return nil
	}, WithAutoAck(true))
	defer stop()

	res, err := m.Publish(context.Background(), "otp-requests", OutgoingMessage{
		Body:    []byte(`{"identifier":"a@x.com"}`),
		Headers: []Header{{Key: "cID", Value: []byte("cid-1")}},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, res.MessageID, msg.ID())
		assert.Equal(t, "otp-requests", msg.Topic())
		assert.JSONEq(t, `{"identifier":"a@x.com"}`, string(msg.Body()))
		assert.Equal(t, "cid-1", HeaderValue(msg, "cID"))
		assert.Empty(t, HeaderValue(msg, "missing"))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemory_NackRedelivers(t *testing.T) {
	m := NewMemory()
	var calls atomic.Int32
	done := make(chan struct{})

	stop := startConsumer(t, m, "email-notifications", func(context.Context, Message) error {
		if calls.Add(1) == 1 {
			return errors.New("smtp down")
		}
		close(done)
		return nil
	}, WithAutoAck(true))
	defer stop()

	_, err := m.Publish(context.Background(), "email-notifications", OutgoingMessage{Body: []byte("{}")})
	require.NoError(t, err)

	select {
	case <-done:
		assert.Equal(t, int32(2), calls.Load())
	case <-time.After(time.Second):
		t.Fatal("message not redelivered")
	}
}

func TestMemory_HandlerPanicIsRecovered(t *testing.T) {
	m := NewMemory()
	var calls atomic.Int32
	done := make(chan struct{})

	stop := startConsumer(t, m, "topic", func(context.Context, Message) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		close(done)
		return nil
	}, WithAutoAck(true))
	defer stop()

	_, err := m.Publish(context.Background(), "topic", OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking message was not nacked and redelivered")
	}
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()

	_, err := m.Publish(context.Background(), "", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrDestinationRequired)

	err = m.Consume(context.Background(), "topic", nil)
	assert.ErrorIs(t, err, ErrHandlerRequired)

	require.NoError(t, m.Close())
	_, err = m.Publish(context.Background(), "topic", OutgoingMessage{})
	assert.Error(t, err)
}

func TestNewFromDriver(t *testing.T) {
	c, err := NewFromDriver(context.Background(), DriverMemory, FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = NewFromDriver(context.Background(), "rabbitmq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(context.Background(), DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
}
