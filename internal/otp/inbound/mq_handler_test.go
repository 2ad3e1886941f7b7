package inbound

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otphub/internal/otp/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMQHandler_OTPRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		uc := &fakeUsecase{}
		h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		err := h.OTPRequest(ctx, fakeMessage{
			body:    []byte(`{"request_id":"req-1","identifier":"a@x.com","purpose":"login","user_name":"Ana","metadata":{"ip":"10.0.0.1"}}`),
			headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte("cid-1")}},
		})

		require.NoError(t, err)
		require.Len(t, uc.consumeIn, 1)
		assert.Equal(t, usecase.ConsumeOTPRequestInput{
			RequestID:  "req-1",
			Identifier: "a@x.com",
			Purpose:    "login",
			UserName:   "Ana",
			Metadata:   map[string]any{"ip": "10.0.0.1"},
		}, uc.consumeIn[0])
	})

	t.Run("MalformedBodyIsDropped", func(t *testing.T) {
		uc := &fakeUsecase{}
		h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		require.NoError(t, h.OTPRequest(ctx, fakeMessage{body: []byte("{")}))
		assert.Empty(t, uc.consumeIn)
	})

	t.Run("TransientErrorIsReturned", func(t *testing.T) {
		errDown := errors.New("down")
		h := &MQHandler{uc: &fakeUsecase{err: errDown}, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		err := h.OTPRequest(ctx, fakeMessage{body: []byte(`{"request_id":"req-1","identifier":"a@x.com","purpose":"login"}`)})

		assert.ErrorIs(t, err, errDown)
	})
}

func TestMQHandler_ensureCorrelationID(t *testing.T) {
	h := &MQHandler{uuid: uid.NewUUID()}

	ctx := h.ensureCorrelationID(context.Background(), []messaging.Header{{Key: keyOfCorrelationID, Value: []byte("cid-1")}})
	assert.Equal(t, "cid-1", instrument.GetCorrelationID(ctx))

	ctx = h.ensureCorrelationID(context.Background(), nil)
	assert.NotEmpty(t, instrument.GetCorrelationID(ctx))

	ctx = h.ensureCorrelationID(context.Background(), []messaging.Header{{Key: keyOfCorrelationID}})
	assert.NotEmpty(t, instrument.GetCorrelationID(ctx))
}
