package inbound

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otphub/internal/notification/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/config"
	"github.com/shandysiswandi/otphub/internal/pkg/goroutine"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	mu   sync.Mutex
	in   []usecase.ConsumeNotificationInput
	cids []string
}

func (f *fakeUsecase) ConsumeNotification(ctx context.Context, in usecase.ConsumeNotificationInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in = append(f.in, in)
	f.cids = append(f.cids, instrument.GetCorrelationID(ctx))
	return nil
}

func (f *fakeUsecase) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.in)
}

func TestRegisterMQConsumer(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    consumer_names:
      - email-notifications-notification
`))
	require.NoError(t, err)

	broker := messaging.NewMemory()
	routine := goroutine.NewManager(4)
	uc := &fakeUsecase{}
	ctx, cancel := context.WithCancel(context.Background())

	RegisterMQConsumer(ctx, cfg, routine, broker, uid.NewUUID(), uc, instrument.NewNoop())
	require.Eventually(t, func() bool { return broker.Subscribers(event.NotificationDestination) > 0 }, time.Second, 5*time.Millisecond)

	_, err = broker.Publish(ctx, event.NotificationDestination, messaging.OutgoingMessage{
		Body:    []byte(`{"request_id":"otp-1","recipient":"a@x.com","template_name":"otp_login","data":{"otp":"123456"}}`),
		Headers: []messaging.Header{{Key: "cID", Value: []byte("cid-1")}},
	})
	require.NoError(t, err)

	_, err = broker.Publish(ctx, event.NotificationDestination, messaging.OutgoingMessage{Body: []byte("not json")})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return uc.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	_ = routine.Wait()

	assert.Equal(t, usecase.ConsumeNotificationInput{
		RequestID:    "otp-1",
		Recipient:    "a@x.com",
		TemplateName: "otp_login",
		Data:         map[string]any{"otp": "123456"},
	}, uc.in[0])
	assert.Equal(t, "cid-1", uc.cids[0])
}

func TestRegisterMQConsumer_Disabled(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    enabled: true\n"))
	require.NoError(t, err)

	broker := messaging.NewMemory()
	routine := goroutine.NewManager(4)

	RegisterMQConsumer(context.Background(), cfg, routine, broker, uid.NewUUID(), &fakeUsecase{}, instrument.NewNoop())

	require.NoError(t, routine.Wait())
	assert.Zero(t, broker.Subscribers(event.NotificationDestination))
}
