package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/validator"
	"github.com/shandysiswandi/otphub/internal/pkg/valueobject"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("connection refused")

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type fakeDB struct {
	mu            sync.Mutex
	templates     map[string]entity.Template
	notifications map[int64]*entity.Notification
	err           error
}

func (f *fakeDB) GetActiveTemplate(_ context.Context, name string, ch entity.Channel) (*entity.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	tpl, ok := f.templates[name+":"+string(ch)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &tpl, nil
}

func (f *fakeDB) CreateNotification(_ context.Context, n entity.CreateNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notifications[n.ID] = &entity.Notification{
		ID:           n.ID,
		Channel:      n.Channel,
		Recipient:    n.Recipient,
		TemplateID:   n.TemplateID,
		TemplateData: n.TemplateData,
		Subject:      n.Subject,
		Status:       entity.StatusPending,
		Provider:     n.Provider,
		Metadata:     n.Metadata,
		CreatedAt:    n.CreatedAt,
	}
	return nil
}

func (f *fakeDB) MarkSent(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.notifications[id]
	n.Status = entity.StatusSent
	n.SentAt = &at
	return nil
}

func (f *fakeDB) MarkFailed(_ context.Context, id int64, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.notifications[id]
	n.Status = entity.StatusFailed
	n.ErrorMessage = reason
	n.RetryCount++
	n.FailedAt = &at
	return nil
}

func (f *fakeDB) only(t *testing.T) entity.Notification {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.notifications, 1)
	for _, n := range f.notifications {
		return *n
	}
	return entity.Notification{}
}

type fakeSender struct {
	provider string
	sent     []entity.Delivery
	err      error
}

func (f *fakeSender) Provider() string { return f.provider }

func (f *fakeSender) Send(_ context.Context, d entity.Delivery) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, d)
	return nil
}

type harness struct {
	uc    *Usecase
	db    *fakeDB
	email *fakeSender
	sms   *fakeSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	defaults := valueobject.JSONMap{"appName": "Saloon AlertsHub", "expiryMinutes": 5}
	h := &harness{
		db: &fakeDB{
			templates: map[string]entity.Template{
				"otp_login:email": {
					ID:          1,
					Name:        "otp_login",
					Channel:     entity.ChannelEmail,
					Subject:     "Your {{.appName}} login code",
					Body:        "Hello {{.userName}}, your code is {{.otp}}. It expires in {{.expiryMinutes}} minutes.",
					HTMLBody:    "<p>Hello {{.userName}}</p><b>{{.d1}}{{.d2}}</b>",
					DefaultData: defaults,
				},
				"otp_login:sms": {
					ID:          2,
					Name:        "otp_login",
					Channel:     entity.ChannelSMS,
					Body:        "{{.appName}}: {{.otp}}",
					DefaultData: defaults,
				},
				"otp_broken:email": {
					ID:      3,
					Name:    "otp_broken",
					Channel: entity.ChannelEmail,
					Body:    "{{.otp",
				},
			},
			notifications: map[int64]*entity.Notification{},
		},
		email: &fakeSender{provider: "smtp"},
		sms:   &fakeSender{provider: "twilio"},
	}

	h.uc = NewNotification(Dependency{
		RepoDB: h.db,
		Senders: map[entity.Channel]Sender{
			entity.ChannelEmail: h.email,
			entity.ChannelSMS:   h.sms,
		},
		Idempotency: idempotency.New(rdb),
		Validator:   v,
		UID:         &seqID{},
		Clock:       fixedClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		Instrument:  instrument.NewNoop(),
	})

	return h
}
