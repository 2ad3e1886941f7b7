package email

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) Close() error { return nil }

func TestMail_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := &fakeMail{}
		m := New(client, instrument.NewNoop())

		err := m.Send(context.Background(), entity.Delivery{
			Recipient: "a@x.com",
			Subject:   "Your code",
			Body:      "code 123456",
			HTMLBody:  "<p>code 123456</p>",
		})

		require.NoError(t, err)
		require.Len(t, client.sent, 1)
		assert.Equal(t, mail.Message{
			To:       []string{"a@x.com"},
			Subject:  "Your code",
			TextBody: "code 123456",
			HTMLBody: "<p>code 123456</p>",
		}, client.sent[0])
		assert.Equal(t, "smtp", m.Provider())
	})

	t.Run("Failure", func(t *testing.T) {
		errSMTP := errors.New("smtp down")
		m := New(&fakeMail{err: errSMTP}, instrument.NewNoop())

		assert.ErrorIs(t, m.Send(context.Background(), entity.Delivery{Recipient: "a@x.com"}), errSMTP)
	})
}
