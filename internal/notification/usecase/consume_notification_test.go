package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func otpData() map[string]any {
	return map[string]any{
		"otp":           "123456",
		"d1":            "1",
		"d2":            "2",
		"userName":      "<Ana>",
		"expiryMinutes": 10,
	}
}

func TestUsecase_ConsumeNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("EmailRenderedAndSent", func(t *testing.T) {
		h := newHarness(t)

		err := h.uc.ConsumeNotification(ctx, ConsumeNotificationInput{
			RequestID:    "otp-1",
			Recipient:    "a@x.com",
			TemplateName: "otp_login",
			Data:         otpData(),
		})

		require.NoError(t, err)
		require.Len(t, h.email.sent, 1)
		d := h.email.sent[0]
		assert.Equal(t, "a@x.com", d.Recipient)
		assert.Equal(t, "Your Saloon AlertsHub login code", d.Subject)
		assert.Equal(t, "Hello <Ana>, your code is 123456. It expires in 10 minutes.", d.Body)
		assert.Equal(t, "<p>Hello &lt;Ana&gt;</p><b>12</b>", d.HTMLBody)
		assert.Empty(t, h.sms.sent)

		n := h.db.only(t)
		assert.Equal(t, entity.StatusSent, n.Status)
		assert.Equal(t, "smtp", n.Provider)
		assert.Equal(t, int64(1), n.TemplateID)
		assert.Equal(t, "otp-1", n.Metadata.GetString("request_id"))
		assert.NotContains(t, n.TemplateData, "otp")
		assert.NotContains(t, n.TemplateData, "d1")
		assert.Equal(t, "<Ana>", n.TemplateData.GetString("userName"))
		assert.Equal(t, "Saloon AlertsHub", n.TemplateData.GetString("appName"))
	})

	t.Run("PhoneRecipientUsesSMS", func(t *testing.T) {
		h := newHarness(t)

		err := h.uc.ConsumeNotification(ctx, ConsumeNotificationInput{
			RequestID:    "otp-1",
			Recipient:    "+14155550123",
			TemplateName: "otp_login",
			Data:         otpData(),
		})

		require.NoError(t, err)
		require.Len(t, h.sms.sent, 1)
		assert.Equal(t, "Saloon AlertsHub: 123456", h.sms.sent[0].Body)
		assert.Empty(t, h.email.sent)
		assert.Equal(t, "twilio", h.db.only(t).Provider)
	})

	t.Run("DuplicateIsDeliveredOnce", func(t *testing.T) {
		h := newHarness(t)
		in := ConsumeNotificationInput{RequestID: "otp-1", Recipient: "a@x.com", TemplateName: "otp_login", Data: otpData()}

		require.NoError(t, h.uc.ConsumeNotification(ctx, in))
		require.NoError(t, h.uc.ConsumeNotification(ctx, in))

		assert.Len(t, h.email.sent, 1)
	})

	t.Run("ProviderFailureIsRecorded", func(t *testing.T) {
		h := newHarness(t)
		h.email.err = errUnavailable

		err := h.uc.ConsumeNotification(ctx, ConsumeNotificationInput{RequestID: "otp-1", Recipient: "a@x.com", TemplateName: "otp_login", Data: otpData()})

		require.NoError(t, err)
		n := h.db.only(t)
		assert.Equal(t, entity.StatusFailed, n.Status)
		assert.Equal(t, 1, n.RetryCount)
		assert.Equal(t, errUnavailable.Error(), n.ErrorMessage)
		assert.NotNil(t, n.FailedAt)
	})

	t.Run("StoreDownIsRetried", func(t *testing.T) {
		h := newHarness(t)
		h.db.err = errUnavailable
		in := ConsumeNotificationInput{RequestID: "otp-1", Recipient: "a@x.com", TemplateName: "otp_login", Data: otpData()}

		require.ErrorIs(t, h.uc.ConsumeNotification(ctx, in), errUnavailable)

		h.db.err = nil
		require.NoError(t, h.uc.ConsumeNotification(ctx, in))
		assert.Len(t, h.email.sent, 1)
	})

	tests := []struct {
		name string
		in   ConsumeNotificationInput
	}{
		{name: "UnknownTemplate", in: ConsumeNotificationInput{RequestID: "r", Recipient: "a@x.com", TemplateName: "otp_unknown"}},
		{name: "BrokenTemplate", in: ConsumeNotificationInput{RequestID: "r", Recipient: "a@x.com", TemplateName: "otp_broken"}},
		{name: "UnroutableRecipient", in: ConsumeNotificationInput{RequestID: "r", Recipient: "nobody", TemplateName: "otp_login"}},
		{name: "Invalid", in: ConsumeNotificationInput{Recipient: "a@x.com", TemplateName: "otp_login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name+"IsDropped", func(t *testing.T) {
			h := newHarness(t)

			require.NoError(t, h.uc.ConsumeNotification(ctx, tt.in))
			assert.Empty(t, h.email.sent)
			assert.Empty(t, h.db.notifications)
		})
	}
}

func TestUsecase_resolveChannel(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, entity.ChannelEmail, h.uc.resolveChannel("", "a@x.com"))
	assert.Equal(t, entity.ChannelSMS, h.uc.resolveChannel("", "+14155550123"))
	assert.Equal(t, entity.ChannelSMS, h.uc.resolveChannel("SMS", "a@x.com"))
	assert.Equal(t, entity.ChannelUnknown, h.uc.resolveChannel("", "0812"))
}
