package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_CreateOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		h := newHarness(t, testPolicy())

		// Act
		out, err := h.uc.CreateOTP(ctx, CreateOTPInput{
			Identifier: " A@X.com ",
			Purpose:    "login",
			Metadata:   map[string]any{"ip": "10.0.0.1"},
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "123456", out.Code)
		assert.Equal(t, 5, out.ExpiryMinutes)
		assert.Equal(t, h.clock.Now().Add(5*time.Minute), out.ExpiresAt)

		rec := h.db.get(out.ID)
		assert.Equal(t, "a@x.com", rec.Identifier)
		assert.Equal(t, entity.StatusActive, rec.Status)
		assert.Zero(t, rec.Attempts)
		assert.NotEqual(t, "123456", rec.CodeHash)
		assert.NotContains(t, rec.CodeHash, "123456")
		assert.Equal(t, "10.0.0.1", rec.Metadata.GetString("ip"))

		entry, err := h.cache.Get(ctx, "a@x.com", "login")
		require.NoError(t, err)
		assert.Equal(t, out.ID, entry.ID)
		assert.Equal(t, rec.CodeHash, entry.Hash)
	})

	t.Run("SecondCreateRevokesFirst", func(t *testing.T) {
		h := newHarness(t, testPolicy(), "111111", "222222")

		first, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})
		require.NoError(t, err)
		second, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})
		require.NoError(t, err)

		assert.Equal(t, entity.StatusRevoked, h.db.get(first.ID).Status)
		assert.Equal(t, entity.StatusActive, h.db.get(second.ID).Status)
		assert.Equal(t, 1, h.db.activeCount("a@x.com", "login"))

		_, err = h.uc.VerifyOTP(ctx, VerifyOTPInput{Identifier: "a@x.com", Code: "111111", Purpose: "login"})
		assert.ErrorIs(t, err, entity.ErrInvalidCode)
	})

	t.Run("PurposesAreIndependent", func(t *testing.T) {
		h := newHarness(t, testPolicy())

		_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})
		require.NoError(t, err)
		_, err = h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "reset_password"})
		require.NoError(t, err)

		assert.Equal(t, 1, h.db.activeCount("a@x.com", "login"))
		assert.Equal(t, 1, h.db.activeCount("a@x.com", "reset_password"))
	})

	t.Run("RateLimited", func(t *testing.T) {
		h := newHarness(t, testPolicy())

		for range 5 {
			_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})
			require.NoError(t, err)
		}

		h.clock.Advance(5 * time.Minute)
		_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})
		require.ErrorIs(t, err, entity.ErrRateLimited)

		retryAfter, ok := entity.ErrorField(err, entity.FieldRetryAfterSeconds)
		require.True(t, ok)
		assert.Equal(t, "600", retryAfter)

		h.clock.Advance(10 * time.Minute)
		_, err = h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})
		assert.NoError(t, err)
	})

	t.Run("RateLimiterDownFailsClosed", func(t *testing.T) {
		h := newHarness(t, testPolicy())
		h.limiter.err = errUnavailable

		_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})

		assert.ErrorIs(t, err, entity.ErrStorageUnavailable)
		assert.Equal(t, 0, h.db.activeCount("a@x.com", "login"))
	})

	t.Run("RateLimiterDownFailsOpen", func(t *testing.T) {
		p := testPolicy()
		p.RateLimitFailOpen = true
		h := newHarness(t, p)
		h.limiter.err = errUnavailable

		_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})

		assert.NoError(t, err)
	})

	t.Run("CacheWriteFailureIsNotFatal", func(t *testing.T) {
		h := newHarness(t, testPolicy())
		h.cache.err = errUnavailable

		out, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusActive, h.db.get(out.ID).Status)
	})

	t.Run("StoreDown", func(t *testing.T) {
		h := newHarness(t, testPolicy())
		h.db.err = errUnavailable

		_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "a@x.com", Purpose: "login"})

		assert.ErrorIs(t, err, entity.ErrStorageUnavailable)
		assert.NotContains(t, err.Error(), "123456")
	})

	t.Run("InvalidInput", func(t *testing.T) {
		h := newHarness(t, testPolicy())

		_, err := h.uc.CreateOTP(ctx, CreateOTPInput{Identifier: "not-an-identifier", Purpose: "Log In"})

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.CodeInvalidInput, gerr.Code())
		assert.Zero(t, h.generator.calls)
	})
}
