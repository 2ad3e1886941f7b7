package inbound

import (
	"context"

	"github.com/shandysiswandi/otphub/internal/otp/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) (*usecase.RequestOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	RevokeOTP(ctx context.Context, in usecase.RevokeOTPInput) (*usecase.RevokeOTPOutput, error)

	ConsumeOTPRequest(ctx context.Context, in usecase.ConsumeOTPRequestInput) error
	SweepExpired(ctx context.Context) (int64, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/otp/request", end.RequestOTP)
	r.POST("/api/v1/otp/verify", end.VerifyOTP)
	r.POST("/api/v1/otp/revoke", end.RevokeOTP)
}
