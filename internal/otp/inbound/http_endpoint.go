package inbound

import (
	"github.com/shandysiswandi/otphub/internal/otp/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP lifecycle over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// RequestOTP issues a code for an identifier and purpose and sends it out.
// With queue set the request is accepted and processed asynchronously.
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{
		Identifier: req.Identifier,
		Purpose:    req.Purpose,
		UserName:   req.UserName,
		Queue:      req.Queue,
	})
	if err != nil {
		return nil, err
	}

	if resp.Queued {
		return RequestOTPQueuedResponse{}, nil
	}

	return RequestOTPResponse{
		ID:            resp.ID,
		ExpiresAt:     resp.ExpiresAt,
		ExpiryMinutes: resp.ExpiryMinutes,
	}, nil
}

// VerifyOTP checks a submitted code against the active OTP.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Identifier: req.Identifier,
		Code:       req.OTP,
		Purpose:    req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Verified: resp.Verified}, nil
}

func (h *HTTPEndpoint) RevokeOTP(r *router.Request) (any, error) {
	var req RevokeOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RevokeOTP(r.Context(), usecase.RevokeOTPInput{
		Identifier: req.Identifier,
		Purpose:    req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return RevokeOTPResponse{Revoked: resp.Revoked}, nil
}
