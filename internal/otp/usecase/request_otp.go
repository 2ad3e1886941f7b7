package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
)

// templatePrefix names notification templates as otp_{purpose}.
const templatePrefix = "otp_"

type RequestOTPInput struct {
	Identifier string `validate:"required,max=255,identifier"`
	Purpose    string `validate:"required,purpose"`
	UserName   string `validate:"max=100"`
	Queue      bool
}

type RequestOTPOutput struct {
	Queued        bool
	ID            string
	ExpiresAt     time.Time
	ExpiryMinutes int
}

// RequestOTP issues a code and hands it to the notification module. With Queue
// set, issuing is deferred to the otp-requests consumer.
func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) (*RequestOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.UserName = strings.TrimSpace(in.UserName)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Queue {
		requestID := s.uuid.Generate()
		if err := s.repoMessaging.PublishOTPRequest(ctx, OTPRequestEvent{
			RequestID:  requestID,
			Identifier: in.Identifier,
			Purpose:    in.Purpose,
			UserName:   in.UserName,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp request", "identifier", in.Identifier, "purpose", in.Purpose, "error", err)
			return nil, goerror.NewUnavailable(err)
		}

		slog.InfoContext(ctx, "otp request queued", "request_id", requestID, "identifier", in.Identifier, "purpose", in.Purpose)
		return &RequestOTPOutput{Queued: true}, nil
	}

	return s.issueAndNotify(ctx, in.Identifier, in.Purpose, in.UserName, nil)
}

func (s *Usecase) issueAndNotify(ctx context.Context, identifier, purpose, userName string, metadata map[string]any) (*RequestOTPOutput, error) {
	if userName != "" {
		if metadata == nil {
			metadata = make(map[string]any, 1)
		}
		metadata["user_name"] = userName
	}

	created, err := s.CreateOTP(ctx, CreateOTPInput{
		Identifier: identifier,
		Purpose:    purpose,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, err
	}

	if userName == "" {
		userName = identifier
	}

	if err := s.repoMessaging.PublishNotification(ctx, NotificationEvent{
		RequestID:    created.ID,
		Recipient:    identifier,
		TemplateName: templatePrefix + purpose,
		Data:         otpTemplateData(created.Code, userName, created.ExpiryMinutes),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp notification", "otp_id", created.ID, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	return &RequestOTPOutput{
		ID:            created.ID,
		ExpiresAt:     created.ExpiresAt,
		ExpiryMinutes: created.ExpiryMinutes,
	}, nil
}

// otpTemplateData builds the template variables: otp, its digits both as a
// list and as one dN key per digit, userName and expiryMinutes.
func otpTemplateData(code, userName string, expiryMinutes int) map[string]any {
	data := make(map[string]any, len(code)+4)
	data["otp"] = code
	digits := make([]string, 0, len(code))
	for i, d := range code {
		data["d"+strconv.Itoa(i+1)] = string(d)
		digits = append(digits, string(d))
	}
	data["digits"] = digits
	data["userName"] = userName
	data["expiryMinutes"] = expiryMinutes

	return data
}
