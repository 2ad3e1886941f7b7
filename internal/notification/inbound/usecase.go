package inbound

import (
	"context"

	"github.com/shandysiswandi/otphub/internal/notification/usecase"
)

type uc interface {
	ConsumeNotification(ctx context.Context, in usecase.ConsumeNotificationInput) error
}
