package entity

import (
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/valueobject"
)

// Template is a stored notification template. Subject, Body and HTMLBody are
// Go templates rendered against DefaultData merged with the message data.
type Template struct {
	ID          int64
	Name        string
	Channel     Channel
	Subject     string
	Body        string
	HTMLBody    string
	DefaultData valueobject.JSONMap
}

type CreateNotification struct {
	ID           int64
	Channel      Channel
	Recipient    string
	TemplateID   int64
	TemplateData valueobject.JSONMap
	Subject      string
	Provider     string
	Metadata     valueobject.JSONMap
	CreatedAt    time.Time
}

// Delivery is a rendered message ready for a channel provider.
type Delivery struct {
	Recipient string
	Subject   string
	Body      string
	HTMLBody  string
}

type Notification struct {
	ID           int64
	Channel      Channel
	Recipient    string
	TemplateID   int64
	TemplateData valueobject.JSONMap
	Subject      string
	Status       Status
	Provider     string
	Metadata     valueobject.JSONMap
	ErrorMessage string
	RetryCount   int
	SentAt       *time.Time
	FailedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
