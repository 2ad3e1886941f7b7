package mail

import (
	"context"
	"io"
)

// Message is one rendered email. From falls back to the provider default.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	// HTMLBody, when set, is sent as the alternative part next to TextBody.
	HTMLBody string
}

// Mail delivers rendered messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
