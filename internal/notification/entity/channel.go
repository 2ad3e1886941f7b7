package entity

import (
	"strings"
)

type Channel string

const (
	ChannelUnknown Channel = ""
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
)

func ChannelFromString(raw string) Channel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "email":
		return ChannelEmail
	case "sms":
		return ChannelSMS
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	if c == ChannelUnknown {
		return "unknown"
	}
	return string(c)
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}
