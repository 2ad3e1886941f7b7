package event

const NotificationDestination string = "email-notifications"
const NotificationConsumerNotification string = "email-notifications-notification"

// NotificationMessage asks the notification module to render TemplateName with
// Data and deliver it to Recipient. An empty Channel is derived from Recipient.
type NotificationMessage struct {
	RequestID    string         `json:"request_id"`
	Recipient    string         `json:"recipient"`
	Channel      string         `json:"channel,omitempty"`
	TemplateName string         `json:"template_name"`
	Data         map[string]any `json:"data"`
}
