package event

const OTPRequestDestination string = "otp-requests"
const OTPRequestConsumerOTP string = "otp-requests-otp"

// OTPRequestMessage asks the otp module to issue and deliver a code asynchronously.
type OTPRequestMessage struct {
	RequestID  string         `json:"request_id"`
	Identifier string         `json:"identifier"`
	Purpose    string         `json:"purpose"`
	UserName   string         `json:"user_name,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
