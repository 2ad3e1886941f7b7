package inbound

import (
	"net/http"
	"time"
)

type RequestOTPRequest struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
	UserName   string `json:"user_name"`
	Queue      bool   `json:"queue"`
}

type RequestOTPResponse struct {
	ID            string    `json:"id"`
	ExpiresAt     time.Time `json:"expires_at"`
	ExpiryMinutes int       `json:"expiry_minutes"`
}

func (RequestOTPResponse) Message() string {
	return "OTP sent successfully"
}

type RequestOTPQueuedResponse struct{}

func (RequestOTPQueuedResponse) StatusCode() int {
	return http.StatusAccepted
}

func (RequestOTPQueuedResponse) Message() string {
	return "OTP request queued for processing"
}

type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
	Purpose    string `json:"purpose"`
}

type VerifyOTPResponse struct {
	Verified bool `json:"verified"`
}

func (VerifyOTPResponse) Message() string {
	return "OTP verified successfully"
}

type RevokeOTPRequest struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
}

type RevokeOTPResponse struct {
	Revoked int64 `json:"revoked"`
}

func (RevokeOTPResponse) Message() string {
	return "OTP revoked successfully"
}
