package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	errDomain := errors.New("domain")

	tests := []struct {
		name       string
		err        error
		wantType   Type
		wantCode   Code
		wantStatus int
		wantMsg    string
	}{
		{name: "Server", err: NewServer(errDomain), wantType: TypeServer, wantCode: CodeInternal, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "Unavailable", err: NewUnavailable(errDomain), wantType: TypeServer, wantCode: CodeUnavailable, wantStatus: http.StatusServiceUnavailable, wantMsg: "Service temporarily unavailable"},
		{name: "RateLimited", err: WrapBusiness(errDomain, "Too many requests", CodeTooManyRequest), wantType: TypeBusiness, wantCode: CodeTooManyRequest, wantStatus: http.StatusTooManyRequests, wantMsg: "Too many requests"},
		{name: "Locked", err: WrapBusiness(errDomain, "Locked", CodeForbidden), wantType: TypeBusiness, wantCode: CodeForbidden, wantStatus: http.StatusForbidden, wantMsg: "Locked"},
		{name: "NotFound", err: WrapBusiness(errDomain, "Gone", CodeNotFound), wantType: TypeBusiness, wantCode: CodeNotFound, wantStatus: http.StatusNotFound, wantMsg: "Gone"},
		{name: "InvalidInput", err: NewInvalidInput(errDomain), wantType: TypeValidation, wantCode: CodeInvalidInput, wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation error"},
		{name: "InvalidFormat", err: NewInvalidFormat(), wantType: TypeValidation, wantCode: CodeInvalidFormat, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, tt.err, &gerr)

			assert.Equal(t, tt.wantType, gerr.Type())
			assert.Equal(t, tt.wantCode, gerr.Code())
			assert.Equal(t, tt.wantStatus, gerr.StatusCode())
			assert.Equal(t, tt.wantMsg, gerr.Msg())
		})
	}
}

func TestWrapBusiness_Fields(t *testing.T) {
	errLimited := errors.New("limited")

	err := WrapBusiness(errLimited, "Too many requests", CodeTooManyRequest, "retry_after_seconds", "42", "dangling")

	require.ErrorIs(t, err, errLimited)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, map[string]string{"retry_after_seconds": "42"}, gerr.Fields())
}

func TestNewInvalidInput_Fields(t *testing.T) {
	var gerr *Error

	require.ErrorAs(t, NewInvalidInput(nil, "code", "must be numeric"), &gerr)
	assert.Equal(t, map[string]string{"code": "must be numeric"}, gerr.Fields())

	require.ErrorAs(t, NewInvalidInput(nil, "code"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}
