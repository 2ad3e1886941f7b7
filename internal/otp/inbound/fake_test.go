package inbound

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otphub/internal/otp/usecase"
	"github.com/shandysiswandi/otphub/internal/pkg/messaging"
)

type fakeUsecase struct {
	mu sync.Mutex

	requestIn  usecase.RequestOTPInput
	requestOut *usecase.RequestOTPOutput
	verifyIn   usecase.VerifyOTPInput
	revokeIn   usecase.RevokeOTPInput
	consumeIn  []usecase.ConsumeOTPRequestInput
	sweeps     int
	started    int
	inflight   int
	maxFlight  int

	sweepGate chan struct{}
	err       error
}

func (f *fakeUsecase) RequestOTP(_ context.Context, in usecase.RequestOTPInput) (*usecase.RequestOTPOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.requestOut, nil
}

func (f *fakeUsecase) VerifyOTP(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.VerifyOTPOutput{Verified: true}, nil
}

func (f *fakeUsecase) RevokeOTP(_ context.Context, in usecase.RevokeOTPInput) (*usecase.RevokeOTPOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RevokeOTPOutput{Revoked: 1}, nil
}

func (f *fakeUsecase) ConsumeOTPRequest(_ context.Context, in usecase.ConsumeOTPRequestInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumeIn = append(f.consumeIn, in)
	return f.err
}

func (f *fakeUsecase) SweepExpired(context.Context) (int64, error) {
	f.mu.Lock()
	f.started++
	f.inflight++
	f.maxFlight = max(f.maxFlight, f.inflight)
	f.mu.Unlock()

	if f.sweepGate != nil {
		<-f.sweepGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	f.sweeps++
	return 0, f.err
}

func (f *fakeUsecase) sweepStats() (started, maxFlight int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.maxFlight
}

func (f *fakeUsecase) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m fakeMessage) Body() []byte                { return m.body }
func (m fakeMessage) Key() []byte                 { return nil }
func (m fakeMessage) Headers() []messaging.Header { return m.headers }
func (m fakeMessage) ID() string                  { return "msg-1" }
func (m fakeMessage) Topic() string               { return "otp-requests" }
func (m fakeMessage) Timestamp() time.Time        { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error   { return nil }
func (m fakeMessage) Nack(context.Context) error  { return nil }
