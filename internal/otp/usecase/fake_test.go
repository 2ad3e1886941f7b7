package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otphub/internal/otp/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/goerror"
	"github.com/shandysiswandi/otphub/internal/pkg/hash"
	"github.com/shandysiswandi/otphub/internal/pkg/idempotency"
	"github.com/shandysiswandi/otphub/internal/pkg/instrument"
	"github.com/shandysiswandi/otphub/internal/pkg/uid"
	"github.com/shandysiswandi/otphub/internal/pkg/validator"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errUnavailable = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixedGenerator struct {
	codes []string
	calls int
}

func (g *fixedGenerator) Generate(length int) (string, error) {
	code := g.codes[min(g.calls, len(g.codes)-1)]
	g.calls++
	return code, nil
}

type fakeDB struct {
	mu      sync.Mutex
	records map[string]*entity.Record
	err     error
}

func newFakeDB() *fakeDB {
	return &fakeDB{records: make(map[string]*entity.Record)}
}

func (f *fakeDB) get(id string) entity.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.records[id]
}

func (f *fakeDB) activeCount(identifier, purpose string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.records {
		if r.Identifier == identifier && r.Purpose == purpose && r.Status == entity.StatusActive {
			n++
		}
	}
	return n
}

func (f *fakeDB) revokeLocked(identifier, purpose string, at time.Time) int64 {
	var n int64
	for _, r := range f.records {
		if r.Identifier == identifier && r.Purpose == purpose && r.Status == entity.StatusActive {
			r.Status = entity.StatusRevoked
			r.UpdatedAt = at
			n++
		}
	}
	return n
}

func (f *fakeDB) CreateActive(_ context.Context, rec entity.Record) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}

	n := f.revokeLocked(rec.Identifier, rec.Purpose, rec.CreatedAt)
	f.records[rec.ID] = &rec
	return n, nil
}

func (f *fakeDB) RevokeAllActive(_ context.Context, identifier, purpose string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.revokeLocked(identifier, purpose, at), nil
}

func (f *fakeDB) GetByID(_ context.Context, id string) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	r, ok := f.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeDB) FindLatestActive(_ context.Context, identifier, purpose string, now time.Time) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	var found []*entity.Record
	for _, r := range f.records {
		if r.Identifier == identifier && r.Purpose == purpose && r.Status == entity.StatusActive && r.ExpiresAt.After(now) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return nil, goerror.ErrNotFound
	}

	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	cp := *found[0]
	return &cp, nil
}

func (f *fakeDB) IncrementAttempts(_ context.Context, id string, maxAttempts int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}

	r, ok := f.records[id]
	if !ok || r.Status != entity.StatusActive || r.Attempts >= maxAttempts {
		return 0, goerror.ErrConflict
	}
	r.Attempts++
	return r.Attempts, nil
}

func (f *fakeDB) MarkVerified(_ context.Context, id string, maxAttempts int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	r, ok := f.records[id]
	if !ok || r.Status != entity.StatusActive || r.Attempts >= maxAttempts || !r.ExpiresAt.After(at) {
		return goerror.ErrConflict
	}
	r.Attempts++
	r.Status = entity.StatusVerified
	r.VerifiedAt = &at
	r.UpdatedAt = at
	return nil
}

func (f *fakeDB) Transition(_ context.Context, id string, from, to entity.Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	r, ok := f.records[id]
	if !ok || r.Status != from {
		return goerror.ErrConflict
	}
	r.Status = to
	r.UpdatedAt = at
	if to == entity.StatusVerified {
		r.VerifiedAt = &at
	}
	return nil
}

func (f *fakeDB) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}

	var n int64
	for _, r := range f.records {
		if r.Status == entity.StatusActive && !r.ExpiresAt.After(now) {
			r.Status = entity.StatusExpired
			n++
		}
	}
	return n, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]entity.CacheEntry
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]entity.CacheEntry)}
}

func (f *fakeCache) Put(_ context.Context, identifier, purpose string, entry entity.CacheEntry, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[identifier+":"+purpose] = entry
	return nil
}

func (f *fakeCache) Get(_ context.Context, identifier, purpose string) (*entity.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[identifier+":"+purpose]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &e, nil
}

func (f *fakeCache) Invalidate(_ context.Context, identifier, purpose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.entries, identifier+":"+purpose)
	return nil
}

func (f *fakeCache) has(identifier, purpose string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[identifier+":"+purpose]
	return ok
}

// fakeRateLimit is a fixed window counter driven by the fake clock.
type fakeRateLimit struct {
	mu      sync.Mutex
	clock   *fakeClock
	counts  map[string]int
	started map[string]time.Time
	err     error
}

func (f *fakeRateLimit) CheckAndConsume(_ context.Context, identifier string, window time.Duration, limit int) (bool, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}

	now := f.clock.Now()
	if start, ok := f.started[identifier]; !ok || !now.Before(start.Add(window)) {
		f.started[identifier] = now
		f.counts[identifier] = 0
	}

	f.counts[identifier]++
	if f.counts[identifier] > limit {
		return false, f.started[identifier].Add(window).Sub(now), nil
	}
	return true, 0, nil
}

type fakeMessaging struct {
	mu            sync.Mutex
	requests      []OTPRequestEvent
	notifications []NotificationEvent
	err           error
	onNotify      func()
}

func (f *fakeMessaging) PublishOTPRequest(_ context.Context, msg OTPRequestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, msg)
	return nil
}

func (f *fakeMessaging) PublishNotification(_ context.Context, msg NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.onNotify != nil {
		f.onNotify()
	}
	f.notifications = append(f.notifications, msg)
	return nil
}

type harness struct {
	uc        *Usecase
	db        *fakeDB
	cache     *fakeCache
	limiter   *fakeRateLimit
	messaging *fakeMessaging
	clock     *fakeClock
	generator *fixedGenerator
	redis     *miniredis.Miniredis
}

func testPolicy() Policy {
	return Policy{
		CodeLength:      6,
		ExpiryWindow:    5 * time.Minute,
		MaxAttempts:     3,
		RateLimitWindow: 15 * time.Minute,
		RateLimitMax:    5,
		StoreTimeout:    time.Second,
		CacheTimeout:    time.Second,
		SweepInterval:   time.Minute,
	}
}

func newHarness(t *testing.T, policy Policy, codes ...string) *harness {
	t.Helper()

	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	h := &harness{
		db:        newFakeDB(),
		cache:     newFakeCache(),
		limiter:   &fakeRateLimit{clock: clk, counts: map[string]int{}, started: map[string]time.Time{}},
		messaging: &fakeMessaging{},
		clock:     clk,
		generator: &fixedGenerator{codes: codes},
		redis:     mr,
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoCache:     h.cache,
		RepoRateLimit: h.limiter,
		RepoMessaging: h.messaging,
		Idempotency:   idempotency.New(rdb),
		Validator:     v,
		Policy:        policy,
		Generator:     h.generator,
		Hash:          hash.NewBcrypt(bcrypt.MinCost, ""),
		UUID:          uid.NewUUID(),
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	})

	return h
}
