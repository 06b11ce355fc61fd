package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	policyengine "student-portal/backend/internal/policy/engine"
	"student-portal/backend/internal/security"
	"student-portal/backend/internal/session/domain"
)

type archivedRecord struct {
	session domain.Session
	reason  string
	at      time.Time
}

// fakeStore is an in-memory Store preserving insertion order per identity.
type fakeStore struct {
	mu       sync.Mutex
	sessions []*domain.Session
	archived []archivedRecord
}

func (f *fakeStore) Put(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions = append(f.sessions, &cp)
	return nil
}

func (f *fakeStore) FindActiveByToken(_ context.Context, token string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByIdentity(_ context.Context, userID string) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) ExtendExpiration(_ context.Context, token string, newExpiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Token == token {
			s.ExpiresAt = newExpiresAt
		}
	}
	return nil
}

func (f *fakeStore) Invalidate(_ context.Context, token, note string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Token == token {
			s.Note = note
			s.ExpiresAt = expiresAt
		}
	}
	return nil
}

func (f *fakeStore) Archive(_ context.Context, s *domain.Session, reason string, archivedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.sessions {
		if cur.Token == s.Token {
			f.archived = append(f.archived, archivedRecord{session: *cur, reason: reason, at: archivedAt})
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return errors.New("session not found")
}

func (f *fakeStore) activeCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
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

func newTestManager(t *testing.T, policy policyengine.Evaluator) (*Manager, *fakeStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	codec, err := security.NewTokenCodec([]byte("test-signing-key"), "", "", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	codec.Clock = clock.Now
	store := &fakeStore{}
	return NewManager(store, codec, policy, 30*time.Minute, clock.Now), store, clock
}

func testIdentity() security.Identity {
	return security.Identity{
		ID:        "user-1",
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      "student",
	}
}

func TestIssueAndValidate(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	res, err := m.Validate(ctx, token, "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid || res.Code != CodeOK {
		t.Fatalf("expected valid result, got %+v", res)
	}
}

func TestValidateIncompleteInput(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	ctx := context.Background()

	for _, tc := range []struct {
		name                    string
		token, identity, source string
	}{
		{"empty token", "", "user-1", "10.0.0.1"},
		{"empty identity", "tok", "", "10.0.0.1"},
		{"empty source", "tok", "user-1", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := m.Validate(ctx, tc.token, tc.identity, tc.source)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if res.Valid || res.Code != CodeMalformed {
				t.Fatalf("expected malformed, got %+v", res)
			}
		})
	}
}

func TestValidateClaimBinding(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	res, err := m.Validate(ctx, token, "user-2", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || res.Code != CodeClaimMismatch {
		t.Fatalf("wrong identity: expected claim mismatch, got %+v", res)
	}

	res, err = m.Validate(ctx, token, "user-1", "10.0.0.99")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || res.Code != CodeClaimMismatch {
		t.Fatalf("wrong source: expected claim mismatch, got %+v", res)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	m, _, _ := newTestManager(t, nil)

	res, err := m.Validate(context.Background(), "not-a-token", "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || res.Code != CodeMalformed {
		t.Fatalf("expected malformed, got %+v", res)
	}
}

func TestSingleActiveSession(t *testing.T) {
	m, store, clock := newTestManager(t, nil)
	ctx := context.Background()

	first, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("first IssueSession: %v", err)
	}
	clock.Advance(time.Minute)
	second, err := m.IssueSession(ctx, testIdentity(), "10.0.0.2")
	if err != nil {
		t.Fatalf("second IssueSession: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens")
	}

	// The first session stays in the active table but is no longer live: its
	// expiration was forced to the second login's instant and it carries the
	// supersession note.
	res, err := m.Validate(ctx, first, "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate first: %v", err)
	}
	if res.Valid {
		t.Fatal("superseded session must not validate")
	}
	if res.Code != CodeExpired || !strings.Contains(res.Reason, "superseded") {
		t.Fatalf("expected supersession note, got %+v", res)
	}

	res, err = m.Validate(ctx, second, "user-1", "10.0.0.2")
	if err != nil {
		t.Fatalf("Validate second: %v", err)
	}
	if !res.Valid {
		t.Fatalf("new session must validate, got %+v", res)
	}

	// A third login sweeps the soft-invalidated row into the archive with the
	// supersession reason.
	clock.Advance(time.Minute)
	if _, err := m.IssueSession(ctx, testIdentity(), "10.0.0.3"); err != nil {
		t.Fatalf("third IssueSession: %v", err)
	}
	var found bool
	for _, a := range store.archived {
		if a.session.Token == first {
			found = true
			if a.reason != domain.ReasonSuperseded {
				t.Fatalf("expected reason %q, got %q", domain.ReasonSuperseded, a.reason)
			}
		}
	}
	if !found {
		t.Fatal("superseded session never reached the archive")
	}
}

func TestSweepArchivesExpiredSessions(t *testing.T) {
	m, store, clock := newTestManager(t, nil)
	ctx := context.Background()

	first, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Let the sliding window lapse entirely, then log in again.
	clock.Advance(31 * time.Minute)
	if _, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1"); err != nil {
		t.Fatalf("second IssueSession: %v", err)
	}

	if got := store.activeCount("user-1"); got != 1 {
		t.Fatalf("expected 1 active session after sweep, got %d", got)
	}
	if len(store.archived) != 1 {
		t.Fatalf("expected 1 archived session, got %d", len(store.archived))
	}
	a := store.archived[0]
	if a.session.Token != first || a.reason != domain.ReasonExpired {
		t.Fatalf("expected %q archived with reason %q, got token %q reason %q",
			first, domain.ReasonExpired, a.session.Token, a.reason)
	}
}

func TestSlidingExpiration(t *testing.T) {
	m, store, clock := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Keep using the session every 20 minutes; the 30-minute window never
	// lapses even though total elapsed time exceeds it.
	for i := 0; i < 2; i++ {
		clock.Advance(20 * time.Minute)
		res, err := m.Authorize(ctx, token, "user-1", "10.0.0.1")
		if err != nil {
			t.Fatalf("Authorize #%d: %v", i+1, err)
		}
		if !res.Valid {
			t.Fatalf("Authorize #%d: expected valid, got %+v", i+1, res)
		}
	}

	s, err := store.FindActiveByToken(ctx, token)
	if err != nil || s == nil {
		t.Fatalf("session missing after use: %v", err)
	}
	want := clock.Now().Add(30 * time.Minute)
	if !s.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiration %v, got %v", want, s.ExpiresAt)
	}
}

func TestInactivityExpiration(t *testing.T) {
	m, _, clock := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	clock.Advance(31 * time.Minute)
	res, err := m.Validate(ctx, token, "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || res.Code != CodeExpired {
		t.Fatalf("expected expired, got %+v", res)
	}
	if !strings.Contains(res.Reason, "inactivity") {
		t.Fatalf("expected inactivity reason, got %q", res.Reason)
	}
}

func TestHardCeilingBeatsSlidingWindow(t *testing.T) {
	m, _, clock := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Use the session every 20 minutes to keep the store window alive, then
	// cross the token's one-hour embedded expiration. The crypto check must
	// reject regardless of the live store record.
	for i := 0; i < 3; i++ {
		clock.Advance(20 * time.Minute)
		if i < 2 {
			res, err := m.Authorize(ctx, token, "user-1", "10.0.0.1")
			if err != nil || !res.Valid {
				t.Fatalf("Authorize #%d: res=%+v err=%v", i+1, res, err)
			}
		}
	}
	clock.Advance(time.Second)

	res, err := m.Validate(ctx, token, "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || res.Code != CodeExpired {
		t.Fatalf("expected expired past hard ceiling, got %+v", res)
	}
}

func TestAuthorizeDoesNotExtendInvalidSession(t *testing.T) {
	m, store, clock := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	before, _ := store.FindActiveByToken(ctx, token)

	clock.Advance(time.Minute)
	res, err := m.Authorize(ctx, token, "user-1", "10.0.0.99")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	after, _ := store.FindActiveByToken(ctx, token)
	if !after.ExpiresAt.Equal(before.ExpiresAt) {
		t.Fatal("failed authorization must not slide the expiration")
	}
}

func TestAuthorizeCancelledContextDoesNotExtend(t *testing.T) {
	m, store, clock := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	before, _ := store.FindActiveByToken(ctx, token)

	clock.Advance(time.Minute)
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	// The session itself is valid; only the cancellation stops the flow.
	res, err := m.Authorize(cancelled, token, "user-1", "10.0.0.1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !res.Valid {
		t.Fatalf("validation verdict should still be reported, got %+v", res)
	}

	after, _ := store.FindActiveByToken(ctx, token)
	if !after.ExpiresAt.Equal(before.ExpiresAt) {
		t.Fatal("a cancelled authorization must not slide the expiration")
	}
}

func TestRevoke(t *testing.T) {
	m, store, _ := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	ok, err := m.Revoke(ctx, token)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !ok {
		t.Fatal("expected first Revoke to report success")
	}
	if len(store.archived) != 1 || store.archived[0].reason != domain.ReasonLogout {
		t.Fatalf("expected archive with reason %q, got %+v", domain.ReasonLogout, store.archived)
	}

	// Revocation is terminal.
	res, err := m.Validate(ctx, token, "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || res.Code != CodeNotFound {
		t.Fatalf("expected not found after revocation, got %+v", res)
	}

	ok, err = m.Revoke(ctx, token)
	if err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	if ok {
		t.Fatal("second Revoke must report no session")
	}
}

func TestDeactivateIdentity(t *testing.T) {
	m, store, clock := newTestManager(t, policyengine.Static{
		Decision: policyengine.Decision{MaxActiveSessions: 3, SupersedeExisting: true},
	})
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 2; i++ {
		tok, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
		if err != nil {
			t.Fatalf("IssueSession #%d: %v", i+1, err)
		}
		tokens = append(tokens, tok)
		clock.Advance(time.Minute)
	}

	if err := m.DeactivateIdentity(ctx, "user-1"); err != nil {
		t.Fatalf("DeactivateIdentity: %v", err)
	}

	if got := store.activeCount("user-1"); got != 0 {
		t.Fatalf("expected no active sessions after deactivation, got %d", got)
	}
	if len(store.archived) != 2 {
		t.Fatalf("expected 2 archived sessions, got %d", len(store.archived))
	}
	for _, a := range store.archived {
		if a.reason != domain.ReasonDeactivated {
			t.Fatalf("expected reason %q, got %q", domain.ReasonDeactivated, a.reason)
		}
	}

	for _, tok := range tokens {
		res, err := m.Validate(ctx, tok, "user-1", "10.0.0.1")
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid {
			t.Fatal("no session may outlive a deactivation")
		}
	}
}

func TestPolicyAllowsMultipleSessions(t *testing.T) {
	m, store, clock := newTestManager(t, policyengine.Static{
		Decision: policyengine.Decision{MaxActiveSessions: 2, SupersedeExisting: true},
	})
	ctx := context.Background()

	first, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("first IssueSession: %v", err)
	}
	clock.Advance(time.Minute)
	second, err := m.IssueSession(ctx, testIdentity(), "10.0.0.2")
	if err != nil {
		t.Fatalf("second IssueSession: %v", err)
	}

	if got := store.activeCount("user-1"); got != 2 {
		t.Fatalf("expected 2 live sessions under the policy, got %d", got)
	}
	for _, tc := range []struct{ token, source string }{{first, "10.0.0.1"}, {second, "10.0.0.2"}} {
		res, err := m.Validate(ctx, tc.token, "user-1", tc.source)
		if err != nil || !res.Valid {
			t.Fatalf("expected both sessions valid, got res=%+v err=%v", res, err)
		}
	}

	// A third login supersedes the oldest only.
	clock.Advance(time.Minute)
	if _, err := m.IssueSession(ctx, testIdentity(), "10.0.0.3"); err != nil {
		t.Fatalf("third IssueSession: %v", err)
	}
	res, err := m.Validate(ctx, first, "user-1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Validate first: %v", err)
	}
	if res.Valid {
		t.Fatal("oldest session should have been superseded")
	}
	res, err = m.Validate(ctx, second, "user-1", "10.0.0.2")
	if err != nil || !res.Valid {
		t.Fatalf("second session should survive, got res=%+v err=%v", res, err)
	}
}

func TestPolicyRejectsWhenSupersedeDisabled(t *testing.T) {
	m, _, clock := newTestManager(t, policyengine.Static{
		Decision: policyengine.Decision{MaxActiveSessions: 1, SupersedeExisting: false},
	})
	ctx := context.Background()

	first, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("first IssueSession: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := m.IssueSession(ctx, testIdentity(), "10.0.0.2"); !errors.Is(err, ErrSessionLimit) {
		t.Fatalf("expected ErrSessionLimit, got %v", err)
	}

	// The existing session is untouched by the rejected login.
	res, err := m.Validate(ctx, first, "user-1", "10.0.0.1")
	if err != nil || !res.Valid {
		t.Fatalf("existing session must survive a rejected login, got res=%+v err=%v", res, err)
	}
}

func TestDescribe(t *testing.T) {
	m, _, clock := newTestManager(t, nil)
	ctx := context.Background()

	token, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	d, err := m.Describe(ctx, token)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !d.Valid {
		t.Fatalf("expected live description, got %+v", d)
	}
	if d.Claims == nil || d.Claims.Username != "jdoe" || d.Claims.IP != "10.0.0.1" {
		t.Fatalf("unexpected claims: %+v", d.Claims)
	}
	if want := clock.Now().Add(30 * time.Minute); !d.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiration %v, got %v", want, d.ExpiresAt)
	}

	// Describe reflects store state even when the window has lapsed.
	clock.Advance(31 * time.Minute)
	d, err = m.Describe(ctx, token)
	if err != nil {
		t.Fatalf("Describe after lapse: %v", err)
	}
	if d.Valid {
		t.Fatal("lapsed session must describe as invalid")
	}

	d, err = m.Describe(ctx, "garbage")
	if err != nil {
		t.Fatalf("Describe garbage: %v", err)
	}
	if d.Valid || d.Claims != nil {
		t.Fatalf("expected empty description for garbage token, got %+v", d)
	}
}

func TestConcurrentLoginsKeepSingleSession(t *testing.T) {
	m, store, _ := newTestManager(t, nil)
	ctx := context.Background()

	const logins = 8
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.IssueSession(ctx, testIdentity(), "10.0.0.1"); err != nil {
				t.Errorf("IssueSession: %v", err)
			}
		}()
	}
	wg.Wait()

	// All logins share one clock instant, so the losers' rows stay in the
	// active table soft-invalidated. At most one session may be live.
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	live := 0
	store.mu.Lock()
	for _, s := range store.sessions {
		if s.Live(now) {
			live++
		}
	}
	store.mu.Unlock()
	if live > 1 {
		t.Fatalf("expected at most 1 live session, got %d", live)
	}
}
