// Package service implements the session lifecycle: issuance with
// single-active-session enforcement, dual validation against the token
// signature and the session store, sliding expiration, and revocation with a
// complete archival trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	policyengine "student-portal/backend/internal/policy/engine"
	"student-portal/backend/internal/security"
	"student-portal/backend/internal/session/domain"
)

// Sentinel errors for the lifecycle manager.
var (
	// ErrSessionLimit is returned by IssueSession when the concurrency policy
	// forbids superseding and the identity is already at its session limit.
	ErrSessionLimit = errors.New("active session limit reached for identity")
)

// NoteSuperseded is recorded on a live session that is invalidated in place
// because its owner signed in again from another device. Validate reports it
// verbatim when the superseded token is presented later.
const NoteSuperseded = "session superseded by a new login from another device"

// Code classifies a validation outcome so callers can distinguish
// log-in-again situations from access-denied ones without parsing reasons.
type Code int

const (
	CodeOK Code = iota
	// CodeMalformed: the token could not be parsed at all.
	CodeMalformed
	// CodeInvalidSignature: the token parsed but its signature, registered
	// claims, or embedded hard expiration failed verification.
	CodeInvalidSignature
	// CodeClaimMismatch: the signature is valid but the identity or source
	// address does not match the caller-supplied context.
	CodeClaimMismatch
	// CodeNotFound: no active store record exists for the token.
	CodeNotFound
	// CodeExpired: the store record exists but its expiration has passed.
	CodeExpired
)

// Result is the outcome of Validate: a validity flag plus a human-readable
// reason that never leaks internal detail.
type Result struct {
	Valid  bool
	Code   Code
	Reason string
}

// Description is the introspection view of a token for diagnostic endpoints.
type Description struct {
	Valid     bool
	Claims    *security.SessionClaims
	IssuedAt  time.Time
	ExpiresAt time.Time
	Note      string
}

// Codec is the minimal token codec needed by the manager. Sign/verify are
// pure and CPU-bound; all blocking happens in the store.
type Codec interface {
	Issue(ident security.Identity, sourceAddress string) (string, error)
	Verify(token string) (*security.SessionClaims, error)
	Decode(token string) (*security.SessionClaims, error)
}

// Store is the minimal session repository needed by the manager.
type Store interface {
	Put(ctx context.Context, s *domain.Session) error
	FindActiveByToken(ctx context.Context, token string) (*domain.Session, error)
	ListByIdentity(ctx context.Context, userID string) ([]*domain.Session, error)
	ExtendExpiration(ctx context.Context, token string, newExpiresAt time.Time) error
	Invalidate(ctx context.Context, token, note string, expiresAt time.Time) error
	Archive(ctx context.Context, s *domain.Session, reason string, archivedAt time.Time) error
}

// Manager orchestrates the session lifecycle over an injected store, codec,
// clock, and concurrency policy.
type Manager struct {
	store  Store
	codec  Codec
	policy policyengine.Evaluator
	window time.Duration
	clock  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager returns a Manager with the given dependencies. window is the
// sliding expiration applied to store records; it must be positive and should
// not exceed the codec's embedded hard ceiling. policy may be nil for the
// default single-session behavior; clock may be nil for time.Now.
func NewManager(store Store, codec Codec, policy policyengine.Evaluator, window time.Duration, clock func() time.Time) *Manager {
	if policy == nil {
		policy = policyengine.Static{Decision: policyengine.DefaultDecision()}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		store:  store,
		codec:  codec,
		policy: policy,
		window: window,
		clock:  clock,
		locks:  make(map[string]*sync.Mutex),
	}
}

// IssueSession sweeps the identity's existing sessions, mints a new signed
// token, and persists it as the active session. Stale rows are archived;
// still-live sessions beyond the policy's limit are invalidated in place so a
// second login silently supersedes the first. The sweep-then-insert sequence
// is serialized per identity within this process.
func (m *Manager) IssueSession(ctx context.Context, ident security.Identity, sourceAddress string) (string, error) {
	unlock := m.lockIdentity(ident.ID)
	defer unlock()

	if err := m.sweep(ctx, ident.ID); err != nil {
		return "", err
	}

	token, err := m.codec.Issue(ident, sourceAddress)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}

	now := m.clock()
	s := &domain.Session{
		Token:     token,
		UserID:    ident.ID,
		IP:        sourceAddress,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.window),
	}
	if err := m.store.Put(ctx, s); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Validate runs the two independent checks on a presented token: the
// cryptographic check (signature, hard expiration, claims match) and the
// store check (an active record with a live sliding expiration). Either
// failing short-circuits with a reason; only store/codec failures are
// returned as errors.
func (m *Manager) Validate(ctx context.Context, token, identityID, sourceAddress string) (Result, error) {
	if token == "" || identityID == "" || sourceAddress == "" {
		return invalid(CodeMalformed, "the session information provided is incomplete"), nil
	}

	claims, err := m.codec.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenMalformed):
			return invalid(CodeMalformed, "the session is no longer active or does not exist. Please log in"), nil
		case errors.Is(err, security.ErrTokenExpired):
			return invalid(CodeExpired, "the session is no longer active or does not exist. Please log in"), nil
		default:
			return invalid(CodeInvalidSignature, "the session is no longer active or does not exist. Please log in"), nil
		}
	}
	if claims.Subject != identityID || claims.IP != sourceAddress {
		return invalid(CodeClaimMismatch, "the session information provided is incorrect"), nil
	}

	s, err := m.store.FindActiveByToken(ctx, token)
	if err != nil {
		return Result{}, fmt.Errorf("session lookup: %w", err)
	}
	if s == nil {
		return invalid(CodeNotFound, "no active session found. Please log in"), nil
	}
	if !s.Live(m.clock()) {
		if s.Note != "" {
			return invalid(CodeExpired, s.Note), nil
		}
		return invalid(CodeExpired, "the session has expired due to inactivity. Please log in again"), nil
	}

	return Result{Valid: true, Code: CodeOK}, nil
}

// ExtendExpiration pushes the active record's sliding expiration to
// now + window. No-op if the token has no active record.
func (m *Manager) ExtendExpiration(ctx context.Context, token string) error {
	s, err := m.store.FindActiveByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("session lookup: %w", err)
	}
	if s == nil {
		return nil
	}
	return m.store.ExtendExpiration(ctx, token, m.clock().Add(m.window))
}

// Authorize is the per-request flow used by authorization middleware:
// Validate, then slide the expiration forward, but only after a fully
// successful validation on a live context.
func (m *Manager) Authorize(ctx context.Context, token, identityID, sourceAddress string) (Result, error) {
	res, err := m.Validate(ctx, token, identityID, sourceAddress)
	if err != nil || !res.Valid {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		// Cancelled mid-flight: report the verdict but do not extend.
		return res, err
	}
	if err := m.ExtendExpiration(ctx, token); err != nil {
		return res, err
	}
	return res, nil
}

// Revoke archives the named active session with reason "logout". Returns
// false when no matching active session exists.
func (m *Manager) Revoke(ctx context.Context, token string) (bool, error) {
	s, err := m.store.FindActiveByToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("session lookup: %w", err)
	}
	if s == nil {
		return false, nil
	}
	if err := m.store.Archive(ctx, s, domain.ReasonLogout, m.clock()); err != nil {
		return false, fmt.Errorf("archive session: %w", err)
	}
	return true, nil
}

// DeactivateIdentity archives every remaining session for the identity, so no
// session outlives an administrative deactivation. Live sessions are archived
// with reason "deactivated"; stale ones with the reason they already earned.
func (m *Manager) DeactivateIdentity(ctx context.Context, identityID string) error {
	unlock := m.lockIdentity(identityID)
	defer unlock()

	sessions, err := m.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	now := m.clock()
	for _, s := range sessions {
		reason := domain.ReasonDeactivated
		if !s.Live(now) {
			reason = staleReason(s)
		}
		if err := m.store.Archive(ctx, s, reason, now); err != nil {
			return fmt.Errorf("archive session: %w", err)
		}
	}
	return nil
}

// Describe returns the diagnostic view of a token: decoded (unverified)
// claims plus the store record's timestamps and validity. Intended for
// admin/diagnostic endpoints only.
func (m *Manager) Describe(ctx context.Context, token string) (*Description, error) {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return &Description{Valid: false}, nil
	}
	s, err := m.store.FindActiveByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if s == nil {
		return &Description{Valid: false, Claims: claims}, nil
	}
	return &Description{
		Valid:     s.Live(m.clock()),
		Claims:    claims,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
		Note:      s.Note,
	}, nil
}

// sweep reconciles the identity's rows in the active table: stale rows move
// to the archive with their terminal reason, and live rows beyond what the
// concurrency policy allows for the incoming login are invalidated in place
// (note + expiration forced to now). They are archived by a later sweep,
// which is what lets Validate report the supersession note in the meantime.
func (m *Manager) sweep(ctx context.Context, identityID string) error {
	sessions, err := m.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	now := m.clock()
	var live []*domain.Session
	for _, s := range sessions {
		if s.Live(now) {
			live = append(live, s)
			continue
		}
		if err := m.store.Archive(ctx, s, staleReason(s), now); err != nil {
			return fmt.Errorf("archive session: %w", err)
		}
	}

	decision, err := m.policy.EvaluateSessionPolicy(ctx, policyengine.Input{
		IdentityID:     identityID,
		ActiveSessions: len(live),
	})
	if err != nil {
		decision = policyengine.DefaultDecision()
	}

	// How many live sessions must go so the new one fits under the limit.
	surplus := len(live) - decision.MaxActiveSessions + 1
	if surplus <= 0 {
		return nil
	}
	if !decision.SupersedeExisting {
		return ErrSessionLimit
	}
	for _, s := range live[:surplus] { // oldest first; ListByIdentity orders by issuance
		if err := m.store.Invalidate(ctx, s.Token, NoteSuperseded, now); err != nil {
			return fmt.Errorf("invalidate session: %w", err)
		}
	}
	return nil
}

// staleReason maps an already-expired active row to its archive reason: rows
// soft-invalidated by a newer login were superseded, the rest simply expired.
func staleReason(s *domain.Session) string {
	if s.Note != "" {
		return domain.ReasonSuperseded
	}
	return domain.ReasonExpired
}

func (m *Manager) lockIdentity(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func invalid(code Code, reason string) Result {
	return Result{Valid: false, Code: code, Reason: reason}
}
