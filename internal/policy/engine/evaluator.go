package engine

import "context"

// Decision holds the result of session-concurrency policy evaluation.
type Decision struct {
	// MaxActiveSessions is how many live sessions one identity may hold.
	MaxActiveSessions int
	// SupersedeExisting controls what happens to surplus live sessions on a
	// new login: invalidate the oldest (true) or reject the login (false).
	SupersedeExisting bool
}

// Input describes the login being evaluated.
type Input struct {
	IdentityID     string
	ActiveSessions int
}

// Evaluator evaluates session-concurrency policies using OPA or other engines.
type Evaluator interface {
	// EvaluateSessionPolicy decides how many concurrent sessions the identity
	// may hold and whether a new login supersedes existing ones.
	EvaluateSessionPolicy(ctx context.Context, in Input) (Decision, error)
}

// DefaultDecision is the built-in behavior: one session per identity, new
// logins silently supersede the previous one.
func DefaultDecision() Decision {
	return Decision{MaxActiveSessions: 1, SupersedeExisting: true}
}

// Static is an Evaluator that always returns the same decision. Used when no
// policy store is wired.
type Static struct {
	Decision Decision
}

func (s Static) EvaluateSessionPolicy(ctx context.Context, in Input) (Decision, error) {
	return s.Decision, nil
}
