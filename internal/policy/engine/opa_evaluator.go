package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"student-portal/backend/internal/policy/repository"
)

// Default Rego policy that matches the built-in single-session behavior.
const defaultRegoPolicy = `package studentportal.sessions

default max_active_sessions = 1
default supersede_existing = true
`

// OPAEvaluator evaluates session-concurrency policies using OPA Rego.
type OPAEvaluator struct {
	policyRepo repository.Repository
}

// NewOPAEvaluator returns an OPA-based policy evaluator.
func NewOPAEvaluator(policyRepo repository.Repository) *OPAEvaluator {
	return &OPAEvaluator{policyRepo: policyRepo}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and evaluate the default policy.
// Does not call the policy repo or database. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	modules := map[string]string{"policy_0.rego": defaultRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	q := rego.New(
		rego.Query("data.studentportal.sessions.max_active_sessions"),
		rego.Compiler(compiler),
		rego.Input(map[string]interface{}{"identity_id": "", "active_sessions": 0}),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateSessionPolicy evaluates the stored Rego policies for the login.
// Falls back to the default policy when none are stored, and to the default
// decision when evaluation fails.
func (e *OPAEvaluator) EvaluateSessionPolicy(ctx context.Context, in Input) (Decision, error) {
	input := map[string]interface{}{
		"identity_id":     in.IdentityID,
		"active_sessions": in.ActiveSessions,
	}

	var policies []string
	if e.policyRepo != nil {
		stored, err := e.policyRepo.GetEnabledPolicies(ctx)
		if err != nil {
			log.Printf("policy: failed to load session policies: %v", err)
		} else {
			for _, p := range stored {
				if p.Enabled && p.Rules != "" {
					policies = append(policies, p.Rules)
				}
			}
		}
	}

	if len(policies) == 0 {
		policies = []string{defaultRegoPolicy}
	}

	result, err := e.evaluatePolicies(ctx, policies, input)
	if err != nil {
		log.Printf("policy: evaluation failed: %v, using defaults", err)
		return DefaultDecision(), nil
	}

	return result, nil
}

func (e *OPAEvaluator) evaluatePolicies(ctx context.Context, policies []string, input map[string]interface{}) (Decision, error) {
	modules := make(map[string]string)
	for i, policy := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = policy
	}

	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return Decision{}, fmt.Errorf("compile policies: %w", err)
	}

	out := DefaultDecision()

	maxQuery := rego.New(
		rego.Query("data.studentportal.sessions.max_active_sessions"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	maxRS, err := maxQuery.Eval(ctx)
	if err == nil && len(maxRS) > 0 && len(maxRS[0].Expressions) > 0 {
		switch v := maxRS[0].Expressions[0].Value.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil && n > 0 {
				out.MaxActiveSessions = int(n)
			}
		case float64:
			if n := int(v); n > 0 {
				out.MaxActiveSessions = n
			}
		case int64:
			if v > 0 {
				out.MaxActiveSessions = int(v)
			}
		}
	}

	supersedeQuery := rego.New(
		rego.Query("data.studentportal.sessions.supersede_existing"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	supersedeRS, err := supersedeQuery.Eval(ctx)
	if err == nil && len(supersedeRS) > 0 && len(supersedeRS[0].Expressions) > 0 {
		if v, ok := supersedeRS[0].Expressions[0].Value.(bool); ok {
			out.SupersedeExisting = v
		}
	}

	return out, nil
}
