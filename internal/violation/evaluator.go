// Package violation decides which identities are over the dwell threshold.
package violation

import (
	"fmt"
	"time"

	"dwellwatch/internal/model"
	"dwellwatch/internal/presence"
)

// Policy controls how often a violating identity is persisted.
type Policy string

const (
	// PolicyRefire persists a violation on every frame the identity stays over
	// the threshold. Failed writes are retried by the next frame.
	PolicyRefire Policy = "refire"
	// PolicyOnce persists a violation only until one write has succeeded for
	// the identity's current visit.
	PolicyOnce Policy = "once"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyRefire, PolicyOnce:
		return Policy(s), nil
	case "":
		return PolicyRefire, nil
	}
	return "", fmt.Errorf("unknown violation policy %q", s)
}

// Set is the set of identities in violation for one frame.
type Set map[model.IdentityID]struct{}

// Contains reports whether id is in the set.
func (s Set) Contains(id model.IdentityID) bool {
	_, ok := s[id]
	return ok
}

// Evaluate returns every identity whose duration is strictly greater than
// threshold.
func Evaluate(snapshot []presence.Entry, threshold time.Duration) Set {
	set := make(Set)
	for _, entry := range snapshot {
		if entry.Duration > threshold {
			set[entry.ID] = struct{}{}
		}
	}
	return set
}

// Evaluator applies a fixed threshold and policy to a session's tracker.
type Evaluator struct {
	threshold time.Duration
	policy    Policy
}

// NewEvaluator creates an evaluator. The threshold must be positive.
func NewEvaluator(threshold time.Duration, policy Policy) (*Evaluator, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("dwell threshold must be positive, got %v", threshold)
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = PolicyRefire
	}
	return &Evaluator{threshold: threshold, policy: policy}, nil
}

// Threshold returns the configured dwell threshold.
func (e *Evaluator) Threshold() time.Duration {
	return e.threshold
}

// Policy returns the configured firing policy.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Decision is the outcome of evaluating one frame.
type Decision struct {
	// Violating holds every identity over the threshold, used for annotation.
	Violating Set
	// Persist lists identities to write this frame, in first-observation order.
	Persist []model.IdentityID
}

// Decide evaluates the tracker's current state.
func (e *Evaluator) Decide(tracker *presence.Tracker) Decision {
	snapshot := tracker.Snapshot()
	violating := Evaluate(snapshot, e.threshold)

	decision := Decision{Violating: violating}
	for _, entry := range snapshot {
		if !violating.Contains(entry.ID) {
			continue
		}
		if e.policy == PolicyOnce && tracker.Flagged(entry.ID) {
			continue
		}
		decision.Persist = append(decision.Persist, entry.ID)
	}
	return decision
}
