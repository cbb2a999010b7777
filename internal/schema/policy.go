package schema

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// Action is what a ConflictPolicy decides for an incoming module
type Action int

const (
	// Keep the module already indexed and drop the incoming one
	Keep Action = iota
	// Replace the indexed module with the incoming one
	Replace
	// Rename indexes the incoming module under Resolution.Anchor
	Rename
)

// Resolution is a ConflictPolicy decision
type Resolution struct {
	Action Action
	Anchor string
}

// Conflict describes an incoming module whose anchor is already taken
type Conflict struct {
	Anchor   string
	Existing models.SchemaModule
	Incoming models.SchemaModule
	// Taken reports whether an anchor is already in use
	Taken func(anchor string) bool
}

// ConflictPolicy settles anchor collisions during Build. Returning an error
// aborts the build.
type ConflictPolicy interface {
	Resolve(c Conflict) (Resolution, error)
}

// ConflictPolicyFunc adapts a function to ConflictPolicy
type ConflictPolicyFunc func(c Conflict) (Resolution, error)

func (f ConflictPolicyFunc) Resolve(c Conflict) (Resolution, error) {
	return f(c)
}

// Built-in policy names accepted by PolicyByName
const (
	PolicyReject    = "reject"
	PolicyKeepFirst = "keep-first"
	PolicyOverwrite = "overwrite"
	PolicySuffix    = "suffix"
)

// RejectPolicy fails the build with an IndexConflictError
func RejectPolicy() ConflictPolicy {
	return ConflictPolicyFunc(func(c Conflict) (Resolution, error) {
		return Resolution{}, &IndexConflictError{Anchor: c.Anchor, Existing: c.Existing.Name, Incoming: c.Incoming.Name}
	})
}

// KeepFirstPolicy keeps whichever module was indexed first
func KeepFirstPolicy() ConflictPolicy {
	return ConflictPolicyFunc(func(Conflict) (Resolution, error) {
		return Resolution{Action: Keep}, nil
	})
}

// OverwritePolicy lets the later module win
func OverwritePolicy() ConflictPolicy {
	return ConflictPolicyFunc(func(Conflict) (Resolution, error) {
		return Resolution{Action: Replace}, nil
	})
}

// SuffixPolicy indexes the later module as anchor-2, anchor-3, ...
func SuffixPolicy() ConflictPolicy {
	return ConflictPolicyFunc(func(c Conflict) (Resolution, error) {
		for i := 2; ; i++ {
			candidate := fmt.Sprintf("%s-%d", c.Anchor, i)
			if c.Taken == nil || !c.Taken(candidate) {
				return Resolution{Action: Rename, Anchor: candidate}, nil
			}
		}
	})
}

// PolicyByName returns a built-in policy
func PolicyByName(name string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyReject:
		return RejectPolicy(), nil
	case PolicyKeepFirst:
		return KeepFirstPolicy(), nil
	case PolicyOverwrite:
		return OverwritePolicy(), nil
	case "", PolicySuffix:
		return SuffixPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown conflict policy %q", name)
	}
}
