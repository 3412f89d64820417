// Package backend defines the core interfaces and types for sigtap
// interception backends. Each backend implementation (funcgate, or a
// host-specific mechanism) should be in its own sub-package and register
// itself with the backend registry.
package backend

import (
	"fmt"
	"strings"
)

// JoinPoint identifies an interceptable call site by owning type, member
// name and parameter type names. All three parts take part in equality so
// overloaded members resolve unambiguously.
type JoinPoint struct {
	Owner  string
	Name   string
	Params []string
}

// Signature renders the join point as "Owner.Name(param1,param2)". The
// rendered form is stable and is used as the registration key.
func (jp JoinPoint) Signature() string {
	return fmt.Sprintf("%s.%s(%s)", jp.Owner, jp.Name, strings.Join(jp.Params, ","))
}

func (jp JoinPoint) String() string { return jp.Signature() }

// ParseJoinPoint parses "Owner.Name(param1,param2)" into a JoinPoint. The
// owner may itself contain dots; the member name is the last segment before
// the parameter list. An empty parameter list is valid.
func ParseJoinPoint(s string) (JoinPoint, error) {
	s = strings.TrimSpace(s)
	open := strings.LastIndex(s, "(")
	if open < 0 || !strings.HasSuffix(s, ")") {
		return JoinPoint{}, fmt.Errorf("join point %q: missing parameter list", s)
	}

	head := s[:open]
	dot := strings.LastIndex(head, ".")
	if dot <= 0 || dot == len(head)-1 {
		return JoinPoint{}, fmt.Errorf("join point %q: expected Owner.Name before parameter list", s)
	}

	jp := JoinPoint{Owner: head[:dot], Name: head[dot+1:]}
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner != "" {
		for _, p := range strings.Split(inner, ",") {
			jp.Params = append(jp.Params, strings.TrimSpace(p))
		}
	}
	return jp, nil
}

// PreHook runs before the intercepted call with its arguments. Returning
// false suppresses the original call. Observe-only hooks always return true.
type PreHook func(args []any) bool

// PostHook runs after the intercepted call completed, with the original
// arguments and the call's result. Backends whose call sites return more
// than one value pass the results as a []any.
type PostHook func(args []any, result any)

// Registration is a live hook installation. Closing it removes the hooks
// from the join point.
type Registration interface {
	// JoinPoint returns the call site this registration is attached to.
	JoinPoint() JoinPoint
	// Close removes the hooks. Closing twice is a no-op.
	Close() error
}

// Backend installs hooks at join points. Either hook may be nil; installing
// with both nil is an error.
type Backend interface {
	// Name returns the backend identifier used in the registry.
	Name() string

	// Install attaches the given hooks to the join point. It returns an
	// error when the join point cannot be resolved by this backend.
	Install(jp JoinPoint, pre PreHook, post PostHook) (Registration, error)

	// Capabilities reports what this backend supports.
	Capabilities() Capabilities
}
