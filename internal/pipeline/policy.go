package pipeline

import (
	"fmt"
	"strings"
)

// Policy decides the boolean result of a publish call from its report.
type Policy int

const (
	// AnyDelivered is true when at least one publisher delivered.
	AnyDelivered Policy = iota
	// AllDelivered is true when at least one publisher was eligible and no
	// eligible publisher failed.
	AllDelivered
	// Attempted is true once the tag resolved to a valid model, whatever the
	// destinations did.
	Attempted
)

func (p Policy) String() string {
	switch p {
	case AnyDelivered:
		return "any"
	case AllDelivered:
		return "all"
	case Attempted:
		return "attempted"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses the String form of a policy. The empty string is
// AnyDelivered.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return AnyDelivered, nil
	case "all":
		return AllDelivered, nil
	case "attempted":
		return Attempted, nil
	default:
		return AnyDelivered, fmt.Errorf("unknown publish policy %q, must be one of: any, all, attempted", s)
	}
}
