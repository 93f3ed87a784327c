// Package flags defines the bitmask types used to decide whether a command
// is currently permitted.
//
// Flags is the set of contextual conditions that are true right now (for
// example "a track is selected" or "audio is playing"). Mask selects which
// bits of Flags a particular command cares about; bits outside the mask are
// ignored. A command is enabled when the ambient flags agree with its
// required flags on every bit of its mask.
package flags

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Flags is a set of contextual conditions.
type Flags uint64

// Mask selects which Flags bits are relevant to a decision.
type Mask uint64

// None is the empty flag set.
const None Flags = 0

// Has reports whether every bit of other is set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// With returns f with other added.
func (f Flags) With(other Flags) Flags {
	return f | other
}

// Without returns f with other removed.
func (f Flags) Without(other Flags) Flags {
	return f &^ other
}

// AsMask reinterprets the flag bits as a mask.
func (f Flags) AsMask() Mask {
	return Mask(f)
}

// Policy is the pair of inputs to the enablement predicate.
type Policy struct {
	Required Flags
	Mask     Mask
}

// Always is the policy of a command that is enabled regardless of context.
var Always = Policy{}

// Require returns a policy that demands every bit of f and ignores the rest.
func Require(f Flags) Policy {
	return Policy{Required: f, Mask: f.AsMask()}
}

// Matches reports whether the ambient flags satisfy the policy.
func (p Policy) Matches(ambient Flags) bool {
	return Matches(ambient, p.Required, p.Mask)
}

// Missing returns the relevant bits where ambient disagrees with the policy.
func (p Policy) Missing(ambient Flags) Flags {
	return Missing(ambient, p.Required, p.Mask)
}

// Matches is the enablement predicate:
//
//	(ambient & mask) == (required & mask)
//
// A zero mask always matches.
func Matches(ambient, required Flags, mask Mask) bool {
	m := Flags(mask)
	return ambient&m == required&m
}

// Missing returns the bits under mask on which ambient and required disagree.
// It is zero exactly when Matches is true.
func Missing(ambient, required Flags, mask Mask) Flags {
	return (ambient ^ required) & Flags(mask)
}

// Names gives human-readable descriptions to individual flag bits so that
// a failed match can be explained to an end user.
type Names struct {
	byBit map[Flags]string
}

// NewNames creates an empty name table.
func NewNames() *Names {
	return &Names{byBit: make(map[Flags]string)}
}

// Define associates a description with a single bit.
// It returns an error if bit is zero or has more than one bit set.
func (n *Names) Define(bit Flags, description string) error {
	if bits.OnesCount64(uint64(bit)) != 1 {
		return fmt.Errorf("flags: %#x is not a single bit", uint64(bit))
	}
	n.byBit[bit] = description
	return nil
}

// Name returns the description of a single bit, or a generic label.
func (n *Names) Name(bit Flags) string {
	if n != nil {
		if s, ok := n.byBit[bit]; ok {
			return s
		}
	}
	return fmt.Sprintf("condition %d", bits.TrailingZeros64(uint64(bit)))
}

// Split returns the individual bits of f in ascending order.
func Split(f Flags) []Flags {
	out := make([]Flags, 0, bits.OnesCount64(uint64(f)))
	for v := uint64(f); v != 0; v &= v - 1 {
		out = append(out, Flags(v&-v))
	}
	return out
}

// Explain describes why ambient does not satisfy the policy. Bits the
// policy requires but which are absent are listed as needed; bits the policy
// forbids but which are present are listed as conflicting. An empty string
// means the policy matches.
func (n *Names) Explain(p Policy, ambient Flags) string {
	missing := p.Missing(ambient)
	if missing == 0 {
		return ""
	}

	var need, forbid []string
	for _, bit := range Split(missing) {
		if p.Required.Has(bit) {
			need = append(need, n.Name(bit))
		} else {
			forbid = append(forbid, n.Name(bit))
		}
	}
	sort.Strings(need)
	sort.Strings(forbid)

	var parts []string
	if len(need) > 0 {
		parts = append(parts, "requires "+strings.Join(need, ", "))
	}
	if len(forbid) > 0 {
		parts = append(parts, "not allowed while "+strings.Join(forbid, ", "))
	}
	return strings.Join(parts, "; ")
}
