package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/cmdmgr/internal/command"
)

// Binding assigns a key to a command.
type Binding struct {
	Name string

	// Index selects a member of a multi-item group. It is 0 otherwise.
	Index int

	// Key is the shortcut in canonical form; "" records an explicit unbind.
	Key string
}

// Policy selects which bindings Export emits.
type Policy uint8

const (
	// Customized emits only records whose key differs from the default,
	// explicit unbinds included.
	Customized Policy = iota

	// All emits every record.
	All
)

// String returns a string representation of the policy.
func (p Policy) String() string {
	switch p {
	case Customized:
		return "customized"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "customized" or "all".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "customized":
		return Customized, nil
	case "all":
		return All, nil
	default:
		return Customized, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Export returns the registry's bindings in registration order.
// Hidden records are included under both policies.
func Export(reg *command.Registry, p Policy) []Binding {
	var out []Binding
	for _, rec := range reg.Records() {
		if p == Customized && rec.Key == rec.DefaultKey {
			continue
		}
		out = append(out, Binding{Name: rec.Name, Index: rec.Index, Key: rec.Key})
	}
	return out
}

// Report summarizes an Apply or Load.
type Report struct {
	// Applied counts bindings that were set.
	Applied int

	// Skipped counts bindings naming commands the registry does not know.
	Skipped int

	// Malformed counts entries that could not be interpreted, including
	// unparseable keys.
	Malformed int

	// Unknown lists the skipped names.
	Unknown []string

	// Problems holds one error per malformed entry.
	Problems []error
}

// Apply sets each binding in order. Later bindings win when two claim the
// same key.
func Apply(reg *command.Registry, bindings []Binding) Report {
	var rep Report
	for _, b := range bindings {
		err := reg.SetMemberKey(b.Name, b.Index, b.Key)
		switch {
		case err == nil:
			rep.Applied++
		case errors.Is(err, command.ErrUnknownName), errors.Is(err, command.ErrInvalidIndex):
			rep.Skipped++
			rep.Unknown = append(rep.Unknown, b.Name)
		default:
			rep.Malformed++
			rep.Problems = append(rep.Problems, err)
		}
	}
	return rep
}

// WithProblems returns the report with decode problems folded in.
func (r Report) WithProblems(problems []*MalformedError) Report {
	r.add(problems)
	return r
}

// add folds decode problems into the report.
func (r *Report) add(problems []*MalformedError) {
	for _, p := range problems {
		r.Malformed++
		r.Problems = append(r.Problems, p)
	}
}
