// Package ident issues the stable integer identifiers assigned to commands.
package ident

import (
	"errors"
	"fmt"
	"math"
)

// ID identifies one command record for the lifetime of a registry.
type ID int32

// None is never issued.
const None ID = 0

// DefaultReserved is the highest identifier kept for toolkit-internal use.
const DefaultReserved ID = 5999

// ErrAllocationExhausted indicates the identifier space is used up.
// It is a capacity guard; callers should treat it as a fatal configuration error.
var ErrAllocationExhausted = errors.New("ident: identifier space exhausted")

// Allocator hands out identifiers from a monotonically increasing counter
// that starts above a reserved range. Identifiers are never reused.
type Allocator struct {
	reserved ID
	last     ID
	max      ID
}

// NewAllocator creates an allocator whose first identifier is reserved+1.
// A non-positive reserved value selects DefaultReserved.
func NewAllocator(reserved ID) *Allocator {
	if reserved <= 0 {
		reserved = DefaultReserved
	}
	return &Allocator{
		reserved: reserved,
		last:     reserved,
		max:      math.MaxInt32,
	}
}

// Reserved returns the top of the reserved range.
func (a *Allocator) Reserved() ID {
	return a.reserved
}

// Last returns the most recently issued identifier, or Reserved() if none.
func (a *Allocator) Last() ID {
	return a.last
}

// Next issues one identifier.
func (a *Allocator) Next() (ID, error) {
	return a.Block(1)
}

// Block reserves count contiguous identifiers and returns the first.
// base+i is valid for every i in [0, count).
func (a *Allocator) Block(count int) (ID, error) {
	if count <= 0 {
		return None, fmt.Errorf("ident: invalid block size %d", count)
	}
	if int64(a.last)+int64(count) > int64(a.max) {
		return None, fmt.Errorf("%w: need %d after %d", ErrAllocationExhausted, count, a.last)
	}
	base := a.last + 1
	a.last += ID(count)
	return base, nil
}

// IsReserved reports whether id falls inside the reserved range.
func (a *Allocator) IsReserved(id ID) bool {
	return id <= a.reserved
}
