package ident

import (
	"errors"
	"math"
	"testing"
)

func TestAllocatorStartsAboveReserved(t *testing.T) {
	a := NewAllocator(100)
	id, err := a.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if id != 101 {
		t.Errorf("first id = %d, want 101", id)
	}
	if a.IsReserved(id) {
		t.Error("issued id inside reserved range")
	}
}

func TestAllocatorDefaultReserved(t *testing.T) {
	a := NewAllocator(0)
	if a.Reserved() != DefaultReserved {
		t.Errorf("Reserved() = %d, want %d", a.Reserved(), DefaultReserved)
	}
	id, _ := a.Next()
	if id != DefaultReserved+1 {
		t.Errorf("first id = %d", id)
	}
}

func TestAllocatorBlockIsContiguous(t *testing.T) {
	a := NewAllocator(10)
	first, _ := a.Next()
	base, err := a.Block(4)
	if err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	if base != first+1 {
		t.Errorf("block base = %d, want %d", base, first+1)
	}
	next, _ := a.Next()
	if next != base+4 {
		t.Errorf("id after block = %d, want %d", next, base+4)
	}
	if a.Last() != next {
		t.Errorf("Last() = %d, want %d", a.Last(), next)
	}
}

func TestAllocatorInvalidBlock(t *testing.T) {
	a := NewAllocator(10)
	if _, err := a.Block(0); err == nil {
		t.Error("expected error for empty block")
	}
	if a.Last() != 10 {
		t.Error("failed allocation advanced the counter")
	}
}

func TestAllocatorExhausted(t *testing.T) {
	a := NewAllocator(math.MaxInt32 - 2)
	if _, err := a.Block(2); err != nil {
		t.Fatalf("Block(2) error = %v", err)
	}
	_, err := a.Next()
	if !errors.Is(err, ErrAllocationExhausted) {
		t.Errorf("Next() error = %v, want ErrAllocationExhausted", err)
	}
}
