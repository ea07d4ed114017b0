package lwar

import (
	"errors"
	"fmt"
)

// A NetworkIdentity identifies an entity slot shared between server and
// clients. The generation increments each time the slot's identifier is
// freed and reused, so stale references become detectably invalid.
type NetworkIdentity struct {
	Identifier uint16
	Generation uint16
}

func (id NetworkIdentity) String() string {
	return fmt.Sprintf("%d:%d", id.Identifier, id.Generation)
}

// ErrIdentitiesExhausted is returned by Allocate when all identifier slots
// are live.
var ErrIdentitiesExhausted = errors.New("lwar: out of network identities")

// An IdentityAllocator hands out generational identities from a fixed pool
// of identifier slots. Freed identifiers are reused in FIFO order with a
// bumped generation.
type IdentityAllocator struct {
	generations []uint16
	free        []uint16 // FIFO of freed identifiers
	next        uint16   // high-water mark: lowest never-allocated identifier
}

// NewIdentityAllocator returns an allocator with maxIdentities slots.
func NewIdentityAllocator(maxIdentities int) *IdentityAllocator {
	return &IdentityAllocator{
		generations: make([]uint16, maxIdentities),
	}
}

// Allocate returns a fresh valid identity, preferring freed identifiers
// over never-used ones.
func (a *IdentityAllocator) Allocate() (NetworkIdentity, error) {
	var identifier uint16
	if len(a.free) > 0 {
		identifier = a.free[0]
		a.free = a.free[1:]
	} else {
		if int(a.next) >= len(a.generations) {
			return NetworkIdentity{}, ErrIdentitiesExhausted
		}
		identifier = a.next
		a.next++
	}

	return NetworkIdentity{
		Identifier: identifier,
		Generation: a.generations[identifier],
	}, nil
}

// Free invalidates id and returns its identifier to the pool. Freeing an
// already-invalidated identity is a no-op, so the same identifier can never
// validate against its old generation again.
func (a *IdentityAllocator) Free(id NetworkIdentity) {
	if a.generations[id.Identifier] != id.Generation {
		return
	}

	a.generations[id.Identifier]++
	a.free = append(a.free, id.Identifier)
}

// IsValid reports whether id refers to the current occupant of its slot.
func (a *IdentityAllocator) IsValid(id NetworkIdentity) bool {
	return int(id.Identifier) < len(a.generations) &&
		a.generations[id.Identifier] == id.Generation
}

type identitySlot[T any] struct {
	id       NetworkIdentity
	value    T
	occupied bool
}

// An IdentityMap associates objects with network identities, keyed by the
// identity's identifier. Lookups against a stale generation report the slot
// as absent. The map relates to its values, it does not own their
// lifetimes.
type IdentityMap[T any] struct {
	slots []identitySlot[T]
}

// NewIdentityMap returns a map with capacity slots, matching the
// allocator's maxIdentities.
func NewIdentityMap[T any](capacity int) *IdentityMap[T] {
	return &IdentityMap[T]{slots: make([]identitySlot[T], capacity)}
}

// Add stores value under id. The slot must be empty.
func (m *IdentityMap[T]) Add(id NetworkIdentity, value T) {
	s := &m.slots[id.Identifier]
	if s.occupied {
		panic(fmt.Sprintf("lwar: IdentityMap: slot %d already occupied", id.Identifier))
	}

	s.id = id
	s.value = value
	s.occupied = true
}

// Remove clears id's slot. The stored generation must match id's.
func (m *IdentityMap[T]) Remove(id NetworkIdentity) {
	s := &m.slots[id.Identifier]
	if !s.occupied || s.id.Generation != id.Generation {
		panic(fmt.Sprintf("lwar: IdentityMap: removing %v from slot holding %v", id, s.id))
	}

	*s = identitySlot[T]{}
}

// Get returns the object stored under id. ok is false both when the slot is
// empty and when the stored generation differs from id's.
func (m *IdentityMap[T]) Get(id NetworkIdentity) (value T, ok bool) {
	if int(id.Identifier) >= len(m.slots) {
		return value, false
	}

	s := &m.slots[id.Identifier]
	if !s.occupied || s.id.Generation != id.Generation {
		return value, false
	}

	return s.value, true
}
