package engine

import "github.com/holiman/uint256"

// Address is a 20-byte account address.
type Address [20]byte

// lowU16 extracts the address's low 16 bits the way a precompile dispatch
// table selects on them: the last two bytes, big-endian.
func (a Address) lowU16() uint16 {
	return uint16(a[19]) | uint16(a[18])<<8
}

// World is the external collaborator the engine consults for code and
// persistent storage. Implementations own the real backing store; the
// engine only ever sees it through ModifiedWorld's transactional overlay.
type World interface {
	// Decommit resolves an address to the program it should execute. It
	// must return the same *Program for the same address for the duration
	// of a run.
	Decommit(address Address) (*Program, error)
	ReadStorage(address Address, key uint256.Int) uint256.Int
	WriteStorage(address Address, key, value uint256.Int)
}

// Event is a log record emitted by SStore's sibling instructions (not
// modeled further here; the journal exists so rollback has something
// concrete to truncate besides storage writes, per the design note in
// SPEC_FULL.md §9).
type Event struct {
	Address Address
	Topics  []uint256.Int
	Data    []byte
}

type storageWrite struct {
	Address Address
	Key     uint256.Int
	Value   uint256.Int
}

// Snapshot is an opaque token denoting a point in ModifiedWorld's
// append-only journals. It supports truncation (Rollback) but not fork.
type Snapshot struct {
	storageLen int
	eventLen   int
}

// ModifiedWorld is a journaling overlay over a World: reads consult the
// journal of writes made so far (most recent first) before falling through
// to the underlying store, and Rollback truncates the journals back to an
// earlier Snapshot.
type ModifiedWorld struct {
	underlying World
	writes     []storageWrite
	events     []Event
	decommits  map[Address]*Program
}

// NewModifiedWorld wraps underlying in a fresh, empty overlay.
func NewModifiedWorld(underlying World) *ModifiedWorld {
	return &ModifiedWorld{
		underlying: underlying,
		decommits:  make(map[Address]*Program),
	}
}

// ReadStorage returns the most recently journaled write to (address, key),
// or the underlying store's value if there is none.
func (w *ModifiedWorld) ReadStorage(address Address, key uint256.Int) uint256.Int {
	for i := len(w.writes) - 1; i >= 0; i-- {
		sw := w.writes[i]
		if sw.Address == address && sw.Key == key {
			return sw.Value
		}
	}
	return w.underlying.ReadStorage(address, key)
}

// WriteStorage journals a write. The underlying store is never touched by
// the engine: a successful, non-reverted run's effects are applied by the
// embedder replaying the journal after Run returns, which is what makes
// Rollback a pure, in-memory operation.
func (w *ModifiedWorld) WriteStorage(address Address, key, value uint256.Int) {
	w.writes = append(w.writes, storageWrite{address, key, value})
}

// Writes returns the journaled storage writes in program order, for an
// embedder to apply to its real backing store once a run finishes without
// reverting.
func (w *ModifiedWorld) Writes() []struct {
	Address Address
	Key     uint256.Int
	Value   uint256.Int
} {
	out := make([]struct {
		Address Address
		Key     uint256.Int
		Value   uint256.Int
	}, len(w.writes))
	for i, sw := range w.writes {
		out[i] = struct {
			Address Address
			Key     uint256.Int
			Value   uint256.Int
		}{sw.Address, sw.Key, sw.Value}
	}
	return out
}

// RecordEvent journals an event.
func (w *ModifiedWorld) RecordEvent(e Event) {
	w.events = append(w.events, e)
}

// Decommit resolves and caches code for address; repeated decommits of the
// same address within one run return the identical *Program.
func (w *ModifiedWorld) Decommit(address Address) (*Program, error) {
	if p, ok := w.decommits[address]; ok {
		return p, nil
	}
	p, err := w.underlying.Decommit(address)
	if err != nil {
		return nil, err
	}
	w.decommits[address] = p
	return p, nil
}

// Snapshot captures the current journal lengths.
func (w *ModifiedWorld) Snapshot() Snapshot {
	return Snapshot{storageLen: len(w.writes), eventLen: len(w.events)}
}

// Rollback truncates the journals back to s. The effective view reverts;
// the underlying store needs no undo, since WriteStorage never touches it.
func (w *ModifiedWorld) Rollback(s Snapshot) {
	w.writes = w.writes[:s.storageLen]
	w.events = w.events[:s.eventLen]
}
