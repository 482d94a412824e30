// Package engine implements the call-frame stack, predicated instruction
// dispatch, fat-pointer heap model and gas metering of the zkEVM-style
// execution engine.
package engine

// Flags is the three-bit ALU flag state read by predicates and written by
// arithmetic/comparison handlers when their set_flags bit is set.
type Flags struct {
	LtOf bool // unsigned overflow/underflow occurred
	EQ   bool // result == 0
	GT   bool // strictly greater than zero, no overflow
}

// NewFlags builds a Flags triple. Kept as a constructor (rather than a bare
// literal) so call sites read the same way the predicate table does.
func NewFlags(ltOf, eq, gt bool) Flags {
	return Flags{LtOf: ltOf, EQ: eq, GT: gt}
}

// errorFlags is the flag state installed on revert and on panic unwind:
// (true, false, false).
func errorFlags() Flags {
	return Flags{LtOf: true}
}
