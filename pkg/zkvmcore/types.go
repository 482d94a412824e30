package zkvmcore

import (
	"github.com/holiman/uint256"

	"github.com/vybium/zkvm-core/internal/zkvmcore/engine"
)

// Word is the 256-bit value every register, stack slot and storage cell
// holds.
type Word = uint256.Int

// Address is a 20-byte account address.
type Address = engine.Address

// Program is a fully decoded, ready-to-run instruction sequence plus its
// constant code page. Building one is the embedder's job: decoding from a
// wire bytecode format is outside this package's scope.
type Program = engine.Program

// Instruction is a single decoded (handler, arguments) dispatch record.
type Instruction = engine.Instruction

// Arguments is the decoded operand set of one Instruction.
type Arguments = engine.Arguments

// World is the storage and code backend an embedder implements.
type World = engine.World

// Event is a log record emitted during execution.
type Event = engine.Event

// Precompile computes a fixed function over raw input bytes.
type Precompile = engine.Precompile

// Config configures a freshly constructed VM.
type Config struct {
	// GasLimit is the gas budget given to the root call.
	GasLimit uint32

	// Precompiles overrides the default registry (keccak256, sha256). A
	// nil value uses NewPrecompileRegistry's defaults.
	Precompiles *engine.PrecompileRegistry
}

// DefaultConfig returns a Config with a generous default gas limit and the
// default precompile registry.
func DefaultConfig() *Config {
	return &Config{GasLimit: 1 << 28}
}

// RunResult is what a completed run reports back to the embedder.
type RunResult struct {
	// Kind distinguishes a clean finish from a revert, a panic, or a
	// suspend on a hook.
	Kind engine.EndKind

	// Output is the returned or reverted data region, nil on panic.
	Output []byte

	// Panic names the specific violation that caused the run to panic. It
	// is engine.NoPanic unless Kind == engine.EndPanicked.
	Panic engine.PanicKind

	// Hook and ResumeIP are populated only when Kind is a suspend: the
	// embedder services Hook out of band and calls Resume with ResumeIP
	// to continue.
	Hook     uint32
	ResumeIP uint16

	// Writes lists the storage writes the run would commit, in program
	// order. Empty on revert or panic.
	Writes []struct {
		Address Address
		Key     uint256.Int
		Value   uint256.Int
	}
}
