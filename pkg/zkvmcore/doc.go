// Package zkvmcore provides a deterministic, register-based, gas-metered
// execution engine for contract-oriented zkEVM-style bytecode.
//
// zkvm-core implements the call-frame stack, predicated instruction
// dispatch, fat-pointer heap model, gas metering and rollback semantics of
// a zkEVM-style virtual machine. It does not decode wire bytecode, generate
// execution traces, prove anything, or run more than one VM concurrently:
// an embedder builds a Program directly out of engine.Instruction values
// and drives exactly one VM per goroutine.
//
// # Quick Start
//
// Running a program against a World implementation:
//
//	vm, err := zkvmcore.NewVM(world, zkvmcore.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := vm.Run(address, caller, program, calldata)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	switch result.Kind {
//	case engine.EndProgramFinished:
//		fmt.Println("returned:", result.Output)
//	case engine.EndReverted:
//		fmt.Println("reverted:", result.Output)
//	case engine.EndPanicked:
//		fmt.Println("panicked")
//	}
//
// # Architecture
//
// zkvm-core uses a hybrid public/private architecture:
//
//   - pkg/zkvmcore/: Public API (this package)
//   - internal/zkvmcore/engine/: Private implementation (not importable)
//
// The public API provides stable interfaces for constructing a VM,
// running or resuming it, and reading back its result. Implementation
// details in internal/ can be refactored without breaking the public API.
package zkvmcore
