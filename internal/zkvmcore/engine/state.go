package engine

import (
	"fmt"

	"github.com/holiman/uint256"
)

// numRegisters is the register file size, register 0 included (and always
// zero: writes to it are permitted but never observable on read).
const numRegisters = 16

// VirtualMachine is one execution context: a call stack of Callframes
// sharing a register file, flags, heap pool, and a ModifiedWorld overlay.
// It has no concurrency story by design: a VirtualMachine is driven by a
// single goroutine for its entire lifetime.
type VirtualMachine struct {
	Registers           [numRegisters]uint256.Int
	RegisterPointerFlags uint16
	Flags               Flags

	CurrentFrame *Callframe
	callStack    []*Callframe

	Heaps *Heaps
	World *ModifiedWorld

	Precompiles *PrecompileRegistry

	// TotalGasLimit bounds how much the root invocation was given; it is
	// informational only, the live budget lives on each Callframe.
	TotalGasLimit uint32
}

// New constructs a VirtualMachine with no active frame. Call RootCall to
// push the root frame before Run.
func New(world World, precompiles *PrecompileRegistry) *VirtualMachine {
	if precompiles == nil {
		precompiles = NewPrecompileRegistry()
	}
	return &VirtualMachine{
		Heaps:       NewHeaps(),
		World:       NewModifiedWorld(world),
		Precompiles: precompiles,
	}
}

// RootCall sets up the initial frame for a top-level contract invocation:
// register 1 is seeded with a fat pointer to the calldata, matching what a
// far call's callee sees on entry. Each RootCall starts from an empty call
// stack, heap pool and write journal; the calldata goes on reserved page 1.
func (vm *VirtualMachine) RootCall(address, caller Address, program *Program, calldata []byte, gasLimit uint32) error {
	vm.Heaps = NewHeaps()
	vm.World = NewModifiedWorld(vm.World.underlying)
	calldataPage := uint32(HeapPageInitialCalldata)
	vm.Heaps.SetInitial(calldataPage, calldata)
	heap := vm.Heaps.Allocate()
	auxHeap := vm.Heaps.Allocate()

	ptr, ok := NewFatPointer(calldataPage, 0, uint32(len(calldata)))
	if !ok {
		return fmt.Errorf("engine: calldata too large to address as a fat pointer")
	}

	frame := newCallframe(address, address, caller, program, 0, 0, new(uint256.Int), false, heap, auxHeap, calldataPage, gasLimit, 0, vm.World.Snapshot())
	vm.callStack = []*Callframe{frame}
	vm.CurrentFrame = frame

	vm.Registers = [numRegisters]uint256.Int{}
	vm.RegisterPointerFlags = 0
	vm.Registers[1] = *ptr.ToU256()
	vm.setRegisterPointerFlag(1, true)
	vm.TotalGasLimit = gasLimit
	return nil
}

// useGas deducts amount from the current frame's live gas, returning false
// (without deducting a negative balance) if that would go below zero. A
// near call's Gas field is exactly what charges here: containedGas only
// matters when a frame unwinds.
func (vm *VirtualMachine) useGas(amount uint32) bool {
	f := vm.CurrentFrame
	if f.Gas < amount {
		f.Gas = 0
		return false
	}
	f.Gas -= amount
	return true
}

// pushFrame installs frame as the new current frame on top of the call
// stack, as a far call does.
func (vm *VirtualMachine) pushFrame(frame *Callframe) {
	vm.callStack = append(vm.callStack, frame)
	vm.CurrentFrame = frame
}

// popFrame removes the current frame and makes its caller current again.
// It reports false if the current frame was the root (nothing left to pop
// to): callers must treat that as the run ending, not as an internal error.
func (vm *VirtualMachine) popFrame() bool {
	n := len(vm.callStack)
	if n <= 1 {
		return false
	}
	vm.callStack = vm.callStack[:n-1]
	vm.CurrentFrame = vm.callStack[n-2]
	return true
}

// Run executes from the current frame's first instruction until the root
// frame produces an ExecutionEnd. It is the engine's sole dispatch loop;
// every instruction, whether its predicate is satisfied or not, costs
// exactly one gas to fetch.
func (vm *VirtualMachine) Run() ExecutionEnd {
	return vm.RunFrom(0)
}

// RunFrom resumes dispatch at ip in the current frame, for resuming after a
// suspend-on-hook. It is otherwise identical to Run.
func (vm *VirtualMachine) RunFrom(ip uint16) ExecutionEnd {
	for {
		if !vm.useGas(1) {
			next, end := retPanic(vm, OutOfGas)
			if end != nil {
				return *end
			}
			ip = next
			continue
		}

		f := vm.CurrentFrame
		if int(ip) >= len(f.Program.Instructions) {
			next, end := retPanic(vm, JumpingOutOfProgram)
			if end != nil {
				return *end
			}
			ip = next
			continue
		}

		decoded := f.Program.Instructions[ip]
		if !decoded.Arguments.Predicate.Satisfied(vm.Flags) {
			ip++
			continue
		}

		var next uint16
		var end *ExecutionEnd
		if decoded.Handler == nil {
			next, end = returnEmpty(vm)
		} else {
			next, end = decoded.Handler(vm, ip)
		}
		if end != nil {
			// A handler returns a populated end only when the run as a
			// whole is over (the root frame itself unwound); intermediate
			// frame unwinds are resolved inside the handler via a jump to
			// the caller's exception handler and never reach here.
			return *end
		}
		ip = next
	}
}
