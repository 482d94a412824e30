package engine

import "github.com/holiman/uint256"

// Return is the Handler for an explicit, successful return.
func Return(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return ret(vm, ip, false)
}

// Revert is the Handler for an explicit revert: like Return, but the world
// rolls back to this scope's entry snapshot, the error flags are set, and
// execution resumes at the scope's exception handler.
func Revert(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return ret(vm, ip, true)
}

// Panic is the Handler for an explicit panic instruction, as opposed to one
// the dispatch loop raises itself (out-of-gas, jumping out of program).
func Panic(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return retPanic(vm, InvalidInstruction)
}

// ret implements both Return and Revert (ret.arguments.IsRevert selects
// which): the two share everything except whether the world rolls back,
// which flags get set afterward, and where execution resumes (after the
// call on return, at the exception handler on revert). Register 1 carries
// the output: a pointer
// into a heap page this frame owns, or a plain non-pointer value meaning
// "no output".
//
// Near-call return/revert pops one NearCallFrame and resumes in the same
// program; far-call return/revert pops the whole Callframe. Either way the
// unspent gas of the scope that is ending is added back to the scope it
// resumes in — unlike ret_panic, which burns it.
func ret(vm *VirtualMachine, ip uint16, isRevert bool) (uint16, *ExecutionEnd) {
	f := vm.CurrentFrame
	if f.inNearCall() {
		handler := f.ExceptionHandler
		gasLeft := f.Gas
		top, _ := f.popNearCall()
		f.Gas = top.PreviousGas + gasLeft
		f.SP = top.PreviousSP
		if isRevert {
			vm.World.Rollback(top.Snapshot)
			vm.Flags = errorFlags()
			return handler, nil
		}
		vm.Flags = Flags{}
		return top.CallInstruction + 1, nil
	}
	return farReturn(vm, isRevert)
}

// farReturn pops the current (far-called) Callframe, propagating gas and
// output to the caller, or ending the run if the current frame was the
// root.
func farReturn(vm *VirtualMachine, isRevert bool) (uint16, *ExecutionEnd) {
	f := vm.CurrentFrame
	outValue, isPtr := vm.readOperand(Reg(1))

	var output []byte
	var returnedPage uint32
	if isPtr {
		ptr, _ := FatPointerFromU256(outValue)
		if ptr.Page < f.FirstOwnedPage {
			return retPanic(vm, ReturnPointerIntoCallersHeap)
		}
		output = vm.Heaps.Slice(ptr.Page, ptr.Start+ptr.Offset, ptr.Length)
		returnedPage = ptr.Page
	}

	gasLeft := f.containedGas()
	resumeIP := f.CallerReturnIP
	if isRevert {
		resumeIP = f.ExceptionHandler
	}
	rollbackTo := f.WorldBeforeThisFrame

	if isRevert {
		vm.World.Rollback(rollbackTo)
	}

	if !vm.popFrame() {
		if isRevert {
			return 0, reverted(output)
		}
		return 0, finished(output)
	}

	vm.CurrentFrame.Gas += gasLeft
	if isPtr {
		vm.CurrentFrame.HeapsIAmKeepingAlive = append(vm.CurrentFrame.HeapsIAmKeepingAlive, returnedPage)
	}
	if isRevert {
		vm.Flags = errorFlags()
	} else {
		vm.Flags = Flags{}
	}
	vm.writeOperand(Reg(1), outValue, isPtr)
	return resumeIP, nil
}

// returnEmpty is what a program falling off its own end does: a normal,
// non-reverting return with no output, regardless of whatever a prior
// instruction happened to leave in register 1. It is the implicit terminal
// instruction Program.Finalize appends.
func returnEmpty(vm *VirtualMachine) (uint16, *ExecutionEnd) {
	f := vm.CurrentFrame
	if f.inNearCall() {
		gasLeft := f.Gas
		top, _ := f.popNearCall()
		f.Gas = top.PreviousGas + gasLeft
		f.SP = top.PreviousSP
		vm.Flags = Flags{}
		return top.CallInstruction + 1, nil
	}
	gasLeft := f.containedGas()
	resumeIP := f.CallerReturnIP
	if !vm.popFrame() {
		return 0, finished(nil)
	}
	vm.CurrentFrame.Gas += gasLeft
	vm.Flags = Flags{}
	vm.writeOperand(Reg(1), new(uint256.Int), false)
	return resumeIP, nil
}

// retPanic unwinds to the nearest exception handler, burning whatever gas
// remained in the unwound scope instead of returning it, and always rolling
// the world back to the point the unwound scope began. kind names the
// violation that triggered the unwind, carried through to the run's
// ExecutionEnd if the panic escapes the root frame.
func retPanic(vm *VirtualMachine, kind PanicKind) (uint16, *ExecutionEnd) {
	f := vm.CurrentFrame
	if f.inNearCall() {
		handler := f.ExceptionHandler
		top, _ := f.popNearCall()
		f.SP = top.PreviousSP
		f.Gas = top.PreviousGas
		vm.World.Rollback(top.Snapshot)
		vm.Flags = errorFlags()
		return handler, nil
	}

	handler := f.ExceptionHandler
	rollbackTo := f.WorldBeforeThisFrame
	vm.World.Rollback(rollbackTo)

	if !vm.popFrame() {
		vm.Flags = errorFlags()
		return 0, panicked(kind)
	}

	vm.Flags = errorFlags()
	vm.writeOperand(Reg(1), new(uint256.Int), false)
	return handler, nil
}
