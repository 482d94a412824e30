package engine

import "github.com/holiman/uint256"

// CallingMode selects how a far call's address triple is derived, matching
// the three ways a callee can see its own identity and its caller's.
type CallingMode uint8

const (
	// Normal calls: the callee executes as the target address and sees the
	// current frame as its caller.
	Normal CallingMode = iota
	// Delegate calls: the callee executes using the target's code, but
	// keeps the current frame's address and caller, and inherits its
	// context value unchanged.
	Delegate
	// Mimic calls: like Normal, except the caller address seen by the
	// callee is read from register 3 instead of being the current frame.
	Mimic
)

func addressFromU256(v *uint256.Int) Address {
	var a Address
	b := v.Bytes32()
	copy(a[:], b[12:32])
	return a
}

// FarCallNormal, FarCallDelegate and FarCallMimic are the three decoded
// opcodes; they share everything except how the callee's address triple is
// derived.
func FarCallNormal(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return farCall(vm, ip, Normal)
}

func FarCallDelegate(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return farCall(vm, ip, Delegate)
}

func FarCallMimic(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return farCall(vm, ip, Mimic)
}

// farCall decommits the target's code, carves out gas under the 63/64
// rule, copies the designated calldata region into a fresh page, and
// pushes a new Callframe to run it. A decommit failure or a non-pointer
// calldata operand both unwind as a panic rather than returning an error
// to the caller's registers: a contract can never observe why a call
// target was invalid, only that the call failed.
func farCall(vm *VirtualMachine, ip uint16, mode CallingMode) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	caller := vm.CurrentFrame

	targetValue, isTargetPtr := vm.readOperand(a.Src1)
	if isTargetPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	targetAddress := addressFromU256(targetValue)

	calldataValue, isCalldataPtr := vm.readOperand(a.Src2)
	if !isCalldataPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	calldataPtr, _ := FatPointerFromU256(calldataValue)
	if calldataPtr.Page < caller.FirstOwnedPage {
		return retPanic(vm, IncorrectPointerTags)
	}
	if calldataPtr.Offset > calldataPtr.Length {
		return retPanic(vm, PointerOffsetTooLarge)
	}
	calldata := vm.Heaps.Slice(calldataPtr.Page, calldataPtr.Start+calldataPtr.Offset, calldataPtr.Length-calldataPtr.Offset)

	program, err := vm.World.Decommit(targetAddress)
	if err != nil {
		return retPanic(vm, InvalidInstruction)
	}

	available := caller.Gas
	maxPass := available - available/64
	requested := uint32(0)
	if v, isPtr := vm.readOperand(a.GasOperand); !isPtr {
		requested = uint32(v.Uint64())
	}
	gasToPass := requested
	if gasToPass == 0 || gasToPass > maxPass {
		gasToPass = maxPass
	}
	caller.Gas -= gasToPass

	var executing, codeAddress, callerAddress Address
	var context *uint256.Int
	isStatic := caller.IsStatic || a.ForceStatic

	switch mode {
	case Delegate:
		executing = caller.Address
		codeAddress = targetAddress
		callerAddress = caller.Caller
		context = new(uint256.Int).Set(caller.ContextU128)
	case Mimic:
		executing = targetAddress
		codeAddress = targetAddress
		callerAddress = addressFromU256(&vm.Registers[3])
		context = new(uint256.Int)
	default:
		executing = targetAddress
		codeAddress = targetAddress
		callerAddress = caller.Address
		context = new(uint256.Int)
	}

	calldataPage := vm.Heaps.Allocate()
	vm.Heaps.SetInitial(calldataPage, calldata)
	heap := vm.Heaps.Allocate()
	auxHeap := vm.Heaps.Allocate()

	calleeCalldataPtr, ok := NewFatPointer(calldataPage, 0, uint32(len(calldata)))
	if !ok {
		return retPanic(vm, PointerOffsetTooLarge)
	}

	callee := newCallframe(
		executing, codeAddress, callerAddress, program,
		a.Imm16, ip+1,
		context, isStatic,
		heap, auxHeap, calldataPage,
		gasToPass, 0,
		vm.World.Snapshot(),
	)

	vm.pushFrame(callee)
	vm.Registers = [numRegisters]uint256.Int{}
	vm.RegisterPointerFlags = 0
	vm.Registers[1] = *calleeCalldataPtr.ToU256()
	vm.setRegisterPointerFlag(1, true)

	return 0, nil
}
