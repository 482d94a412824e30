package engine

// Jump sets the instruction pointer to a non-pointer target. An
// out-of-range target is caught by the dispatch loop itself on the next
// iteration and raised as JumpingOutOfProgram, so Jump does no bounds
// checking of its own.
func Jump(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	targetValue, isPtr := vm.readOperand(a.Src1)
	if isPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	return uint16(targetValue.Uint64()), nil
}
