package engine

// SLoad reads the current frame's contract storage at a non-pointer key.
func SLoad(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	keyValue, isPtr := vm.readOperand(a.Src1)
	if isPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	f := vm.CurrentFrame
	value := vm.World.ReadStorage(f.Address, *keyValue)
	vm.writeOperand(a.Dst1, &value, false)
	return ip + 1, nil
}

// SStore writes Src2 to the current frame's contract storage at key Src1,
// panicking if the frame is static.
func SStore(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	if vm.CurrentFrame.IsStatic {
		return retPanic(vm, StaticFrameViolation)
	}
	keyValue, isKeyPtr := vm.readOperand(a.Src1)
	value, _ := vm.readOperand(a.Src2)
	if isKeyPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	f := vm.CurrentFrame
	vm.World.WriteStorage(f.Address, *keyValue, *value)
	return ip + 1, nil
}
