package engine

// heapPage resolves which of the current frame's two private heaps an
// instruction addresses.
func heapPage(f *Callframe, useAux bool) uint32 {
	if useAux {
		return f.AuxHeap
	}
	return f.Heap
}

// HeapLoad reads 32 bytes at a non-pointer byte offset from the current
// frame's heap (or aux heap, if Arguments.UseAuxHeap), zero-padding past the
// page's current end.
func HeapLoad(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	offsetValue, isPtr := vm.readOperand(a.Src1)
	if isPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	page := heapPage(vm.CurrentFrame, a.UseAuxHeap)
	value := vm.Heaps.Load(page, uint32(offsetValue.Uint64()))
	vm.writeOperand(a.Dst1, value, false)
	return ip + 1, nil
}

// HeapStore writes Src2 at a non-pointer byte offset (Src1) into the
// current frame's heap (or aux heap), panicking if the frame is static:
// static calls may read memory freely but never mutate it.
func HeapStore(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	if vm.CurrentFrame.IsStatic {
		return retPanic(vm, StaticFrameViolation)
	}
	offsetValue, isOffsetPtr := vm.readOperand(a.Src1)
	value, _ := vm.readOperand(a.Src2)
	if isOffsetPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	page := heapPage(vm.CurrentFrame, a.UseAuxHeap)
	vm.Heaps.Store(page, uint32(offsetValue.Uint64()), value)
	return ip + 1, nil
}

// LoadPointer reads 32 bytes through a fat pointer (Src1): the page it
// names, at its Start+Offset. It panics if Src1 isn't pointer-tagged or if
// the read would start past the pointer's declared length.
func LoadPointer(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	ptrValue, isPtr := vm.readOperand(a.Src1)
	if !isPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	ptr, _ := FatPointerFromU256(ptrValue)
	if ptr.Offset > ptr.Length {
		return retPanic(vm, PointerOffsetTooLarge)
	}
	value := vm.Heaps.Load(ptr.Page, ptr.Start+ptr.Offset)
	vm.writeOperand(a.Dst1, value, false)
	return ip + 1, nil
}
