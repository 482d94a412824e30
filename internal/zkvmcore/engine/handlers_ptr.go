package engine

import "github.com/holiman/uint256"

// PtrAdd advances a fat pointer's read offset by a non-pointer amount,
// panicking if either operand has the wrong pointer tag or if the new
// offset would overflow u32. The result may land past the pointer's
// Length: that is representable, and only the handler that dereferences it
// (LoadPointer) need ever notice.
func PtrAdd(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return ptrArith(vm, ip, false)
}

// PtrSub is PtrAdd with the offset subtracted instead of added.
func PtrSub(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	return ptrArith(vm, ip, true)
}

func ptrArith(vm *VirtualMachine, ip uint16, subtract bool) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	ptrValue, isPtr := vm.readOperand(a.Src1)
	amountValue, isAmountPtr := vm.readOperand(a.Src2)
	if !isPtr || isAmountPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	ptr, highBits := FatPointerFromU256(ptrValue)
	amount := uint32(amountValue.Uint64())

	var newOffset uint32
	if subtract {
		if amount > ptr.Offset {
			return retPanic(vm, PointerOffsetTooLarge)
		}
		newOffset = ptr.Offset - amount
	} else {
		newOffset = ptr.Offset + amount
		if newOffset < ptr.Offset {
			return retPanic(vm, PointerOffsetTooLarge)
		}
	}
	ptr.Offset = newOffset
	vm.writeOperand(a.Dst1, ptr.Pack(highBits), true)
	return ip + 1, nil
}

// PtrShrink reduces a fat pointer's Length by a non-pointer amount, without
// moving Start or Offset. It panics only if the shrink would underflow
// Length past zero; a Length that ends up below Offset is representable,
// the same as an overshot PtrAdd.
func PtrShrink(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	ptrValue, isPtr := vm.readOperand(a.Src1)
	amountValue, isAmountPtr := vm.readOperand(a.Src2)
	if !isPtr || isAmountPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	ptr, highBits := FatPointerFromU256(ptrValue)
	amount := uint32(amountValue.Uint64())
	if amount > ptr.Length {
		return retPanic(vm, PointerOffsetTooLarge)
	}
	ptr.Length -= amount
	vm.writeOperand(a.Dst1, ptr.Pack(highBits), true)
	return ip + 1, nil
}

// PtrPack combines a pointer's low 128 bits with caller-supplied high 128
// bits from a non-pointer operand, panicking if Src1 isn't a pointer or if
// Src2 has any of its low 128 bits set (they would collide with the packed
// pointer fields).
func PtrPack(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	ptrValue, isPtr := vm.readOperand(a.Src1)
	highValue, isHighPtr := vm.readOperand(a.Src2)
	if !isPtr || isHighPtr {
		return retPanic(vm, IncorrectPointerTags)
	}
	if !lowBitsZero(highValue) {
		return retPanic(vm, PtrPackLowBitsNotZero)
	}
	ptr, _ := FatPointerFromU256(ptrValue)
	packed := ptr.Pack(new(uint256.Int).Rsh(highValue, 128))
	vm.writeOperand(a.Dst1, packed, true)
	return ip + 1, nil
}
