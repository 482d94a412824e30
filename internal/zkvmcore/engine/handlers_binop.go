package engine

import (
	"math/big"

	"github.com/holiman/uint256"
)

func inst(vm *VirtualMachine, ip uint16) Arguments {
	return vm.CurrentFrame.Program.Instructions[ip].Arguments
}

// binopOperands reads Src1/Src2 (swapped if Arguments.SwapOperands is set,
// which is how e.g. subtraction's "reversed" addressing mode is expressed
// without a separate opcode) and discards their pointer tags: arithmetic
// never produces or consumes pointers.
func binopOperands(vm *VirtualMachine, a Arguments) (*uint256.Int, *uint256.Int) {
	x, _ := vm.readOperand(a.Src1)
	y, _ := vm.readOperand(a.Src2)
	if a.SwapOperands {
		x, y = y, x
	}
	return x, y
}

func setArithFlags(vm *VirtualMachine, a Arguments, result *uint256.Int, overflow bool) {
	if !a.SetFlags {
		return
	}
	vm.Flags = NewFlags(overflow, result.IsZero(), !overflow && !result.IsZero())
}

// Add computes Dst1 = Src1 + Src2, optionally setting flags from the carry.
func Add(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	setArithFlags(vm, a, z, overflow)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// Sub computes Dst1 = Src1 - Src2, optionally setting flags from the borrow.
func Sub(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z, overflow := new(uint256.Int).SubOverflow(x, y)
	setArithFlags(vm, a, z, overflow)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// And computes Dst1 = Src1 & Src2.
func And(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z := new(uint256.Int).And(x, y)
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// Or computes Dst1 = Src1 | Src2.
func Or(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z := new(uint256.Int).Or(x, y)
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// Xor computes Dst1 = Src1 ^ Src2.
func Xor(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z := new(uint256.Int).Xor(x, y)
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// ShiftLeft computes Dst1 = Src1 << (Src2 mod 256).
func ShiftLeft(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z := new(uint256.Int).Lsh(x, uint(y.Uint64()&255))
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// ShiftRight computes Dst1 = Src1 >> (Src2 mod 256), logical (not arithmetic).
func ShiftRight(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	z := new(uint256.Int).Rsh(x, uint(y.Uint64()&255))
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// RotateLeft computes Dst1 = Src1 rotated left by (Src2 mod 256) bits.
func RotateLeft(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	n := uint(y.Uint64() & 255)
	z := rotl(x, n)
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

// RotateRight computes Dst1 = Src1 rotated right by (Src2 mod 256) bits.
func RotateRight(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	n := uint(y.Uint64() & 255)
	z := rotl(x, 256-n)
	if n == 0 {
		z = new(uint256.Int).Set(x)
	}
	setArithFlags(vm, a, z, false)
	vm.writeOperand(a.Dst1, z, false)
	return ip + 1, nil
}

func rotl(x *uint256.Int, n uint) *uint256.Int {
	if n%256 == 0 {
		return new(uint256.Int).Set(x)
	}
	left := new(uint256.Int).Lsh(x, n%256)
	right := new(uint256.Int).Rsh(x, 256-n%256)
	return left.Or(left, right)
}

// Mul computes the full 512-bit product of Src1*Src2, writing the low half
// to Dst1 and the high half to Dst2.
func Mul(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	product := new(big.Int).Mul(x.ToBig(), y.ToBig())
	low := new(big.Int).And(product, maxUint256Big)
	high := new(big.Int).Rsh(product, 256)
	lowZ, _ := uint256.FromBig(low)
	highZ, _ := uint256.FromBig(high)
	if a.SetFlags {
		overflow := !highZ.IsZero()
		isZero := lowZ.IsZero() && highZ.IsZero()
		vm.Flags = NewFlags(overflow, isZero, !overflow && !isZero)
	}
	vm.writeOperand(a.Dst1, lowZ, false)
	vm.writeOperand(a.Dst2, highZ, false)
	return ip + 1, nil
}

// Div computes Dst1 = Src1 / Src2 and Dst2 = Src1 % Src2. Division by zero
// produces (0, 0) rather than panicking.
func Div(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	x, y := binopOperands(vm, a)
	var quotient, remainder *uint256.Int
	if y.IsZero() {
		quotient = new(uint256.Int)
		remainder = new(uint256.Int)
	} else {
		quotient = new(uint256.Int)
		remainder = new(uint256.Int)
		quotient.DivMod(x, y, remainder)
	}
	if a.SetFlags {
		// Division never overflows, so LT_OF is always false; GT/EQ follow
		// the quotient, the handler's primary result.
		vm.Flags = NewFlags(false, quotient.IsZero(), !quotient.IsZero())
	}
	vm.writeOperand(a.Dst1, quotient, false)
	vm.writeOperand(a.Dst2, remainder, false)
	return ip + 1, nil
}

var maxUint256Big = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
