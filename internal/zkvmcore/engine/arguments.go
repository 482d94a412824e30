package engine

import "github.com/holiman/uint256"

// AddrMode selects how an Operand resolves to a 256-bit value.
type AddrMode uint8

const (
	// AddrRegister addresses one of the 16 general-purpose registers.
	AddrRegister AddrMode = iota
	// AddrImmediate carries a 16-bit immediate, zero-extended, never pointer-tagged.
	AddrImmediate
	// AddrCodePage indexes the current frame's immutable code-page constants.
	AddrCodePage
	// AddrStack addresses stack[(sp + Offset) mod 2^16]. A nonzero AdvanceSP
	// is applied to sp after the access: this is how push/pop addressing is
	// expressed (write-then-advance for push, decrement-then-read for pop
	// via a negative Offset paired with a negative AdvanceSP).
	AddrStack
)

// Operand is a decoded source or destination for one instruction argument.
type Operand struct {
	Mode      AddrMode
	Register  uint8
	Immediate uint16
	Offset    int32
	AdvanceSP int32
}

// Reg addresses register i directly.
func Reg(i uint8) Operand { return Operand{Mode: AddrRegister, Register: i} }

// Imm16 is a 16-bit immediate operand.
func Imm16(v uint16) Operand { return Operand{Mode: AddrImmediate, Immediate: v} }

// CodeConst indexes the code page at a fixed position.
func CodeConst(index int32) Operand { return Operand{Mode: AddrCodePage, Offset: index} }

// StackAt addresses the stack slot `offset` entries from the current sp,
// without moving sp.
func StackAt(offset int32) Operand { return Operand{Mode: AddrStack, Offset: offset} }

// StackPush writes at the current sp, then advances sp by one.
func StackPush() Operand { return Operand{Mode: AddrStack, Offset: 0, AdvanceSP: 1} }

// StackPop reads stack[sp-1] then decrements sp by one.
func StackPop() Operand { return Operand{Mode: AddrStack, Offset: -1, AdvanceSP: -1} }

// Arguments is the decoded, immutable per-instruction argument record: the
// predicate, up to two sources and two destinations, and the handful of
// operation-specific flags and immediates every handler family needs.
type Arguments struct {
	Predicate      Predicate
	SwapOperands   bool
	SetFlags       bool
	IsRevert       bool
	UseAuxHeap     bool // selects the frame's aux heap instead of its main heap
	ForceStatic    bool // far call enters a static frame regardless of the caller's own
	StaticGasCost  uint32 // reserved; the dispatch loop always charges a flat 1
	Src1, Src2     Operand
	Dst1, Dst2     Operand
	GasOperand     Operand // far call's requested-gas source; unused by other opcodes
	Imm16          uint16 // jump target / near-call target / far-call exception handler
	ExceptionImm16 uint16 // second immediate, e.g. near-call's own exception handler
}

// readOperand resolves op to its value and pointer tag, without mutating sp
// beyond what AdvanceSP specifies.
func (vm *VirtualMachine) readOperand(op Operand) (*uint256.Int, bool) {
	switch op.Mode {
	case AddrRegister:
		if op.Register == 0 {
			return new(uint256.Int), false
		}
		v := vm.Registers[op.Register]
		return new(uint256.Int).Set(&v), vm.registerPointerFlag(op.Register)
	case AddrImmediate:
		return uint256.NewInt(uint64(op.Immediate)), false
	case AddrCodePage:
		f := vm.CurrentFrame
		idx := op.Offset
		if idx >= 0 && int(idx) < len(f.Program.CodePage) {
			v := f.Program.CodePage[idx]
			return new(uint256.Int).Set(&v), false
		}
		return new(uint256.Int), false
	case AddrStack:
		f := vm.CurrentFrame
		idx := uint16(int32(f.SP) + op.Offset)
		v := f.Stack[idx]
		isPtr := f.StackPointerFlags.Get(idx)
		if op.AdvanceSP != 0 {
			f.SP = uint16(int32(f.SP) + op.AdvanceSP)
		}
		return new(uint256.Int).Set(&v), isPtr
	default:
		return new(uint256.Int), false
	}
}

// writeOperand stores value (with its pointer tag) at op's destination.
// Writing to an immediate or code-page operand is a programming error in
// the decoder, not a runtime condition, so it is silently ignored.
func (vm *VirtualMachine) writeOperand(op Operand, value *uint256.Int, isPointer bool) {
	switch op.Mode {
	case AddrRegister:
		vm.Registers[op.Register] = *value
		vm.setRegisterPointerFlag(op.Register, isPointer)
	case AddrStack:
		f := vm.CurrentFrame
		idx := uint16(int32(f.SP) + op.Offset)
		f.Stack[idx] = *value
		if isPointer {
			f.StackPointerFlags.Set(idx)
		} else {
			f.StackPointerFlags.Clear(idx)
		}
		if op.AdvanceSP != 0 {
			f.SP = uint16(int32(f.SP) + op.AdvanceSP)
		}
	default:
		// immediate / code-page destinations never occur in a well-formed program
	}
}

func (vm *VirtualMachine) registerPointerFlag(i uint8) bool {
	return vm.RegisterPointerFlags&(uint16(1)<<i) != 0
}

func (vm *VirtualMachine) setRegisterPointerFlag(i uint8, v bool) {
	if v {
		vm.RegisterPointerFlags |= uint16(1) << i
	} else {
		vm.RegisterPointerFlags &^= uint16(1) << i
	}
}
