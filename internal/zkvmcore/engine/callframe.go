package engine

import "github.com/holiman/uint256"

// NearCallFrame is the lightweight state a near call pushes and pop_near_call
// restores: near calls never get their own stack, heaps, or address triple,
// only a resume point and a gas/exception-handler checkpoint.
type NearCallFrame struct {
	CallInstruction  uint16
	ExceptionHandler uint16
	PreviousSP       uint16
	PreviousGas      uint32
	Snapshot         Snapshot
}

// Callframe is one entry of the call stack: the (far-called) frame of a
// contract invocation, with any near calls it makes layered on top via
// NearCalls.
type Callframe struct {
	Address     Address
	CodeAddress Address
	Caller      Address

	Program *Program

	// ExceptionHandler is the instruction index in the caller's program to
	// jump to if this frame reverts or panics. CallerReturnIP is where the
	// caller resumes on an ordinary return. Both are set once, at push time.
	ExceptionHandler uint16
	CallerReturnIP   uint16
	ContextU128      *uint256.Int
	IsStatic         bool

	Stack             []uint256.Int
	StackPointerFlags *Bitset
	SP                uint16

	Heap         uint32
	AuxHeap      uint32
	CalldataHeap uint32

	// FirstOwnedPage is the lowest heap page id allocated for this frame
	// (its calldata page, which lies below Heap and AuxHeap). A pointer a
	// frame returns or forwards must name a page at or above this value:
	// anything lower belongs to a caller's or ancestor's memory.
	FirstOwnedPage uint32

	// HeapsIAmKeepingAlive lists heap pages that callees returned a pointer
	// into when they far-returned to this frame, so they outlive the callee
	// frame that originally owned them.
	HeapsIAmKeepingAlive []uint32

	Gas     uint32
	Stipend uint32

	NearCalls []NearCallFrame

	// WorldBeforeThisFrame is the snapshot taken when this frame was pushed,
	// used to roll the world back if the frame as a whole reverts or panics.
	WorldBeforeThisFrame Snapshot
}

// stackSlots is the fixed size of a callframe's stack, one slot per every
// representable stack-pointer value.
const stackSlots = 1 << 16

// initialSP is where a fresh frame's stack pointer starts: large enough
// that a run of StackPop without a matching push still addresses a valid
// (zeroed) slot instead of wrapping immediately.
const initialSP = 1024

func newCallframe(address, codeAddress, caller Address, program *Program, exceptionHandler, callerReturnIP uint16, contextU128 *uint256.Int, isStatic bool, heap, auxHeap, calldataHeap uint32, gas, stipend uint32, worldBefore Snapshot) *Callframe {
	return &Callframe{
		Address:              address,
		CodeAddress:          codeAddress,
		Caller:               caller,
		Program:              program,
		ExceptionHandler:     exceptionHandler,
		CallerReturnIP:       callerReturnIP,
		ContextU128:          contextU128,
		IsStatic:             isStatic,
		Stack:                make([]uint256.Int, stackSlots),
		StackPointerFlags:    NewBitset(),
		SP:                   initialSP,
		Heap:                 heap,
		AuxHeap:              auxHeap,
		CalldataHeap:         calldataHeap,
		FirstOwnedPage:       calldataHeap,
		Gas:                  gas,
		Stipend:              stipend,
		WorldBeforeThisFrame: worldBefore,
	}
}

// pushNearCall layers a near call on top of f: the instruction pointer to
// resume at on return, the exception handler the near call installs for its
// own duration, and the gas it is allowed to spend.
func (f *Callframe) pushNearCall(callInstruction uint16, exceptionHandler uint16, gasToPass uint32, snapshot Snapshot) {
	f.NearCalls = append(f.NearCalls, NearCallFrame{
		CallInstruction:  callInstruction,
		ExceptionHandler: f.ExceptionHandler,
		PreviousSP:       f.SP,
		PreviousGas:      f.Gas - gasToPass,
		Snapshot:         snapshot,
	})
	f.ExceptionHandler = exceptionHandler
	f.Gas = gasToPass
}

// popNearCall reverses the most recent pushNearCall, restoring the caller's
// exception handler. It does not touch Gas or SP: the caller restores SP and
// decides what happens to the remaining gas (handed back on return and
// revert, burned on panic).
func (f *Callframe) popNearCall() (NearCallFrame, bool) {
	n := len(f.NearCalls)
	if n == 0 {
		return NearCallFrame{}, false
	}
	top := f.NearCalls[n-1]
	f.NearCalls = f.NearCalls[:n-1]
	f.ExceptionHandler = top.ExceptionHandler
	return top, true
}

// containedGas is the gas this frame would report if unwound right now: its
// own remaining gas plus the stipend, which near calls never get to spend
// but which is returned to the caller along with everything else.
func (f *Callframe) containedGas() uint32 {
	return f.Gas + f.Stipend
}

// inNearCall reports whether execution is currently inside a near call
// layered on f, as opposed to f's own top-level code.
func (f *Callframe) inNearCall() bool {
	return len(f.NearCalls) > 0
}
