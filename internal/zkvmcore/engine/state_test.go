package engine

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

type testWorld struct {
	programs map[Address]*Program
	storage  map[Address]map[uint256.Int]uint256.Int
}

func newTestWorld() *testWorld {
	return &testWorld{
		programs: make(map[Address]*Program),
		storage:  make(map[Address]map[uint256.Int]uint256.Int),
	}
}

func (w *testWorld) Decommit(address Address) (*Program, error) {
	p, ok := w.programs[address]
	if !ok {
		return nil, errors.New("no such program")
	}
	return p, nil
}

func (w *testWorld) ReadStorage(address Address, key uint256.Int) uint256.Int {
	return w.storage[address][key]
}

func (w *testWorld) WriteStorage(address Address, key, value uint256.Int) {
	m, ok := w.storage[address]
	if !ok {
		m = make(map[uint256.Int]uint256.Int)
		w.storage[address] = m
	}
	m[key] = value
}

func newProgram(instructions ...Instruction) *Program {
	p := &Program{Instructions: instructions}
	p.Finalize()
	return p
}

func sstoreInst(key, value uint16) Instruction {
	return Instruction{Handler: SStore, Arguments: Arguments{Src1: Imm16(key), Src2: Imm16(value)}}
}

func TestRunFallsOffEndReturnsEmpty(t *testing.T) {
	world := newTestWorld()
	prog := newProgram() // empty program: immediately the implicit terminal instruction
	vm := New(world, nil)
	if err := vm.RootCall(Address{}, Address{}, prog, nil, 1000); err != nil {
		t.Fatal(err)
	}
	end := vm.Run()
	if end.Kind != EndProgramFinished {
		t.Fatalf("got kind %v, want EndProgramFinished", end.Kind)
	}
	if len(end.Output) != 0 {
		t.Fatalf("expected empty output, got %x", end.Output)
	}
}

func TestGasStarvationPanicsAndRollsBack(t *testing.T) {
	world := newTestWorld()
	prog := newProgram(
		sstoreInst(1, 99),
		Instruction{Handler: Return},
	)
	vm := New(world, nil)
	if err := vm.RootCall(Address{}, Address{}, prog, nil, 1); err != nil {
		t.Fatal(err)
	}
	end := vm.Run()
	if end.Kind != EndPanicked {
		t.Fatalf("got kind %v, want EndPanicked", end.Kind)
	}
	if len(vm.World.Writes()) != 0 {
		t.Fatalf("expected the panicked frame's write to be rolled back, got %v", vm.World.Writes())
	}
}

func TestNearCallRevertRollsBackOnlyItsOwnWrites(t *testing.T) {
	world := newTestWorld()
	prog := newProgram(
		sstoreInst(1, 99), // 0: survives
		Instruction{Handler: NearCall, Arguments: Arguments{Src1: Imm16(0), Imm16: 3, ExceptionImm16: 5}}, // 1
		Instruction{Handler: Return}, // 2: not reached: the revert resumes at the exception handler (5)
		sstoreInst(2, 7),  // 3: inside the near call, must not survive
		Instruction{Handler: Revert}, // 4
	)
	vm := New(world, nil)
	if err := vm.RootCall(Address{}, Address{}, prog, nil, 100000); err != nil {
		t.Fatal(err)
	}
	end := vm.Run()
	if end.Kind != EndProgramFinished {
		t.Fatalf("got kind %v, want EndProgramFinished", end.Kind)
	}
	writes := vm.World.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected exactly one surviving write, got %v", writes)
	}
	if writes[0].Key.Uint64() != 1 || writes[0].Value.Uint64() != 99 {
		t.Fatalf("unexpected surviving write: %+v", writes[0])
	}
}

func TestNearCallRevertRefundsGasButPanicBurnsIt(t *testing.T) {
	world := newTestWorld()
	revertProg := newProgram(
		Instruction{Handler: NearCall, Arguments: Arguments{Src1: Imm16(1000), Imm16: 2, ExceptionImm16: 3}}, // 0
		Instruction{Handler: Return}, // 1
		Instruction{Handler: Revert}, // 2
	)
	vm := New(world, nil)
	if err := vm.RootCall(Address{}, Address{}, revertProg, nil, 5000); err != nil {
		t.Fatal(err)
	}
	before := vm.CurrentFrame.Gas
	end := vm.Run()
	if end.Kind != EndProgramFinished {
		t.Fatalf("got kind %v, want EndProgramFinished", end.Kind)
	}
	// Dispatching instructions 0, 2 and 3 costs one gas each; the gas the
	// near call did not spend comes back to the frame on revert.
	if got, want := vm.CurrentFrame.Gas, before-3; got != want {
		t.Fatalf("revert: got %d gas left, want %d", got, want)
	}

	panicWorld := newTestWorld()
	panicProg := newProgram(
		Instruction{Handler: NearCall, Arguments: Arguments{Src1: Imm16(1000), Imm16: 2, ExceptionImm16: 3}}, // 0
		Instruction{Handler: Return}, // 1
		Instruction{Handler: Panic},  // 2
	)
	pvm := New(panicWorld, nil)
	if err := pvm.RootCall(Address{}, Address{}, panicProg, nil, 5000); err != nil {
		t.Fatal(err)
	}
	pbefore := pvm.CurrentFrame.Gas
	pend := pvm.Run()
	// The near call's exception handler (3, the implicit terminal
	// instruction) catches the panic, so the run still finishes.
	if pend.Kind != EndProgramFinished {
		t.Fatalf("got kind %v, want EndProgramFinished", pend.Kind)
	}
	// The 1000 gas passed to the near call is burned; dispatching
	// instructions 0 and 3 costs the frame one gas each.
	if got, want := pvm.CurrentFrame.Gas, pbefore-1000-2; got != want {
		t.Fatalf("panic: got %d gas left, want %d", got, want)
	}
}

func TestFarReturnRejectsPointerIntoCallersHeap(t *testing.T) {
	world := newTestWorld()
	prog := newProgram(
		Instruction{Handler: Return},
	)
	vm := New(world, nil)
	if err := vm.RootCall(Address{}, Address{}, prog, nil, 100000); err != nil {
		t.Fatal(err)
	}

	// Forge a pointer into page 0 (the current-heap sentinel, always below
	// any real frame's FirstOwnedPage) in register 1 before Return runs.
	// No instruction in this engine can construct such a pointer itself
	// (pointer arithmetic only ever narrows an already-owned pointer), so
	// this directly exercises the ownership check Return enforces.
	forged, ok := NewFatPointer(0, 0, 0)
	if !ok {
		t.Fatal("unexpected pointer construction failure")
	}
	vm.Registers[1] = *forged.ToU256()
	vm.setRegisterPointerFlag(1, true)

	end := vm.Run()
	if end.Kind != EndPanicked {
		t.Fatalf("got kind %v, want EndPanicked (pointer into page 0 must be rejected)", end.Kind)
	}
}

func TestPredicateSkipStillChargesGas(t *testing.T) {
	world := newTestWorld()
	// IfEQ is never satisfied (flags start zeroed -> EQ is false), so this
	// instruction is skipped every time, but dispatch still charges gas
	// for it: with exactly 2 gas, the loop should reach EndPanicked
	// (out of gas) rather than complete, because skipping is not free.
	prog := newProgram(
		Instruction{Handler: Add, Arguments: Arguments{Predicate: IfEQ, Src1: Imm16(1), Src2: Imm16(1), Dst1: Reg(3)}}, // 0: skipped, still costs 1 gas
		Instruction{Handler: Add, Arguments: Arguments{Predicate: IfEQ, Src1: Imm16(1), Src2: Imm16(1), Dst1: Reg(3)}}, // 1: skipped, still costs 1 gas
		Instruction{Handler: Return}, // 2: never reached with gas=2
	)
	vm := New(world, nil)
	if err := vm.RootCall(Address{}, Address{}, prog, nil, 2); err != nil {
		t.Fatal(err)
	}
	end := vm.Run()
	if end.Kind != EndPanicked {
		t.Fatalf("got kind %v, want EndPanicked (gas exhausted by skipped instructions)", end.Kind)
	}
}
