package engine

import "github.com/holiman/uint256"

// Handler executes one decoded instruction. It returns either the next
// instruction index to dispatch, or a non-nil ExecutionEnd that terminates
// the run.
type Handler func(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd)

// Instruction is an opaque (handler, arguments) dispatch record, exactly
// what a decoder produces: the engine never interprets raw opcodes itself.
type Instruction struct {
	Handler   Handler
	Arguments Arguments
}

// Program is the shared, immutable decoded instruction sequence plus the
// code page of constants it can address. Programs are reference-shared
// across every frame that executes them.
type Program struct {
	Instructions []Instruction
	CodePage     []uint256.Int
}

// Finalize appends an implicit terminal instruction if the program doesn't
// already end in one, so that a run of skipped (unsatisfied-predicate)
// instructions can never walk off the end of the slice.
func (p *Program) Finalize() {
	if len(p.Instructions) == 0 || !isTerminal(p.Instructions[len(p.Instructions)-1]) {
		p.Instructions = append(p.Instructions, terminalInstruction())
	}
}

func isTerminal(i Instruction) bool {
	return i.Arguments.Predicate == Always && i.Handler == nil
}

// terminalInstruction decodes to an implicit return of an empty value
// (returnEmpty): it ends the current near call if there is one, otherwise
// the frame, matching what a well-behaved decommitted program would end
// with anyway.
func terminalInstruction() Instruction {
	return Instruction{
		Handler:   nil,
		Arguments: Arguments{Predicate: Always},
	}
}
