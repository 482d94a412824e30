package engine

// PanicKind enumerates the conditions that unwind to the nearest exception
// handler (§4.9). NoPanic is never raised; it exists so PanicKind has a
// usable zero value.
type PanicKind uint8

const (
	NoPanic PanicKind = iota
	OutOfGas
	IncorrectPointerTags
	PointerOffsetTooLarge
	PtrPackLowBitsNotZero
	JumpingOutOfProgram
	InvalidInstruction
	StaticFrameViolation
	ReturnPointerIntoCallersHeap
)

func (k PanicKind) String() string {
	switch k {
	case NoPanic:
		return "no_panic"
	case OutOfGas:
		return "out_of_gas"
	case IncorrectPointerTags:
		return "incorrect_pointer_tags"
	case PointerOffsetTooLarge:
		return "pointer_offset_too_large"
	case PtrPackLowBitsNotZero:
		return "ptr_pack_low_bits_not_zero"
	case JumpingOutOfProgram:
		return "jumping_out_of_program"
	case InvalidInstruction:
		return "invalid_instruction"
	case StaticFrameViolation:
		return "static_frame_violation"
	case ReturnPointerIntoCallersHeap:
		return "return_pointer_into_callers_heap"
	default:
		return "unknown_panic"
	}
}

// EndKind is the tag of ExecutionEnd, mirroring the four ExecutionEnd
// variants an embedder can observe.
type EndKind uint8

const (
	EndProgramFinished EndKind = iota
	EndReverted
	EndPanicked
	EndSuspendedOnHook
)

// ExecutionEnd is the single, closed result type a run can produce. No
// other error type escapes Run/RunFrom.
type ExecutionEnd struct {
	Kind EndKind

	// Output holds the returned or reverted region for EndProgramFinished
	// and EndReverted.
	Output []byte

	// Panic names which violation unwound the run, for EndPanicked. It is
	// NoPanic for every other Kind.
	Panic PanicKind

	// Hook and ResumeIP are populated for EndSuspendedOnHook.
	Hook     uint32
	ResumeIP uint16
}

func finished(output []byte) *ExecutionEnd {
	return &ExecutionEnd{Kind: EndProgramFinished, Output: output}
}

func reverted(output []byte) *ExecutionEnd {
	return &ExecutionEnd{Kind: EndReverted, Output: output}
}

func panicked(kind PanicKind) *ExecutionEnd {
	return &ExecutionEnd{Kind: EndPanicked, Panic: kind}
}

func suspended(hook uint32, resumeIP uint16) *ExecutionEnd {
	return &ExecutionEnd{Kind: EndSuspendedOnHook, Hook: hook, ResumeIP: resumeIP}
}
