package zkvmcore

import (
	"github.com/vybium/zkvm-core/internal/zkvmcore/engine"
)

// VM is the public interface for the zkvm-core execution engine.
type VM interface {
	// Run starts a fresh root invocation of program against address,
	// called by caller with calldata and the configured gas limit, and
	// drives it to completion or to its first suspend.
	Run(address, caller Address, program *Program, calldata []byte) (*RunResult, error)

	// Resume continues a suspended run at resumeIP, as returned in a prior
	// RunResult with Kind == engine.EndSuspendedOnHook.
	Resume(resumeIP uint16) (*RunResult, error)
}

// vmImpl is the internal implementation of VM.
type vmImpl struct {
	config *Config
	engine *engine.VirtualMachine
}

// NewVM creates a new zkvm-core VM against world, with the given
// configuration. A nil config uses DefaultConfig.
func NewVM(world World, config *Config) (VM, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.GasLimit == 0 {
		return nil, &VMError{Code: ErrInvalidConfig, Message: "gas limit must be nonzero"}
	}

	return &vmImpl{
		config: config,
		engine: engine.New(world, config.Precompiles),
	}, nil
}

// Run implements VM.
func (v *vmImpl) Run(address, caller Address, program *Program, calldata []byte) (*RunResult, error) {
	if err := v.engine.RootCall(address, caller, program, calldata, v.config.GasLimit); err != nil {
		return nil, &VMError{Code: ErrCalldataTooLarge, Message: "failed to start root call", Cause: err}
	}
	end := v.engine.Run()
	return v.toResult(end), nil
}

// Resume implements VM.
func (v *vmImpl) Resume(resumeIP uint16) (*RunResult, error) {
	end := v.engine.RunFrom(resumeIP)
	return v.toResult(end), nil
}

func (v *vmImpl) toResult(end engine.ExecutionEnd) *RunResult {
	result := &RunResult{
		Kind:     end.Kind,
		Output:   end.Output,
		Panic:    end.Panic,
		Hook:     end.Hook,
		ResumeIP: end.ResumeIP,
	}
	if end.Kind == engine.EndProgramFinished {
		result.Writes = v.engine.World.Writes()
	}
	return result
}
