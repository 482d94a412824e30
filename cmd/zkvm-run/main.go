package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/holiman/uint256"

	"github.com/vybium/zkvm-core/internal/zkvmcore/engine"
	"github.com/vybium/zkvm-core/pkg/zkvmcore"
)

// RunInput is one line of stdin: a gas limit and hex-encoded calldata to
// run against the built-in demo program. Building a Program from a wire
// bytecode format is outside this package's scope, so zkvm-run only ever
// runs the fixed demonstration program below; an embedder driving real
// contracts links zkvmcore directly instead of shelling out to this binary.
type RunInput struct {
	GasLimit uint32 `json:"gas_limit"`
	Calldata string `json:"calldata"` // hex, no 0x prefix
}

// RunOutput is what zkvm-run writes to stdout for each input line.
type RunOutput struct {
	Kind   string `json:"kind"`
	Output string `json:"output,omitempty"`
	Panic  string `json:"panic,omitempty"`
}

func main() {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var in RunInput
		if err := json.Unmarshal(line, &in); err != nil {
			fatal(fmt.Sprintf("failed to parse input line: %v", err))
		}
		runOne(in)
	}
	if err := scanner.Err(); err != nil {
		fatal(fmt.Sprintf("failed reading stdin: %v", err))
	}
}

func runOne(in RunInput) {
	calldata, err := hex.DecodeString(in.Calldata)
	if err != nil {
		fatal(fmt.Sprintf("invalid calldata hex: %v", err))
	}
	gasLimit := in.GasLimit
	if gasLimit == 0 {
		gasLimit = 1 << 20
	}

	logStderr(fmt.Sprintf("running demo program with %d gas, %d bytes calldata", gasLimit, len(calldata)))

	world := newDemoWorld()
	vm, err := zkvmcore.NewVM(world, &zkvmcore.Config{GasLimit: gasLimit})
	if err != nil {
		fatal(fmt.Sprintf("failed to create VM: %v", err))
	}

	var address, caller zkvmcore.Address
	result, err := vm.Run(address, caller, demoProgram(), calldata)
	if err != nil {
		fatal(fmt.Sprintf("run failed: %v", err))
	}

	out := RunOutput{Output: hex.EncodeToString(result.Output)}
	switch result.Kind {
	case engine.EndProgramFinished:
		out.Kind = "finished"
		color.Green("finished: %s", out.Output)
	case engine.EndReverted:
		out.Kind = "reverted"
		color.Yellow("reverted: %s", out.Output)
	case engine.EndPanicked:
		out.Kind = "panicked"
		out.Panic = result.Panic.String()
		color.Red("panicked: %s", out.Panic)
	case engine.EndSuspendedOnHook:
		out.Kind = "suspended"
		color.Cyan("suspended on hook %d, resume at %d", result.Hook, result.ResumeIP)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		fatal(fmt.Sprintf("failed to serialize result: %v", err))
	}
	os.Stdout.Write(encoded)
	os.Stdout.Write([]byte("\n"))
}

// demoProgram echoes its calldata straight back: register 1 already holds
// a fat pointer to it on entry, so a single Return suffices. It exists to
// exercise the dispatch loop, gas metering and far-return pointer handling
// end to end; building a real contract's Program is the embedder's job.
func demoProgram() *zkvmcore.Program {
	prog := &zkvmcore.Program{
		Instructions: []zkvmcore.Instruction{
			{Handler: engine.Return},
		},
	}
	prog.Finalize()
	return prog
}

// demoWorld is an in-memory World with no persistent storage across runs,
// enough to drive zkvm-run's fixed demo program.
type demoWorld struct {
	storage map[zkvmcore.Address]map[uint256.Int]uint256.Int
}

func newDemoWorld() *demoWorld {
	return &demoWorld{storage: make(map[zkvmcore.Address]map[uint256.Int]uint256.Int)}
}

func (w *demoWorld) Decommit(address zkvmcore.Address) (*zkvmcore.Program, error) {
	return demoProgram(), nil
}

func (w *demoWorld) ReadStorage(address zkvmcore.Address, key uint256.Int) uint256.Int {
	if m, ok := w.storage[address]; ok {
		return m[key]
	}
	return uint256.Int{}
}

func (w *demoWorld) WriteStorage(address zkvmcore.Address, key, value uint256.Int) {
	m, ok := w.storage[address]
	if !ok {
		m = make(map[uint256.Int]uint256.Int)
		w.storage[address] = m
	}
	m[key] = value
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "zkvm-run:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
