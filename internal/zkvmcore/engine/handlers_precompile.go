package engine

import (
	"crypto/sha256"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Precompile computes a fixed function over raw input bytes. Cryptographic
// correctness of any given precompile is outside this engine's concern: it
// only dispatches to whichever function is registered at an address.
type Precompile func(input []byte) (output []byte, ok bool)

// Well-known precompile addresses. Anything not registered burns its gas
// and reports failure without otherwise affecting execution.
const (
	Keccak256PrecompileAddress uint16 = 1
	SHA256PrecompileAddress    uint16 = 2
)

// PrecompileRegistry maps the low 16 bits of a called address to a
// Precompile. Ecrecover and secp256r1 have no default entries: registering
// them is left to an embedder that links a real signature-verification
// library, since this engine carries none.
type PrecompileRegistry struct {
	byAddress map[uint16]Precompile
}

// NewPrecompileRegistry returns a registry pre-populated with keccak256 and
// sha256, the two hash precompiles this package can implement without any
// cryptographic dependency beyond golang.org/x/crypto and the standard
// library.
func NewPrecompileRegistry() *PrecompileRegistry {
	r := &PrecompileRegistry{byAddress: make(map[uint16]Precompile)}
	r.Register(Keccak256PrecompileAddress, keccak256Precompile)
	r.Register(SHA256PrecompileAddress, sha256Precompile)
	return r
}

// Register installs or replaces the precompile at address's low 16 bits.
func (r *PrecompileRegistry) Register(address uint16, p Precompile) {
	r.byAddress[address] = p
}

// Lookup returns the precompile registered at address, if any.
func (r *PrecompileRegistry) Lookup(address uint16) (Precompile, bool) {
	p, ok := r.byAddress[address]
	return p, ok
}

func keccak256Precompile(input []byte) ([]byte, bool) {
	h := sha3.NewLegacyKeccak256()
	h.Write(input)
	return h.Sum(nil), true
}

func sha256Precompile(input []byte) ([]byte, bool) {
	sum := sha256.Sum256(input)
	return sum[:], true
}

// PrecompileCall charges Imm16 extra ergs (on top of the flat per-
// instruction cost the dispatch loop already charged), decodes the target
// address from Src1 and the input region from a pointer in Src2, and
// dispatches to whatever precompile is registered at the address's low 16
// bits. The output is written into the current frame's heap at the byte
// offset named by Dst1, and register 1 receives 1 on success or 0 if the
// address wasn't recognized.
//
// Unlike every other handler, a malformed call here never unwinds: it
// writes 0 (failure) into register 1 and continues, the same outcome as an
// unrecognized precompile address.
func PrecompileCall(vm *VirtualMachine, ip uint16) (uint16, *ExecutionEnd) {
	a := inst(vm, ip)
	fail := func() (uint16, *ExecutionEnd) {
		vm.Registers[1] = *new(uint256.Int)
		vm.setRegisterPointerFlag(1, false)
		return ip + 1, nil
	}

	// TODO check that we're in a system call
	if !vm.useGas(uint32(a.Imm16)) {
		return fail()
	}
	// TODO record extra pubdata cost

	addressValue, isAddrPtr := vm.readOperand(a.Src1)
	if isAddrPtr {
		return fail()
	}
	address := addressFromU256(addressValue)

	inputPtrValue, isPtr := vm.readOperand(a.Src2)
	if !isPtr {
		return fail()
	}
	ptr, _ := FatPointerFromU256(inputPtrValue)
	if ptr.Offset > ptr.Length {
		return fail()
	}
	input := vm.Heaps.Slice(ptr.Page, ptr.Start+ptr.Offset, ptr.Length-ptr.Offset)

	var output []byte
	success := false
	if p, ok := vm.Precompiles.Lookup(address.lowU16()); ok {
		output, success = p(input)
	}

	outputOffsetValue, _ := vm.readOperand(a.Dst1)
	page := heapPage(vm.CurrentFrame, false)
	vm.Heaps.WriteBytes(page, uint32(outputOffsetValue.Uint64()), output)

	result := new(uint256.Int)
	if success {
		result.SetOne()
	}
	vm.Registers[1] = *result
	vm.setRegisterPointerFlag(1, false)
	return ip + 1, nil
}
