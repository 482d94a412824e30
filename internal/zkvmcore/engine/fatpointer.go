package engine

import (
	"encoding/binary"
	"math"

	"github.com/holiman/uint256"
)

// FatPointer is the packed representation of a reference into a heap page:
// (memory page, start offset, length, running offset). It is losslessly
// packable into the low 128 bits of a 256-bit register word; the high 128
// bits are left for PtrPack to stash an auxiliary integer alongside it.
type FatPointer struct {
	Page   uint32
	Start  uint32
	Length uint32
	Offset uint32
}

// NewFatPointer constructs a pointer to [start, start+length) on page,
// enforcing the construction-time invariant that start+length doesn't
// overflow u32.
func NewFatPointer(page, start, length uint32) (FatPointer, bool) {
	if uint64(start)+uint64(length) > math.MaxUint32 {
		return FatPointer{}, false
	}
	return FatPointer{Page: page, Start: start, Length: length}, true
}

// ToU256 packs the pointer into the low 128 bits of a 256-bit word, high
// bits zero.
func (p FatPointer) ToU256() *uint256.Int {
	var b [32]byte
	binary.BigEndian.PutUint32(b[16:20], p.Page)
	binary.BigEndian.PutUint32(b[20:24], p.Start)
	binary.BigEndian.PutUint32(b[24:28], p.Length)
	binary.BigEndian.PutUint32(b[28:32], p.Offset)
	return new(uint256.Int).SetBytes(b[:])
}

// FatPointerFromU256 unpacks a pointer from the low 128 bits of v. The high
// 128 bits (if any) are returned separately for PtrPack-style combination.
func FatPointerFromU256(v *uint256.Int) (p FatPointer, highBits *uint256.Int) {
	b := v.Bytes32()
	p = FatPointer{
		Page:   binary.BigEndian.Uint32(b[16:20]),
		Start:  binary.BigEndian.Uint32(b[20:24]),
		Length: binary.BigEndian.Uint32(b[24:28]),
		Offset: binary.BigEndian.Uint32(b[28:32]),
	}
	var hb [32]byte
	copy(hb[16:32], b[0:16])
	highBits = new(uint256.Int).SetBytes(hb[:])
	return p, highBits
}

// Pack places highBits (its low 128 bits) in the high 128 bits of the word,
// above the pointer's own fields. PtrPack checks its operand for
// PtrPackLowBitsNotZero and shifts it down by 128 before calling Pack.
func (p FatPointer) Pack(highBits *uint256.Int) *uint256.Int {
	base := p.ToU256()
	shifted := new(uint256.Int).Lsh(highBits, 128)
	return base.Or(base, shifted)
}

// lowBitsZero reports whether the low 128 bits of v are all zero, the
// precondition PtrPack enforces on its second operand.
func lowBitsZero(v *uint256.Int) bool {
	b := v.Bytes32()
	for i := 16; i < 32; i++ {
		if b[i] != 0 {
			return false
		}
	}
	return true
}
