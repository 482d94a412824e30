package engine

import "github.com/holiman/uint256"

// Reserved heap page ids. Page 0 never holds real bytes; no handler maps it
// to another page, so reads through a page-0 pointer yield zeros. Page 1
// holds the root frame's initial calldata.
const (
	HeapPageCurrentSentinel = 0
	HeapPageInitialCalldata = 1
)

// Heaps is the VM-wide, indexed collection of byte-addressable pages
// shared by every callframe. Pages grow on write and are never shrunk.
type Heaps struct {
	pages [][]byte
}

// NewHeaps reserves pages 0 and 1 and returns an otherwise empty pool.
func NewHeaps() *Heaps {
	return &Heaps{pages: make([][]byte, 2)}
}

// Allocate appends a fresh, empty page and returns its id.
func (h *Heaps) Allocate() uint32 {
	h.pages = append(h.pages, nil)
	return uint32(len(h.pages) - 1)
}

// SetInitial installs data as the starting contents of page, growing the
// pool if needed. Used once, for the calldata page.
func (h *Heaps) SetInitial(page uint32, data []byte) {
	h.ensure(page)
	h.pages[page] = data
}

func (h *Heaps) ensure(page uint32) {
	for uint32(len(h.pages)) <= page {
		h.pages = append(h.pages, nil)
	}
}

// Len reports the current byte length of page, 0 if it doesn't exist yet.
func (h *Heaps) Len(page uint32) uint32 {
	if int(page) >= len(h.pages) {
		return 0
	}
	return uint32(len(h.pages[page]))
}

// Load reads 32 big-endian bytes at offset on page. Reads past the current
// end of the page are zero-padded without extending it.
func (h *Heaps) Load(page, offset uint32) *uint256.Int {
	var buf [32]byte
	if int(page) < len(h.pages) {
		data := h.pages[page]
		start := int(offset)
		for i := 0; i < 32; i++ {
			idx := start + i
			if idx >= 0 && idx < len(data) {
				buf[i] = data[idx]
			}
		}
	}
	return new(uint256.Int).SetBytes(buf[:])
}

// Store writes 32 big-endian bytes at offset on page, zero-extending the
// page first if the write runs past its current end.
func (h *Heaps) Store(page, offset uint32, value *uint256.Int) {
	h.ensure(page)
	need := int(offset) + 32
	if len(h.pages[page]) < need {
		grown := make([]byte, need)
		copy(grown, h.pages[page])
		h.pages[page] = grown
	}
	b := value.Bytes32()
	copy(h.pages[page][offset:offset+32], b[:])
}

// WriteBytes copies data into page starting at offset, growing the page
// with zero fill first if the write runs past its current end. Unlike
// Store it isn't limited to 32-byte words, for precompile outputs of
// arbitrary length.
func (h *Heaps) WriteBytes(page, offset uint32, data []byte) {
	h.ensure(page)
	need := int(offset) + len(data)
	if len(h.pages[page]) < need {
		grown := make([]byte, need)
		copy(grown, h.pages[page])
		h.pages[page] = grown
	}
	copy(h.pages[page][offset:], data)
}

// Slice returns a copy of page[start:start+length], zero-padded past the
// page's current end. Used to extract the returned/reverted output region.
func (h *Heaps) Slice(page, start, length uint32) []byte {
	out := make([]byte, length)
	if int(page) >= len(h.pages) {
		return out
	}
	data := h.pages[page]
	for i := uint32(0); i < length; i++ {
		idx := int(start + i)
		if idx >= 0 && idx < len(data) {
			out[i] = data[idx]
		}
	}
	return out
}
