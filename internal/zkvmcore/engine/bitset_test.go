package engine

import "testing"

func TestBitsetSetGetClear(t *testing.T) {
	b := NewBitset()
	indices := []uint16{0, 1, 63, 64, 1023, 65535}
	for _, i := range indices {
		if b.Get(i) {
			t.Fatalf("slot %d should start clear", i)
		}
		b.Set(i)
		if !b.Get(i) {
			t.Fatalf("slot %d should be set", i)
		}
	}
	for _, i := range indices {
		b.Clear(i)
		if b.Get(i) {
			t.Fatalf("slot %d should be clear after Clear", i)
		}
	}
}

func TestBitsetReset(t *testing.T) {
	b := NewBitset()
	b.Set(5)
	b.Set(60000)
	b.Reset()
	if b.Get(5) || b.Get(60000) {
		t.Fatal("Reset should clear every bit")
	}
}

func TestBitsetSlotsAreIndependent(t *testing.T) {
	b := NewBitset()
	b.Set(100)
	for i := uint16(0); i < 200; i++ {
		if i == 100 {
			continue
		}
		if b.Get(i) {
			t.Fatalf("slot %d unexpectedly set", i)
		}
	}
}
