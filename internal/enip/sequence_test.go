package enip

import "testing"

func TestNextSeqWrapsAtUint16Max(t *testing.T) {
	if got := NextSeq(0xFFFF); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestNextSeqIncrements(t *testing.T) {
	if got := NextSeq(41); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}
