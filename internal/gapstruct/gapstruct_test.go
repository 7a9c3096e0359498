package gapstruct

import (
	"testing"

	"cram2vcf/internal/align"
)

func TestAddGaplessAlignment(t *testing.T) {
	b := NewBuilder([]byte("ACGT"))
	a := &align.Alignment{Ref: []byte("ACGT"), Query: []byte("AGGT"), Name: "h1", Start: 1, Last: 5}
	if err := b.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	v := b.Vectors()
	for i := 0; i < 4; i++ {
		if v.Gap(i) != 0 {
			t.Fatalf("expected G[%d]=0, got %d", i, v.Gap(i))
		}
		if v.C[i] != 1 {
			t.Fatalf("expected C[%d]=1, got %d", i, v.C[i])
		}
	}
}

func TestAddInsertionSetsGap(t *testing.T) {
	b := NewBuilder([]byte("ACGT"))
	// ref has a gap column before its 3rd consumed base (G), so G[2] should be 1.
	a := &align.Alignment{Ref: []byte("AC-GT"), Query: []byte("ACTGT"), Name: "h1", Start: 1, Last: 5}
	if err := b.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := b.Vectors().Gap(2); got != 1 {
		t.Fatalf("expected G[2]=1, got %d", got)
	}
	if got := b.Vectors().Gap(0); got != 0 {
		t.Fatalf("expected G[0]=0 (first consumed base, never set), got %d", got)
	}
}

func TestAddDetectsGapStructureInconsistency(t *testing.T) {
	b := NewBuilder([]byte("ACGT"))
	a1 := &align.Alignment{Ref: []byte("AC-GT"), Query: []byte("ACTGT"), Name: "h1", Start: 1, Last: 5}
	a2 := &align.Alignment{Ref: []byte("AC--GT"), Query: []byte("ACTTGT"), Name: "h2", Start: 1, Last: 5}
	if err := b.Add(a1); err != nil {
		t.Fatalf("Add a1: %v", err)
	}
	if err := b.Add(a2); err == nil {
		t.Fatal("expected gap-structure inconsistency error, got nil")
	}
}

func TestAddDetectsReferenceCharacterMismatch(t *testing.T) {
	b := NewBuilder([]byte("ACGT"))
	a := &align.Alignment{Ref: []byte("ACGA"), Query: []byte("ACGA"), Name: "h1", Start: 1, Last: 5}
	if err := b.Add(a); err == nil {
		t.Fatal("expected reference/alignment character mismatch error, got nil")
	}
}

func TestCoverageWindows(t *testing.T) {
	b := NewBuilder([]byte("ACGTACGT"))
	a := &align.Alignment{Ref: []byte("ACGTACGT"), Query: []byte("ACGTACGT"), Name: "h1", Start: 1, Last: 9}
	if err := b.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	windows := b.Vectors().CoverageWindows(4)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	for _, w := range windows {
		if w.AvgCoverage != 1 {
			t.Fatalf("expected avg coverage 1 in window %+v", w)
		}
	}
}
