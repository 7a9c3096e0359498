// Package gapstruct implements component C: it derives the gap-column
// vector G and the coverage vector C by re-walking every published
// alignment against the reference sequence, and checks that every
// alignment agrees on the MSA shape it implies.
package gapstruct

import (
	"fmt"
	"sort"

	"cram2vcf/internal/align"
)

// Unset is G's sentinel meaning "no alignment has reported an insertion
// count before this position yet" (spec §3: "any still-unset entry is
// treated as 0").
const Unset = -1

// Vectors holds the two per-reference-position vectors the enumerator
// walks alongside the reference: G (gap-column counts) and C (alignment
// coverage, diagnostic only).
type Vectors struct {
	G []int
	C []int
}

// Gap returns G[i], treating an unset entry as 0 per spec §3.
func (v *Vectors) Gap(i int) int {
	if i < 0 || i >= len(v.G) || v.G[i] == Unset {
		return 0
	}
	return v.G[i]
}

// Builder accumulates Vectors across a sequence of alignments, validating
// each against the reference and against vectors populated by prior
// alignments.
type Builder struct {
	reference []byte
	vectors   Vectors
}

// NewBuilder prepares a Builder over the given reference sequence.
func NewBuilder(reference []byte) *Builder {
	g := make([]int, len(reference))
	for i := range g {
		g[i] = Unset
	}
	return &Builder{
		reference: reference,
		vectors:   Vectors{G: g, C: make([]int, len(reference))},
	}
}

// Add re-walks one alignment's columns per spec §4.C, updating G and C in
// place and returning a descriptive error on any of the two fatal classes
// from §7: gap-structure inconsistency, and reference/alignment character
// mismatch.
func (b *Builder) Add(a *align.Alignment) error {
	pos0 := -1 // 0-based position of the most recently consumed ref base; -1 == none yet
	runningGaps := 0

	for _, cRef := range a.Ref {
		if align.IsGap(cRef) {
			runningGaps++
			continue
		}
		if pos0 == -1 {
			pos0 = a.Start - 1
		} else {
			pos0++
			if existing := b.vectors.G[pos0]; existing != Unset {
				if existing != runningGaps {
					return fmt.Errorf("gapstruct: alignment %s: gap-structure inconsistency at reference position %d: have %d, got %d",
						a.Name, pos0, existing, runningGaps)
				}
			} else {
				b.vectors.G[pos0] = runningGaps
			}
		}
		runningGaps = 0
		b.vectors.C[pos0]++
		if cRef != b.reference[pos0] {
			return fmt.Errorf("gapstruct: alignment %s: reference/alignment character mismatch at position %d: reference has %c, alignment has %c",
				a.Name, pos0, b.reference[pos0], cRef)
		}
	}

	gotExclusive0 := pos0 + 1
	wantExclusive0 := a.Last - 1
	if gotExclusive0 != wantExclusive0 {
		return fmt.Errorf("gapstruct: alignment %s: consumed through reference position %d, expected %d", a.Name, gotExclusive0, wantExclusive0)
	}
	return nil
}

// Vectors returns the accumulated G/C vectors. Valid only after every
// alignment has been added.
func (b *Builder) Vectors() *Vectors {
	return &b.vectors
}

// AddAll walks every alignment in idx, in a deterministic (start-position,
// then slice) order so error messages are reproducible across runs.
func (b *Builder) AddAll(idx align.Index) error {
	starts := make([]int, 0, len(idx))
	for s := range idx {
		starts = append(starts, s)
	}
	sort.Ints(starts)

	for _, s := range starts {
		for _, a := range idx[s] {
			if err := b.Add(a); err != nil {
				return err
			}
		}
	}
	return nil
}

// WindowCoverage is one entry of the coverage-window diagnostic
// (SPEC_FULL.md §4, item 1): average alignment coverage across a
// fixed-width window of reference positions.
type WindowCoverage struct {
	Start, End  int // 0-based, [Start, End)
	AvgCoverage float64
}

// CoverageWindows buckets C into fixed-width windows and averages
// coverage within each, mirroring the original's coverage_window_length
// diagnostic (default 10000 there; caller picks window here).
func (v *Vectors) CoverageWindows(window int) []WindowCoverage {
	if window <= 0 {
		window = 10000
	}
	var out []WindowCoverage
	for start := 0; start < len(v.C); start += window {
		end := start + window
		if end > len(v.C) {
			end = len(v.C)
		}
		sum := 0
		for _, c := range v.C[start:end] {
			sum += c
		}
		out = append(out, WindowCoverage{
			Start:       start,
			End:         end,
			AvgCoverage: float64(sum) / float64(end-start),
		})
	}
	return out
}
