// Package enumerator implements component D: it walks the reference
// left-to-right, maintaining an evolving set of open haplotypes, performing
// recombination at alignment entry/exit, and flushing variants to a Sink
// whenever every open haplotype collapses back to pure reference.
package enumerator

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"cram2vcf/internal/align"
	"cram2vcf/internal/gapstruct"
)

// DefaultMaxRunningHaplotypes is MAX_RUNNING_HAPLOTYPES_BEFORE_ADD's default
// (spec §4.D): a throttle on combinatorial blow-up, not a correctness
// device — incoming alignments are skipped (and logged) while the set is
// already this large.
const DefaultMaxRunningHaplotypes = 5000

// Sink receives one flush event per call: the reference position the flush
// started at (0-based), the reference span it covers, and the set of
// distinct alternative sequences observed over that span. Component E
// (internal/vcfout) implements this.
type Sink interface {
	Emit(startPos0 int, referenceSequence string, alternatives []string) error
}

// Enumerator holds the tunables, the reference, the published alignment
// index, and the gap-structure vectors the walk depends on.
type Enumerator struct {
	Reference    []byte
	Index        align.Index
	Vectors      *gapstruct.Vectors
	Sink         Sink
	MaxRunning   int
	Log          *logrus.Logger
	ProgressStep int // log a progress line every N positions; 0 disables

	skippedEntries int
	skippedExits   int
}

func (e *Enumerator) maxRunning() int {
	if e.MaxRunning > 0 {
		return e.MaxRunning
	}
	return DefaultMaxRunningHaplotypes
}

func (e *Enumerator) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

// Run walks the full reference once, driving entry/exit recombination,
// extension, and flush per spec §4.D, calling Sink.Emit for every flush
// that produces at least one alternative allele.
func (e *Enumerator) Run() error {
	R := e.Reference
	open := []*OpenHaplotype{{Seq: nil, Source: haploSource{Kind: SourceReference}, Cursor: -1}}
	startOpen := 0
	modified := false

	for posI := 0; posI < len(R); posI++ {
		if modified {
			open = dedup(open)
			modified = false
		}
		for _, o := range open {
			o.iterDelta = nil
		}

		e.catchUp(open, posI)

		if err := e.checkColumnLengths(open, posI); err != nil {
			return err
		}

		open, modified = e.enterAlignments(open, startOpen, posI, modified)

		open, modified = e.exitAlignments(open, modified)

		if err := e.extend(open, posI); err != nil {
			return err
		}

		var err error
		open, startOpen, err = e.flushCheck(open, startOpen, posI)
		if err != nil {
			return err
		}

		if e.ProgressStep > 0 && posI > 0 && posI%e.ProgressStep == 0 {
			e.logger().WithFields(logrus.Fields{
				"posI":         posI,
				"openCount":    len(open),
				"skippedEntry": e.skippedEntries,
				"skippedExit":  e.skippedExits,
			}).Info("enumerator: progress")
		}
	}
	return nil
}

// catchUp implements spec §4.D step 2, recording the bytes it appends in
// each haplotype's iterDelta for the flush check to see. It reads G[posI]
// rather than the spec's literal "G[posI-1]": the Data Model (spec §3)
// defines G[i] as the gap count between reference positions i-1 and i, so
// the count for the transition into posI is G[posI], not G[posI-1]. See
// DESIGN.md.
func (e *Enumerator) catchUp(open []*OpenHaplotype, posI int) {
	for _, o := range open {
		switch o.Source.Kind {
		case SourceAlignment:
			src := o.Source.Alignment
			if o.Cursor == len(src.Ref)-1 {
				added := bytes.Repeat([]byte{'-'}, e.Vectors.Gap(posI))
				o.Seq = append(o.Seq, added...)
				o.iterDelta = append(o.iterDelta, added...)
				continue
			}
			c := o.Cursor
			for c+1 < len(src.Ref) && align.IsGap(src.Ref[c+1]) {
				c++
				o.Seq = append(o.Seq, src.Query[c])
				o.iterDelta = append(o.iterDelta, src.Query[c])
			}
			o.Cursor = c
		case SourceReference:
			if posI > 0 {
				added := bytes.Repeat([]byte{'-'}, e.Vectors.Gap(posI))
				o.Seq = append(o.Seq, added...)
				o.iterDelta = append(o.iterDelta, added...)
			}
		}
	}
}

func (e *Enumerator) checkColumnLengths(open []*OpenHaplotype, posI int) error {
	if len(open) == 0 {
		return nil
	}
	want := len(open[0].Seq)
	for _, o := range open[1:] {
		if len(o.Seq) != want {
			return fmt.Errorf("enumerator: column-length drift at reference position %d:\n%s", posI, dumpAroundPosition(open, posI))
		}
	}
	return nil
}

// enterAlignments implements spec §4.D step 4, reading I[posI+1] rather
// than the spec's literal I[posI]: Index is keyed by Alignment.Start, which
// is 1-based (spec §3), while posI is the enumerator's 0-based reference
// cursor, so the alignments beginning at 0-based position posI live under
// key posI+1. This is the same +1 reindexing as catchUp and
// referenceRecombinantSeq below, applied at the Index lookup instead of the
// gap vector; see DESIGN.md's Index-shift note.
func (e *Enumerator) enterAlignments(open []*OpenHaplotype, startOpen, posI int, modified bool) ([]*OpenHaplotype, bool) {
	entries := e.Index[posI+1]
	if len(entries) == 0 {
		return open, modified
	}
	for _, newH := range entries {
		if len(open) > e.maxRunning() {
			e.skippedEntries++
			e.logger().WithFields(logrus.Fields{
				"alignment": newH.Name,
				"posI":      posI,
				"openCount": len(open),
			}).Warn("enumerator: threshold exceeded, skipping incoming alignment")
			continue
		}
		snapshot := append([]*OpenHaplotype(nil), open...)
		for _, o := range snapshot {
			open = append(open, &OpenHaplotype{
				Seq:    append([]byte(nil), o.Seq...),
				Source: haploSource{Kind: SourceAlignment, Alignment: newH},
				Cursor: -1,
			})
		}
		open = append(open, &OpenHaplotype{
			Seq:    e.referenceRecombinantSeq(startOpen, posI),
			Source: haploSource{Kind: SourceAlignment, Alignment: newH},
			Cursor: -1,
		})
		modified = true
	}
	return open, modified
}

// referenceRecombinantSeq builds the "I was reference up to here" prefix
// for entry-recombination (spec §4.D step 4's second bullet), reading
// G[i+1] for the gaps after reference position i — the spec's literal
// "G[i] dashes after position i" is adjusted by the same +1 as catchUp, for
// the same Data-Model-consistency reason.
func (e *Enumerator) referenceRecombinantSeq(start, posI int) []byte {
	var seq []byte
	for i := start; i < posI; i++ {
		seq = append(seq, e.Reference[i])
		seq = append(seq, bytes.Repeat([]byte{'-'}, e.Vectors.Gap(i+1))...)
	}
	return seq
}

// exitAlignments implements spec §4.D step 5, adopting the corrected
// "skip self" comparison per SPEC_FULL.md §5's open-question decision.
func (e *Enumerator) exitAlignments(open []*OpenHaplotype, modified bool) ([]*OpenHaplotype, bool) {
	snapshot := append([]*OpenHaplotype(nil), open...)
	exhausted := make([]bool, len(snapshot))
	for k, o := range snapshot {
		if o.Source.Kind == SourceAlignment && o.Cursor == len(o.Source.Alignment.Ref)-1 {
			exhausted[k] = true
		}
	}

	seen := make(map[haploKey]bool, len(open))
	for _, o := range open {
		seen[keyOf(o)] = true
	}

	for k, o := range snapshot {
		if !exhausted[k] {
			continue
		}
		exitSeq := append([]byte(nil), o.Seq...)
		o.Source = haploSource{Kind: SourceReference}
		o.Cursor = -1

		for k2, o2 := range snapshot {
			if k2 == k || exhausted[k2] {
				continue
			}
			if len(open) > e.maxRunning() {
				e.skippedExits++
				e.logger().Warn("enumerator: threshold exceeded, skipping exit-recombination")
				break
			}
			cand := &OpenHaplotype{Seq: append([]byte(nil), exitSeq...), Source: o2.Source, Cursor: o2.Cursor}
			key := keyOf(cand)
			if seen[key] {
				continue
			}
			seen[key] = true
			open = append(open, cand)
		}
		modified = true
	}
	return open, modified
}

// extend implements spec §4.D step 6, recording the column it appends to
// each open haplotype in iterDelta for the flush check.
func (e *Enumerator) extend(open []*OpenHaplotype, posI int) error {
	L := -1
	extByIdx := make([][]byte, len(open))

	for i, o := range open {
		if o.Source.Kind != SourceAlignment {
			continue
		}
		src := o.Source.Alignment
		c := o.Cursor
		var chars []byte
		for {
			c++
			if c >= len(src.Ref) {
				return fmt.Errorf("enumerator: alignment %s exhausted mid-extension at reference position %d", src.Name, posI)
			}
			chars = append(chars, src.Query[c])
			if align.IsBase(src.Ref[c]) {
				break
			}
		}
		if L == -1 {
			L = len(chars)
		} else if L != len(chars) {
			return fmt.Errorf("enumerator: inconsistent MSA column count at reference position %d: have %d, alignment %s gives %d", posI, L, src.Name, len(chars))
		}
		extByIdx[i] = chars
	}
	if L == -1 {
		L = 1
	}

	refC := e.Reference[posI]
	for i, o := range open {
		if o.Source.Kind == SourceAlignment {
			ext := extByIdx[i]
			o.Seq = append(o.Seq, ext...)
			o.iterDelta = append(o.iterDelta, ext...)
			o.Cursor += len(ext)
			continue
		}
		ext := append([]byte{refC}, bytes.Repeat([]byte{'*'}, L-1)...)
		o.Seq = append(o.Seq, ext...)
		o.iterDelta = append(o.iterDelta, ext...)
	}
	return nil
}

// flushCheck implements spec §4.D step 7. The distinct-extension check
// looks at each haplotype's iterDelta (catch-up plus extension for this
// position combined), not just the column extend appended: a gap run
// caught up in step 2 — e.g. an insertion relative to another haplotype —
// is a real divergence from reference even when extend's own column
// agrees, and step 7 must not miss it.
func (e *Enumerator) flushCheck(open []*OpenHaplotype, startOpen, posI int) ([]*OpenHaplotype, int, error) {
	refC := e.Reference[posI]
	distinct := make(map[string]bool, len(open))
	for _, o := range open {
		distinct[string(o.iterDelta)] = true
	}

	allPureRef := len(distinct) == 1 && distinct[string([]byte{refC})]

	if posI == 0 {
		if !allPureRef {
			return nil, 0, fmt.Errorf("enumerator: posI==0 invariant violated: open haplotypes disagree with reference before any flush has happened")
		}
		return open, startOpen, nil
	}

	if !allPureRef {
		return open, startOpen, nil
	}

	refSpan := posI - startOpen
	referenceSequence := string(e.Reference[startOpen : startOpen+refSpan])

	altSet := make(map[string]bool)
	for _, o := range open {
		if len(o.Seq) == 0 {
			continue
		}
		covered := stripGaps(o.Seq[:len(o.Seq)-1])
		if covered != referenceSequence {
			altSet[covered] = true
		}
		o.Seq = o.Seq[len(o.Seq)-1:]
	}

	open = dedup(open)

	if len(altSet) > 0 {
		alts := make([]string, 0, len(altSet))
		for a := range altSet {
			alts = append(alts, a)
		}
		sort.Strings(alts)
		if err := e.Sink.Emit(startOpen, referenceSequence, alts); err != nil {
			return nil, 0, err
		}
	}

	return open, posI, nil
}
