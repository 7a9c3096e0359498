// Package vcfout implements component E: it turns the enumerator's flush
// events into literal 8-column VCF data lines.
package vcfout

import (
	"bufio"
	"fmt"
	"strings"
)

// Emitter writes VCF data lines directly with bufio.Writer and
// fmt.Fprintf — the same way the teacher hand-formats output lines — since
// the exact 8-column, no-FORMAT contract §4.E requires can't losslessly
// round-trip through a typed VCF record. It implements enumerator.Sink.
type Emitter struct {
	w     *bufio.Writer
	RefID string
}

// NewEmitter wraps w for buffered writing under the given CHROM value.
func NewEmitter(w *bufio.Writer, refID string) *Emitter {
	return &Emitter{w: w, RefID: refID}
}

// Emit implements enumerator.Sink, applying spec §4.E's SNP-fast-path vs
// general-path branching.
func (e *Emitter) Emit(startPos0 int, referenceSequence string, alternatives []string) error {
	if len(alternatives) == 0 {
		return nil
	}

	if fastPathEligible(referenceSequence, alternatives) {
		return e.emitSNPFastPath(startPos0, referenceSequence, alternatives)
	}
	return e.emitGeneralPath(startPos0, referenceSequence, alternatives)
}

func fastPathEligible(referenceSequence string, alternatives []string) bool {
	if len(referenceSequence) != 2 {
		return false
	}
	for _, alt := range alternatives {
		if len(alt) != 2 {
			return false
		}
	}
	return true
}

func (e *Emitter) emitSNPFastPath(startPos0 int, referenceSequence string, alternatives []string) error {
	seconds := make([]string, len(alternatives))
	for i, alt := range alternatives {
		if alt[0] != referenceSequence[0] {
			return fmt.Errorf("vcfout: SNP fast path invariant violated: alternative %q does not share reference_sequence %q's first character", alt, referenceSequence)
		}
		seconds[i] = alt[1:]
	}
	return e.writeLine(startPos0+2, string(referenceSequence[1]), strings.Join(seconds, ","))
}

func (e *Emitter) emitGeneralPath(startPos0 int, referenceSequence string, alternatives []string) error {
	return e.writeLine(startPos0+1, referenceSequence, strings.Join(alternatives, ","))
}

func (e *Emitter) writeLine(pos1 int, ref, alt string) error {
	_, err := fmt.Fprintf(e.w, "%s\t%d\t.\t%s\t%s\t.\tPASS\t.\n", e.RefID, pos1, ref, alt)
	return err
}

// Flush flushes the underlying writer; call once after the enumerator run
// completes, before renaming/closing the output file.
func (e *Emitter) Flush() error {
	return e.w.Flush()
}
