package splitter

import (
	"fmt"
	"io"
	"sort"

	"cram2vcf/internal/align"
)

// ExpectedAlleles is table E from spec §3: every single-column substitution
// observed while scanning input alignments, keyed by 0-based reference
// position, independent of anything the enumerator later decides to flush.
type ExpectedAlleles map[int]map[string]struct{}

func (e ExpectedAlleles) insert(pos0 int, allele string) {
	alleles := e[pos0]
	if alleles == nil {
		alleles = make(map[string]struct{})
		e[pos0] = alleles
	}
	alleles[allele] = struct{}{}
}

// WriteTo writes the side file format from spec §6:
// "<ref_id>\t<1-based ref position>\t<alternative allele>" per line, sorted
// by position then allele for deterministic output.
func (e ExpectedAlleles) WriteTo(w io.Writer, refID string) error {
	positions := make([]int, 0, len(e))
	for p := range e {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	for _, pos0 := range positions {
		alleles := make([]string, 0, len(e[pos0]))
		for a := range e[pos0] {
			alleles = append(alleles, a)
		}
		sort.Strings(alleles)
		for _, allele := range alleles {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", refID, pos0+1, allele); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanExpectedAlleles implements spec §4.B.2: a rolling single-column
// (ref_char, query_char) pair that "closes" on every non-gap ref column.
// When the pair that just closed is a single-to-single mismatch between two
// non-gap bases, the query character is an expected allele at the
// reference position the pair described.
//
// The position arithmetic matters: the pair held in (runRef, runQuery) at
// the moment a non-gap ref column closes it describes the PREVIOUS non-gap
// ref column consumed, not the one doing the closing, so the recorded
// position trails the consumed-count by one.
func scanExpectedAlleles(a *align.Alignment, table ExpectedAlleles) {
	consumed := 0
	var runRef, runQuery []byte

	for i := 0; i < len(a.Ref); i++ {
		cRef, cQuery := a.Ref[i], a.Query[i]
		if align.IsBase(cRef) {
			if len(runRef) == 1 && len(runQuery) == 1 && runRef[0] != runQuery[0] &&
				align.IsBase(runRef[0]) && align.IsBase(runQuery[0]) {
				pos := a.Start - 1 + consumed - 1
				table.insert(pos, string(runQuery))
			}
			runRef = runRef[:0]
			runQuery = runQuery[:0]
			consumed++
		}
		runRef = append(runRef, cRef)
		runQuery = append(runQuery, cQuery)
	}
}
