package enumerator

import (
	"fmt"
	"strings"
)

// aroundPositionWindow mirrors the original's printHaplotypesAroundPosition
// debug helper (SPEC_FULL.md §4, item 2): a fixed ±2 window used purely to
// keep the diagnostic dump readable, not a correctness parameter.
const aroundPositionWindow = 2

// dumpAroundPosition formats every open haplotype's source identity and the
// tail of its accumulated sequence, for the column-length-drift diagnostic
// spec §7 requires. It reports the window of reference positions the drift
// was detected near rather than the individual per-alignment context the
// original prints, since open haplotypes at this point no longer carry a
// direct per-column reference-position mapping.
func dumpAroundPosition(open []*OpenHaplotype, posI int) string {
	lo := posI - aroundPositionWindow
	if lo < 0 {
		lo = 0
	}
	hi := posI + aroundPositionWindow

	var sb strings.Builder
	fmt.Fprintf(&sb, "open haplotypes near reference position [%d, %d]:\n", lo, hi)
	for i, o := range open {
		tail := o.Seq
		const tailLen = 20
		if len(tail) > tailLen {
			tail = tail[len(tail)-tailLen:]
		}
		switch o.Source.Kind {
		case SourceReference:
			fmt.Fprintf(&sb, "  [%d] reference cursor=%d len=%d tail=%q\n", i, o.Cursor, len(o.Seq), tail)
		case SourceAlignment:
			fmt.Fprintf(&sb, "  [%d] alignment=%s cursor=%d len=%d tail=%q\n", i, o.Source.Alignment.Name, o.Cursor, len(o.Seq), tail)
		}
	}
	return sb.String()
}
