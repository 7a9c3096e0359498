package enumerator

import "cram2vcf/internal/align"

// sourceKind tags an open haplotype's origin, replacing the raw-pointer /
// nil-means-reference scheme from the original with the tagged variant
// Design Notes §9 calls for.
type sourceKind int

const (
	// SourceReference means the haplotype is currently tracking the
	// reference sequence rather than any specific alignment.
	SourceReference sourceKind = iota
	// SourceAlignment means the haplotype is walking a specific
	// alignment's columns via Cursor.
	SourceAlignment
)

// haploSource is the tagged variant from Design Notes §9:
// {Reference, Alignment(*align.Alignment)}. The alignment arena (the
// splitter's align.Index) owns the pointed-to record; open haplotypes hold
// only a non-owning reference.
type haploSource struct {
	Kind      sourceKind
	Alignment *align.Alignment
}

// OpenHaplotype is component D's working-set element (spec §3's "open
// haplotype O"): an accumulated sequence, a source, and (for
// alignment-sourced haplotypes) a cursor into that alignment's columns.
type OpenHaplotype struct {
	Seq    []byte
	Source haploSource
	Cursor int // last-consumed 0-based index into Source.Alignment's columns; -1 when Source is reference or entry-fresh

	// iterDelta accumulates the bytes appended to Seq during the current
	// reference position's processing (catch-up plus extension), for the
	// flush check (step 7) to inspect. It is reset at the start of every
	// iteration and is nil, by construction, for haplotypes created this
	// same iteration by entry- or exit-recombination — those never went
	// through catch-up, so their delta is whatever extend contributes.
	iterDelta []byte
}

// haploKey is the structured dedup key from Design Notes §9, replacing the
// original's pointer-formatted-as-text identity key with plain value
// equality over (seq, source, cursor).
type haploKey struct {
	seq    string
	source *align.Alignment // nil means reference-sourced
	cursor int
}

func keyOf(o *OpenHaplotype) haploKey {
	var a *align.Alignment
	if o.Source.Kind == SourceAlignment {
		a = o.Source.Alignment
	}
	return haploKey{seq: string(o.Seq), source: a, cursor: o.Cursor}
}

// dedup keeps the first occurrence of each distinct key and drops the rest,
// per spec §4.D step 1 and step 7's "deduplicate by (seq, source-identity,
// cursor)".
func dedup(list []*OpenHaplotype) []*OpenHaplotype {
	seen := make(map[haploKey]bool, len(list))
	out := list[:0]
	for _, o := range list {
		k := keyOf(o)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out
}

func stripGaps(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '-' || c == '*' || c == '_' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
