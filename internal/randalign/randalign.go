// Package randalign generates synthetic reference sequences and alignments
// against them, for the property-based tests in internal/enumerator and
// internal/splitter that would otherwise need large hand-written fixtures.
// It is adapted from the teacher's own synthetic-stream generator
// (pasta/pasta_rstream.go's RandomStreamContext / random_state_pick), which
// walks a reference position by position rolling independent SNP/indel/
// match states with math/rand — the same per-position state machine, here
// producing an align.Alignment column pair instead of a PASTA-encoded byte
// stream.
package randalign

import (
	"math/rand"

	"cram2vcf/internal/align"
)

var bases = []byte{'A', 'C', 'G', 'T'}

// Config mirrors the teacher's RandomStreamContext tunables, trimmed to the
// single-haplotype case this pipeline's alignments need (no per-allele
// "locked" fan-out — a caller wanting several haplotypes over the same
// reference calls GenerateAlignment once per haplotype with a shared
// *Generator).
type Config struct {
	Seed int64

	PSnp   float64 // probability, per reference base, of a substitution
	PIndel float64 // probability, per reference base, of an indel event

	// IndelLen bounds an indel event's length (always positive). Whether
	// an event is an insertion (extra query bases with no reference base)
	// or a deletion (reference bases with no query base) is decided by a
	// separate roll, each with probability PIndel/2.
	IndelLenMin int
	IndelLenMax int
}

// DefaultConfig matches the teacher's default_random_stream_context
// probabilities (PSnp = 1/200, PIndel = 1/1000), narrowing IndelLen to a
// smaller range so generated fixtures stay small enough to eyeball.
func DefaultConfig() Config {
	return Config{
		Seed:        0xabecafe,
		PSnp:        1.0 / 200.0,
		PIndel:      1.0 / 1000.0,
		IndelLenMin: 1,
		IndelLenMax: 5,
	}
}

// Generator produces deterministic (seed-driven) reference/alignment pairs.
type Generator struct {
	cfg Config
	rnd *rand.Rand
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg, rnd: rand.New(rand.NewSource(cfg.Seed))}
}

func (g *Generator) randBase() byte {
	return bases[g.rnd.Intn(len(bases))]
}

// randIndelLen draws a length in [IndelLenMin, IndelLenMax], defaulting to
// 1 if the configured range is empty or inverted.
func (g *Generator) randIndelLen() int {
	lo, hi := g.cfg.IndelLenMin, g.cfg.IndelLenMax
	if hi <= lo {
		return 1
	}
	return lo + g.rnd.Intn(hi-lo+1)
}

// GenerateReference builds a random reference sequence of the given length.
func (g *Generator) GenerateReference(length int) []byte {
	ref := make([]byte, length)
	for i := range ref {
		ref[i] = g.randBase()
	}
	return ref
}

// GenerateAlignment walks reference position by position, at each position
// independently rolling: an insertion before it (query-only columns), a
// deletion run starting at it (reference-only columns), or a
// match/substitution column consuming it — mirroring random_state_pick's
// SNP/INDEL/REF branching, but committing straight to alignment columns
// rather than emitting a byte stream. Neither insertions nor deletions are
// rolled at position 0, and deletion runs never extend past the last
// reference base, so the first and last columns are always non-gap in both
// Ref and Query: they satisfy align.Alignment.CheckInvariants and the
// splitter's match/mismatch requirement on edge columns.
func (g *Generator) GenerateAlignment(reference []byte, name string, start int) *align.Alignment {
	var refCols, queryCols []byte

	i := 0
	for i < len(reference) {
		if i > 0 && g.rnd.Float64() < g.cfg.PIndel/2 {
			insLen := g.randIndelLen()
			for k := 0; k < insLen; k++ {
				refCols = append(refCols, '-')
				queryCols = append(queryCols, g.randBase())
			}
		}

		if g.rnd.Float64() < g.cfg.PIndel/2 && i > 0 && i < len(reference)-1 {
			delLen := g.randIndelLen()
			if i+delLen > len(reference)-1 {
				delLen = len(reference) - 1 - i
			}
			for k := 0; k < delLen; k++ {
				refCols = append(refCols, reference[i])
				queryCols = append(queryCols, '-')
				i++
			}
			continue
		}

		refCols = append(refCols, reference[i])
		if g.rnd.Float64() < g.cfg.PSnp {
			queryCols = append(queryCols, g.randSubstitution(reference[i]))
		} else {
			queryCols = append(queryCols, reference[i])
		}
		i++
	}

	return &align.Alignment{
		Ref:   refCols,
		Query: queryCols,
		Name:  name,
		Start: start,
		Last:  start + len(reference),
	}
}

func (g *Generator) randSubstitution(ref byte) byte {
	for {
		b := g.randBase()
		if b != ref {
			return b
		}
	}
}
