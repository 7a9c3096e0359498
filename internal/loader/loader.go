// Package loader reads the input file format described in spec §6: a
// reference-sequence line followed by newline-delimited, tab-separated
// alignment records. Tokenization itself is treated as an interface
// (LineSource) so the core pipeline never depends on a concrete file
// format reader — the default implementation is backed by
// vertgenlab/gonomics/fileio, the buffered line-oriented reader the wider
// example pack reaches for on genomics file input.
package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/fileio"

	"cram2vcf/internal/align"
)

// LineSource yields successive raw lines from the input stream, in order,
// with the trailing newline already stripped. It is the out-of-scope
// "input file tokenization" interface from spec §1/§6 — callers may supply
// any implementation (file, network stream, test fixture).
type LineSource interface {
	// NextLine returns the next line and true, or ("", false) at EOF.
	NextLine() (string, bool)
	Close() error
}

// fileioSource adapts vertgenlab/gonomics/fileio's buffered EasyReader to
// the LineSource interface.
type fileioSource struct {
	r *fileio.EasyReader
}

// Open opens path ("-" for stdin) as a LineSource using gonomics/fileio.
func Open(path string) (LineSource, error) {
	r := fileio.EasyOpen(path)
	if r == nil {
		return nil, fmt.Errorf("loader: could not open %s", path)
	}
	return &fileioSource{r: r}, nil
}

func (s *fileioSource) NextLine() (string, bool) {
	line, done := fileio.EasyNextLine(s.r)
	if done {
		return "", false
	}
	return line, true
}

func (s *fileioSource) Close() error {
	return s.r.Close()
}

// Result is everything the loader extracts before the splitter runs:
// the reference sequence and the raw (unsplit) alignment records in file
// order.
type Result struct {
	Reference  string
	Alignments []*align.Alignment
}

// Load reads the reference line followed by one alignment per remaining
// non-empty line. Malformed lines (wrong field count, non-numeric
// positions) are fatal per spec §7.
func Load(src LineSource) (*Result, error) {
	refLine, ok := src.NextLine()
	if !ok {
		return nil, fmt.Errorf("loader: input has no reference sequence line")
	}

	res := &Result{Reference: refLine}

	lineNo := 1
	for {
		line, ok := src.NextLine()
		if !ok {
			break
		}
		lineNo++
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("loader: line %d: expected 5 tab-separated fields, got %d", lineNo, len(fields))
		}

		start, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("loader: line %d: invalid start_pos %q: %w", lineNo, fields[3], err)
		}
		lastIncl, err := strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("loader: line %d: invalid last_pos %q: %w", lineNo, fields[4], err)
		}

		a := &align.Alignment{
			Ref:   []byte(fields[0]),
			Query: []byte(fields[1]),
			Name:  fields[2],
			Start: int(start),
			Last:  int(lastIncl) + 1, // loader converts inclusive -> exclusive, per spec §3/§6
		}
		res.Alignments = append(res.Alignments, a)
	}

	return res, nil
}
