package loader

import "testing"

// sliceSource is an in-memory LineSource fixture, avoiding any dependency
// on gonomics/fileio or the filesystem for pure parsing tests.
type sliceSource struct {
	lines []string
	pos   int
}

func (s *sliceSource) NextLine() (string, bool) {
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

func (s *sliceSource) Close() error { return nil }

func TestLoadBasic(t *testing.T) {
	src := &sliceSource{lines: []string{
		"ACGT",
		"AC-GT\tACTGT\th1\t1\t4",
		"ACGT\tAGGT\th2\t1\t4",
	}}
	res, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Reference != "ACGT" {
		t.Fatalf("Reference = %q, want %q", res.Reference, "ACGT")
	}
	if len(res.Alignments) != 2 {
		t.Fatalf("expected 2 alignments, got %d", len(res.Alignments))
	}

	a := res.Alignments[0]
	if string(a.Ref) != "AC-GT" || string(a.Query) != "ACTGT" || a.Name != "h1" {
		t.Fatalf("unexpected first alignment: %+v", a)
	}
	if a.Start != 1 || a.Last != 5 {
		t.Fatalf("expected Start=1, Last=5 (inclusive->exclusive), got Start=%d, Last=%d", a.Start, a.Last)
	}
}

func TestLoadSkipsBlankLines(t *testing.T) {
	src := &sliceSource{lines: []string{
		"ACGT",
		"",
		"ACGT\tAGGT\th1\t1\t4",
		"",
	}}
	res, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Alignments) != 1 {
		t.Fatalf("expected 1 alignment, got %d", len(res.Alignments))
	}
}

func TestLoadNoReferenceLine(t *testing.T) {
	src := &sliceSource{lines: nil}
	if _, err := Load(src); err == nil {
		t.Fatalf("expected error for missing reference line")
	}
}

func TestLoadWrongFieldCount(t *testing.T) {
	src := &sliceSource{lines: []string{
		"ACGT",
		"ACGT\tAGGT\th1\t1",
	}}
	if _, err := Load(src); err == nil {
		t.Fatalf("expected error for wrong field count")
	}
}

func TestLoadNonNumericPosition(t *testing.T) {
	src := &sliceSource{lines: []string{
		"ACGT",
		"ACGT\tAGGT\th1\tX\t4",
	}}
	if _, err := Load(src); err == nil {
		t.Fatalf("expected error for non-numeric start_pos")
	}
}
