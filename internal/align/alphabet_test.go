package align

import "testing"

func TestIsGapAndIsBase(t *testing.T) {
	cases := []struct {
		c      byte
		isGap  bool
		isBase bool
	}{
		{'-', true, false},
		{'*', true, false},
		{'A', false, true},
		{'c', false, true},
		{'N', false, true},
	}
	for _, c := range cases {
		if got := IsGap(c.c); got != c.isGap {
			t.Errorf("IsGap(%q) = %v, want %v", c.c, got, c.isGap)
		}
		if got := IsBase(c.c); got != c.isBase {
			t.Errorf("IsBase(%q) = %v, want %v", c.c, got, c.isBase)
		}
	}
}
