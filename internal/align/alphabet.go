// Package align holds the passive alignment record (component A) and the
// small byte-alphabet helpers the rest of the pipeline shares.
package align

// gapByte classifies the two characters the input format treats as
// equivalent gap tokens. Modeled on the teacher's package-level,
// init()-populated byte classification maps (pasta.go's gPastaBPState),
// but over the {base, gap} alphabet this domain actually uses instead of
// the pasta diploid-encoding alphabet.
var gapByte map[byte]bool

func init() {
	gapByte = make(map[byte]bool)
	gapByte['-'] = true
	gapByte['*'] = true
}

// IsGap reports whether c is one of the two gap tokens ('-' or '*') the
// input format uses interchangeably.
func IsGap(c byte) bool {
	return gapByte[c]
}

// IsBase reports whether c is a non-gap column character.
func IsBase(c byte) bool {
	return !gapByte[c]
}
