package vcfout

import (
	"fmt"
	"io"

	"github.com/vertgenlab/gonomics/vcf"
)

// BuildHeader assembles the minimal VCF header for the optional
// --with-header wrapper. There is no FORMAT/SAMPLE column: every data line
// this package writes is the literal 8-column record §4.E defines, with no
// genotype information.
func BuildHeader(refID string, referenceLength int) vcf.Header {
	var h vcf.Header
	h.Text = append(h.Text, "##fileformat=VCFv4.2")
	h.Text = append(h.Text, fmt.Sprintf("##contig=<ID=%s,length=%d>", refID, referenceLength))
	h.Text = append(h.Text, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	return h
}

// WriteHeader writes h to w via gonomics' own header writer, ahead of any
// data lines from Emitter.
func WriteHeader(w io.Writer, h vcf.Header) {
	vcf.NewWriteHeader(w, h)
}
