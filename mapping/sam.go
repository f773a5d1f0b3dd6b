package mapping

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"
)

// WriteSAM writes recs against a single reference. SEQ and QUAL are '*'. Read names are
// <namePrefix>_<n> where n is the 1-based index of the mapped sequence, so
// they match the FASTA identifiers of the same collection.
func WriteSAM(w io.Writer, refName, reference string, recs []AlignmentRecord, namePrefix string) error {
	ref, err := sam.NewReference(refName, "", "", len(reference), nil, nil)
	if err != nil {
		return fmt.Errorf("[WriteSAM] reference %s: %w", refName, err)
	}
	h, err := sam.NewHeader(nil, []*sam.Reference{ref})
	if err != nil {
		return fmt.Errorf("[WriteSAM] header: %w", err)
	}
	sw, err := sam.NewWriter(w, h, sam.FlagDecimal)
	if err != nil {
		return fmt.Errorf("[WriteSAM] %w", err)
	}
	nmTag := sam.NewTag("NM")
	for _, r := range recs {
		name := fmt.Sprintf("%s_%d", namePrefix, r.SeqIndex+1)
		nm, err := sam.NewAux(nmTag, r.Mismatches())
		if err != nil {
			return fmt.Errorf("[WriteSAM] %s NM tag: %w", name, err)
		}
		cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, r.Len())}
		rec := &sam.Record{
			Name:      name,
			Ref:       ref,
			Pos:       r.Start,
			MatePos:   -1,
			MapQ:      255,
			Cigar:     cigar,
			AuxFields: []sam.Aux{nm},
		}
		if err := sw.Write(rec); err != nil {
			return fmt.Errorf("[WriteSAM] write %s: %w", name, err)
		}
	}
	return nil
}
