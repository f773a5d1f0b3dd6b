// Package mapping places assembled sequences on the reference by ungapped,
// mismatch-bounded comparison.
package mapping

import (
	"errors"
	"fmt"
)

var (
	ErrMaxMismatches = errors.New("max mismatches must be >= 0")
	ErrMinIdentity   = errors.New("min identity must be in [0,1]")
)

// AlignmentRecord is one accepted placement. Start and End are inclusive
// 0-based reference coordinates; MismatchPositions are reference positions.
type AlignmentRecord struct {
	SeqIndex          int     `json:"-"`
	Sequence          string  `json:"sequence"`
	Start             int     `json:"start"`
	End               int     `json:"end"`
	IdentityScore     float64 `json:"identity_score"`
	MismatchPositions []int   `json:"mismatches_pos"`
}

// Len is the aligned window length, End-Start+1.
func (r AlignmentRecord) Len() int {
	return r.End - r.Start + 1
}

func (r AlignmentRecord) Mismatches() int {
	return len(r.MismatchPositions)
}

// MismatchLimit is the largest mismatch count a sequence of length n may
// carry while satisfying both maxMismatches and minIdentity, or -1.
func MismatchLimit(n, maxMismatches int, minIdentity float64) int {
	if n <= 0 {
		return -1
	}
	limit := min(maxMismatches, n)
	for limit >= 0 && float64(n-limit)/float64(n) < minIdentity {
		limit--
	}
	return limit
}

// countMismatches stops once the count exceeds limit.
func countMismatches(s, window string, limit int) int {
	mm := 0
	for i := 0; i < len(s); i++ {
		if s[i] != window[i] {
			mm++
			if mm > limit {
				return mm
			}
		}
	}
	return mm
}

// AlignSequence scans every offset of reference and keeps the accepted one
// with the fewest mismatches, the smallest offset on ties.
func AlignSequence(seq, reference string, maxMismatches int, minIdentity float64) (AlignmentRecord, bool) {
	var rec AlignmentRecord
	n := len(seq)
	if n == 0 || n > len(reference) {
		return rec, false
	}
	limit := MismatchLimit(n, maxMismatches, minIdentity)
	if limit < 0 {
		return rec, false
	}
	best, bestMM := -1, 0
	for i := 0; i+n <= len(reference); i++ {
		mm := countMismatches(seq, reference[i:i+n], limit)
		if mm > limit {
			continue
		}
		best, bestMM = i, mm
		if mm == 0 {
			break
		}
		limit = mm - 1
	}
	if best < 0 {
		return rec, false
	}
	rec.Sequence = seq
	rec.Start = best
	rec.End = best + n - 1
	rec.IdentityScore = float64(n-bestMM) / float64(n)
	rec.MismatchPositions = make([]int, 0, bestMM)
	for j := 0; j < n; j++ {
		if seq[j] != reference[best+j] {
			rec.MismatchPositions = append(rec.MismatchPositions, best+j)
		}
	}
	return rec, true
}

// MapSequences aligns every sequence independently. Sequences without an
// accepted offset are left out; the rest keep input order.
func MapSequences(seqs []string, reference string, maxMismatches int, minIdentity float64) ([]AlignmentRecord, error) {
	if maxMismatches < 0 {
		return nil, fmt.Errorf("[MapSequences] %w, got %d", ErrMaxMismatches, maxMismatches)
	}
	if !(minIdentity >= 0 && minIdentity <= 1) {
		return nil, fmt.Errorf("[MapSequences] %w, got %v", ErrMinIdentity, minIdentity)
	}
	recs := make([]AlignmentRecord, 0, len(seqs))
	for i, s := range seqs {
		rec, ok := AlignSequence(s, reference, maxMismatches, minIdentity)
		if !ok {
			continue
		}
		rec.SeqIndex = i
		recs = append(recs, rec)
	}
	return recs, nil
}
