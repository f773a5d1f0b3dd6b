// Package scaffold joins contigs whose suffix and prefix overlap into longer
// scaffolds, repeating until no pair can be merged.
package scaffold

import (
	"errors"
	"fmt"

	"pga/utils"
)

var ErrMinOverlap = errors.New("min overlap must be > 0")

// Overlap returns the longest l >= minOverlap such that the last l residues
// of a equal the first l residues of b, or 0 when there is none.
func Overlap(a, b string, minOverlap int) int {
	maxLen := min(len(a), len(b))
	for l := maxLen; l >= minOverlap && l > 0; l-- {
		if a[len(a)-l:] == b[:l] {
			return l
		}
	}
	return 0
}

// MergeSeqs contracts the overlap graph of seqs. Every step merges the pair
// with the longest overlap (ties: lower left index, then lower right index)
// into a + b[overlap:]. The result takes the left operand's slot and the
// right operand leaves the pool, so merged sequences keep competing. Stops
// when no pair overlaps by at least minOverlap.
func MergeSeqs(seqs []string, minOverlap int) ([]string, error) {
	if minOverlap <= 0 {
		return nil, fmt.Errorf("[MergeSeqs] %w, got %d", ErrMinOverlap, minOverlap)
	}
	n := len(seqs)
	pool := make([]string, n)
	copy(pool, seqs)
	alive := make([]bool, n)
	ov := make([][]int, n)
	for i := range pool {
		alive[i] = true
		ov[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				ov[i][j] = Overlap(pool[i], pool[j], minOverlap)
			}
		}
	}

	for {
		bi, bj, bl := -1, -1, 0
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for j := 0; j < n; j++ {
				if i == j || !alive[j] {
					continue
				}
				if ov[i][j] > bl {
					bi, bj, bl = i, j, ov[i][j]
				}
			}
		}
		if bi < 0 {
			break
		}
		pool[bi] = pool[bi] + pool[bj][bl:]
		alive[bj] = false
		for x := 0; x < n; x++ {
			if x == bi || !alive[x] {
				continue
			}
			ov[bi][x] = Overlap(pool[bi], pool[x], minOverlap)
			ov[x][bi] = Overlap(pool[x], pool[bi], minOverlap)
		}
	}

	merged := make([]string, 0, n)
	for i, s := range pool {
		if alive[i] {
			merged = append(merged, s)
		}
	}
	return merged, nil
}

// CreateScaffolds merges contigs to the fixed point, then dedups, keeps
// scaffolds longer than sizeThreshold and sorts them by descending length.
func CreateScaffolds(contigs []string, minOverlap, sizeThreshold int) ([]string, error) {
	merged, err := MergeSeqs(contigs, minOverlap)
	if err != nil {
		return nil, err
	}
	return utils.RefineSeqs(merged, sizeThreshold), nil
}
