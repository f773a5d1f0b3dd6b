// Package kmer slices peptide reads into overlapping fixed-length k-mers.
package kmer

import (
	"errors"
	"fmt"
)

var ErrKmerSize = errors.New("kmer size must be > 0")

// GetReadKmers returns the len(read)-k+1 overlapping k-mers of read in read
// order. Reads shorter than k yield nothing.
func GetReadKmers(read string, k int) []string {
	if len(read) < k {
		return nil
	}
	ks := make([]string, 0, len(read)-k+1)
	for i := 0; i+k <= len(read); i++ {
		ks = append(ks, read[i:i+k])
	}
	return ks
}

// GetKmers pools the k-mers of every read into one multiset. The pool keeps
// read order then position order but not read identity.
func GetKmers(reads []string, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("[GetKmers] %w, got %d", ErrKmerSize, k)
	}
	var total int
	for _, r := range reads {
		if len(r) >= k {
			total += len(r) - k + 1
		}
	}
	pool := make([]string, 0, total)
	for _, r := range reads {
		pool = append(pool, GetReadKmers(r, k)...)
	}
	return pool, nil
}
