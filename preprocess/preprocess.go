// Package preprocess turns de novo peptide predictions (PSMs) into the
// cleaned read list the assembler consumes.
package preprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pga/fastx"
)

const (
	// MissingLogProb marks a prediction without a usable score.
	MissingLogProb = -1.0
	// FloorLogProb replaces MissingLogProb before confidences are derived.
	FloorLogProb = -10.0

	BSARun         = "bsa"
	BSADescription = "Bovine serum albumin precursor"
)

var ErrNoPredsColumn = errors.New("PSM table has no 'preds' column")

var modRegexp = regexp.MustCompile(`\(.*?\)`)

// PSM is one row of the prediction table.
type PSM struct {
	ExperimentName string
	Preds          string
	LogProbs       float64
	Protease       string
	Conf           float64
	Cleaned        string
}

// NormalizeSequence collapses isoleucine onto leucine, which mass
// spectrometry cannot tell apart.
func NormalizeSequence(s string) string {
	return strings.ReplaceAll(s, "I", "L")
}

// RemoveModifications deletes every parenthesised modification, e.g.
// "M(ox)KWV" -> "MKWV".
func RemoveModifications(s string) string {
	return modRegexp.ReplaceAllString(s, "")
}

// ExtractProtease returns the first '_' separated token of experimentName
// that names a known protease, or "".
func ExtractProtease(experimentName string, proteases []string) string {
	for _, part := range strings.Split(experimentName, "_") {
		for _, p := range proteases {
			if part == p {
				return part
			}
		}
	}
	return ""
}

// ReadPSMs parses a comma separated table with a header line. Only 'preds'
// is required; rows with an empty prediction are dropped. A missing or empty
// 'log_probs' value reads as NaN, which no confidence cutoff accepts.
func ReadPSMs(r io.Reader) ([]PSM, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoPredsColumn
		}
		return nil, fmt.Errorf("[ReadPSMs] header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	predsIdx, ok := col["preds"]
	if !ok {
		return nil, ErrNoPredsColumn
	}
	field := func(row []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var psms []PSM
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return psms, fmt.Errorf("[ReadPSMs] line %d: %w", line, err)
		}
		if predsIdx >= len(row) || strings.TrimSpace(row[predsIdx]) == "" {
			continue
		}
		psm := PSM{Preds: strings.TrimSpace(row[predsIdx]), LogProbs: math.NaN()}
		if v, ok := field(row, "log_probs"); ok && v != "" {
			lp, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return psms, fmt.Errorf("[ReadPSMs] line %d: log_probs %q: %w", line, v, err)
			}
			psm.LogProbs = lp
		}
		psm.ExperimentName, _ = field(row, "experiment_name")
		psms = append(psms, psm)
	}
	return psms, nil
}

// CleanPSMs floors missing scores, derives Conf = exp(LogProbs) and the
// modification free sequence, and orders by descending confidence. Rows of
// equal confidence keep table order. psms is not modified.
func CleanPSMs(psms []PSM, proteases []string) []PSM {
	cleaned := make([]PSM, 0, len(psms))
	for _, p := range psms {
		if p.Preds == "" {
			continue
		}
		if p.LogProbs == MissingLogProb {
			p.LogProbs = FloorLogProb
		}
		p.Conf = math.Exp(p.LogProbs)
		p.Cleaned = RemoveModifications(p.Preds)
		if len(proteases) > 0 {
			p.Protease = ExtractProtease(p.ExperimentName, proteases)
		}
		cleaned = append(cleaned, p)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Conf > cleaned[j].Conf || (!math.IsNaN(cleaned[i].Conf) && math.IsNaN(cleaned[j].Conf))
	})
	return cleaned
}

// ContaminantSeqs picks the contaminant sequences that apply to run. A BSA
// run keeps its own target out of the list.
func ContaminantSeqs(run string, recs []fastx.Record) []string {
	seqs := make([]string, 0, len(recs))
	for _, r := range recs {
		if run == BSARun && strings.Contains(r.ID+" "+r.Desc, BSADescription) {
			continue
		}
		seqs = append(seqs, r.Seq)
	}
	return seqs
}

func isContaminant(s string, contaminants []string) bool {
	for _, c := range contaminants {
		if strings.Contains(c, s) {
			return true
		}
	}
	return false
}

// FilterContaminants drops every sequence found inside a contaminant.
func FilterContaminants(seqs, contaminants []string) []string {
	kept := make([]string, 0, len(seqs))
	for _, s := range seqs {
		if !isContaminant(s, contaminants) {
			kept = append(kept, s)
		}
	}
	return kept
}

// FilterConfidence keeps PSMs with Conf strictly above conf.
func FilterConfidence(psms []PSM, conf float64) []PSM {
	kept := make([]PSM, 0, len(psms))
	for _, p := range psms {
		if p.Conf > conf {
			kept = append(kept, p)
		}
	}
	return kept
}

// Options drive PrepareReads.
type Options struct {
	Run          string
	Conf         float64
	Proteases    []string
	Contaminants []fastx.Record
}

// PrepareReads runs the whole cleaning chain and returns the reads, in
// confidence order, with modifications removed and I/L collapsed.
func PrepareReads(psms []PSM, opt Options) []string {
	kept := FilterConfidence(CleanPSMs(psms, opt.Proteases), opt.Conf)
	seqs := make([]string, len(kept))
	for i, p := range kept {
		seqs[i] = p.Cleaned
	}
	reads := FilterContaminants(seqs, ContaminantSeqs(opt.Run, opt.Contaminants))
	for i, s := range reads {
		reads[i] = NormalizeSequence(s)
	}
	return reads
}

// ProteaseCounts tallies PSMs per protease; PSMs without one are skipped.
func ProteaseCounts(psms []PSM) map[string]int {
	counts := make(map[string]int)
	for _, p := range psms {
		if p.Protease != "" {
			counts[p.Protease]++
		}
	}
	return counts
}
