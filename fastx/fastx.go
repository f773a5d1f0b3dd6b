// Package fastx reads and writes the FASTA collections of a run. Any path
// ending in ".zst" is transparently zstd (de)compressed.
package fastx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/klauspost/compress/zstd"
)

const (
	ZstSuffix = ".zst"
	LineWidth = 60
)

// Record is one FASTA entry.
type Record struct {
	ID   string
	Desc string
	Seq  string
}

type zstdWriteCloser struct {
	zw *zstd.Encoder
	bw *bufio.Writer
	fp *os.File
}

func (w *zstdWriteCloser) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}

func (w *zstdWriteCloser) Close() error {
	err := w.zw.Close()
	if ferr := w.bw.Flush(); err == nil {
		err = ferr
	}
	if ferr := w.fp.Close(); err == nil {
		err = ferr
	}
	return err
}

type zstdReadCloser struct {
	zr *zstd.Decoder
	fp *os.File
}

func (r *zstdReadCloser) Read(p []byte) (int, error) {
	return r.zr.Read(p)
}

func (r *zstdReadCloser) Close() error {
	r.zr.Close()
	return r.fp.Close()
}

// Create opens fn for writing, truncating it.
func Create(fn string) (io.WriteCloser, error) {
	fp, err := os.Create(fn)
	if err != nil {
		return nil, fmt.Errorf("[Create] %w", err)
	}
	if !strings.HasSuffix(fn, ZstSuffix) {
		return fp, nil
	}
	bw := bufio.NewWriterSize(fp, 1<<16)
	zw, err := zstd.NewWriter(bw, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(1))
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("[Create] zstd writer %s: %w", fn, err)
	}
	return &zstdWriteCloser{zw: zw, bw: bw, fp: fp}, nil
}

// Open opens fn for reading.
func Open(fn string) (io.ReadCloser, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("[Open] %w", err)
	}
	if !strings.HasSuffix(fn, ZstSuffix) {
		return fp, nil
	}
	zr, err := zstd.NewReader(fp, zstd.WithDecoderConcurrency(1))
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("[Open] zstd reader %s: %w", fn, err)
	}
	return &zstdReadCloser{zr: zr, fp: fp}, nil
}

// ReadFasta returns every record of r in file order.
func ReadFasta(r io.Reader) ([]Record, error) {
	var recs []Record
	fafp := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein))
	for {
		s, err := fafp.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return recs, fmt.Errorf("[ReadFasta] record %d: %w", len(recs)+1, err)
		}
		l := s.(*linear.Seq)
		b := make([]byte, len(l.Seq))
		for i, v := range l.Seq {
			b[i] = byte(v)
		}
		recs = append(recs, Record{ID: l.Name(), Desc: l.Description(), Seq: string(b)})
	}
	return recs, nil
}

// ReadFastaFile is ReadFasta on a (possibly compressed) file.
func ReadFastaFile(fn string) ([]Record, error) {
	fp, err := Open(fn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	recs, err := ReadFasta(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return recs, nil
}

// Seqs drops the headers.
func Seqs(recs []Record) []string {
	seqs := make([]string, len(recs))
	for i, r := range recs {
		seqs[i] = r.Seq
	}
	return seqs
}

// WriteSeqs writes seqs as ">prefix_n length: L" entries, n starting at 1.
func WriteSeqs(w io.Writer, prefix string, seqs []string) error {
	bw := bufio.NewWriter(w)
	fw := fasta.NewWriter(bw, LineWidth)
	for i, s := range seqs {
		sq := linear.NewSeq(fmt.Sprintf("%s_%d", prefix, i+1), alphabet.BytesToLetters([]byte(s)), alphabet.Protein)
		sq.Desc = fmt.Sprintf("length: %d", len(s))
		if _, err := fw.Write(sq); err != nil {
			return fmt.Errorf("[WriteSeqs] %s_%d: %w", prefix, i+1, err)
		}
	}
	return bw.Flush()
}

// WriteSeqsFile is WriteSeqs into fn.
func WriteSeqsFile(fn, prefix string, seqs []string) (err error) {
	fp, err := Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("[WriteSeqsFile] close %s: %w", fn, cerr)
		}
	}()
	return WriteSeqs(fp, prefix, seqs)
}
