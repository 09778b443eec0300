// Package analysis measures how well the chunked codec and its variants do on
// an image. Nothing here produces an encoding; the functions only compute the
// sizes the encodings would have.
package analysis

import (
	"fmt"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/chunking"
	"github.com/dargueta/mphenc/huffman"
	"github.com/dargueta/mphenc/stats"
	"github.com/dargueta/mphenc/utilities/compression"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("mphenc/analysis")

// Sizes compares a naive fixed-width encoding of some symbols against a
// Huffman encoding of them. Both are in bits.
type Sizes struct {
	Native     int64
	Compressed int64
}

// Ratio is Native/Compressed, or 0 if nothing was compressed.
func (s Sizes) Ratio() float64 {
	if s.Compressed == 0 {
		return 0
	}
	return float64(s.Native) / float64(s.Compressed)
}

func (s Sizes) add(other Sizes) Sizes {
	return Sizes{Native: s.Native + other.Native, Compressed: s.Compressed + other.Compressed}
}

// SizeCompare Huffman-codes every symbol in `m` with a table built from `m`
// itself and compares the result with `symbolBits` bits per symbol. With
// includeCodebook set, the table's cost is added: `symbolBits` per entry plus
// the length of each code.
//
// An empty matrix gives zero sizes.
func SizeCompare(m mphenc.Matrix, symbolBits uint, includeCodebook bool) (Sizes, error) {
	sizes := Sizes{Native: int64(symbolBits) * int64(m.Len())}
	if m.Len() == 0 {
		return sizes, nil
	}

	freqs := stats.Frequencies(m.Data)
	table, err := huffman.Build(freqs)
	if err != nil {
		return Sizes{}, err
	}

	sizes.Compressed = table.EncodedBits(freqs.Count)
	if includeCodebook {
		sizes.Compressed += table.Cost(symbolBits)
	}
	return sizes, nil
}

// ChunkedReport compares the chunked baseline/residual encoding of an image
// against plain Huffman coding of the same image.
type ChunkedReport struct {
	ChunkSize int
	Image     Sizes
	Baselines Sizes
	Residuals Sizes

	ImageEntropy    float64
	BaselineEntropy float64
	ResidualEntropy float64

	// Reference is what general-purpose compressors make of the image.
	Reference compression.ReferenceSizes
}

// Special is the compression ratio of the chunked encoding.
func (r *ChunkedReport) Special() float64 {
	return r.Baselines.add(r.Residuals).Ratio()
}

// Nominal is the compression ratio of Huffman coding the whole image.
func (r *ChunkedReport) Nominal() float64 {
	return r.Image.Ratio()
}

func (r *ChunkedReport) String() string {
	return fmt.Sprintf("special: %.4f, nominal: %.4f", r.Special(), r.Nominal())
}

// CompareChunked splits the image into chunks of `size` columns and sizes the
// baseline and residual streams separately, each with its own table. The
// nominal figures cover every column of the image, including any the chunked
// encoding would drop.
func CompareChunked(img *mphenc.Image, size int, includeCodebook bool) (*ChunkedReport, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	baselines, residuals, err := chunking.Split(img.Matrix, size)
	if err != nil {
		return nil, err
	}

	report := &ChunkedReport{
		ChunkSize:       size,
		ImageEntropy:    stats.Entropy(img.Data),
		BaselineEntropy: stats.Entropy(baselines.Data),
		ResidualEntropy: stats.Entropy(residuals.Data),
	}

	if report.Image, err = SizeCompare(img.Matrix, img.BitWidth, includeCodebook); err != nil {
		return nil, err
	}
	if report.Baselines, err = SizeCompare(baselines, img.BitWidth, includeCodebook); err != nil {
		return nil, err
	}
	if report.Residuals, err = SizeCompare(residuals, img.BitWidth, includeCodebook); err != nil {
		return nil, err
	}
	if report.Reference, err = compression.MeasureReferenceSizes(img.Matrix, img.BitWidth); err != nil {
		return nil, err
	}

	log.Debugf("chunk size %d: %s", size, report)
	return report, nil
}
