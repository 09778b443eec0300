package analysis

import (
	"fmt"
	"math"
	"slices"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/stats"
)

// SliceRow describes one column slice after median normalization.
type SliceRow struct {
	Index      int     `csv:"slice"`
	Rows       int     `csv:"rows"`
	Cols       int     `csv:"cols"`
	Entropy    float64 `csv:"entropy"`
	NativeBits int64   `csv:"native_bits"`
	CodedBits  int64   `csv:"coded_bits"`
}

// SliceReport is the result of [MedianSlices].
type SliceReport struct {
	Slices []SliceRow

	// Medians is an nslices×rows matrix holding each slice's per-row medians.
	Medians        mphenc.Matrix
	MediansEntropy float64
	MediansSizes   Sizes

	InputEntropy float64
	InputSizes   Sizes
}

// CompressedBits is the total size of the median-normalized encoding: every
// slice plus the medians.
func (r *SliceReport) CompressedBits() int64 {
	total := r.MediansSizes.Compressed
	for _, row := range r.Slices {
		total += row.CodedBits
	}
	return total
}

// Factor compares plain Huffman coding of the input with the median-normalized
// encoding.
func (r *SliceReport) Factor() float64 {
	return ratio(r.InputSizes.Compressed, r.CompressedBits())
}

// NativeFactor compares the fixed-width input with the median-normalized
// encoding.
func (r *SliceReport) NativeFactor() float64 {
	return ratio(r.InputSizes.Native, r.CompressedBits())
}

// HuffmanFactor compares the fixed-width input with plain Huffman coding.
func (r *SliceReport) HuffmanFactor() float64 {
	return r.InputSizes.Ratio()
}

func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// MedianSlices cuts the image into `nslices` column slices of equal width
// (cols/nslices, rounded to nearest), subtracts each row's median within the
// slice, and sizes the result. Columns past the last slice are ignored. If
// rounding up makes the slices overrun the image, the last ones are clipped,
// and slices that would be empty are left out.
func MedianSlices(img *mphenc.Image, nslices int, includeCodebook bool) (*SliceReport, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if nslices < 1 {
		return nil, mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("need at least one slice, got %d", nslices))
	}

	sliceLen := int(math.Round(float64(img.Cols) / float64(nslices)))
	if sliceLen < 1 {
		return nil, mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't cut %d columns into %d slices", img.Cols, nslices))
	}

	report := &SliceReport{Slices: make([]SliceRow, 0, nslices)}
	medians := make([]mphenc.Symbol, 0, nslices*img.Rows)

	for n := 0; n < nslices; n++ {
		start := n * sliceLen
		if start >= img.Cols {
			break
		}
		end := min(start+sliceLen, img.Cols)

		normed := img.Columns(start, end)
		for r := 0; r < normed.Rows; r++ {
			row := normed.Row(r)
			median := Median(row)
			for i := range row {
				row[i] -= median
			}
			medians = append(medians, median)
		}

		sizes, err := SizeCompare(normed, img.BitWidth, includeCodebook)
		if err != nil {
			return nil, err
		}
		slice := SliceRow{
			Index:      n,
			Rows:       normed.Rows,
			Cols:       normed.Cols,
			Entropy:    stats.Entropy(normed.Data),
			NativeBits: sizes.Native,
			CodedBits:  sizes.Compressed,
		}
		log.Debugf("slice %d: %dx%d x %.4f = %d", n, slice.Rows, slice.Cols, slice.Entropy, slice.CodedBits)
		report.Slices = append(report.Slices, slice)
	}

	report.Medians = mphenc.Matrix{Rows: len(report.Slices), Cols: img.Rows, Data: medians}
	report.MediansEntropy = stats.Entropy(medians)

	var err error
	report.MediansSizes, err = SizeCompare(report.Medians, img.BitWidth, includeCodebook)
	if err != nil {
		return nil, err
	}

	report.InputEntropy = stats.Entropy(img.Data)
	report.InputSizes, err = SizeCompare(img.Matrix, img.BitWidth, includeCodebook)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Median returns the median of the values, truncated toward zero when it falls
// halfway between two of them. The input is not modified. An empty slice has
// a median of 0.
func Median(values []mphenc.Symbol) mphenc.Symbol {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return mphenc.Symbol((int64(sorted[mid-1]) + int64(sorted[mid])) / 2)
}
