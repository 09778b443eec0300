package compression

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/mphenc"
)

func checkBitWidth(bitWidth uint) error {
	if bitWidth < 1 || bitWidth > 32 {
		return mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("bit width must be in [1, 32], got %d", bitWidth))
	}
	return nil
}

// PackFixedWidth stores each sample of the matrix in exactly `bitWidth` bits,
// in row-major order. Only the low `bitWidth` bits of a sample are kept, so
// negative samples or samples that need more bits don't survive unpacking.
func PackFixedWidth(m mphenc.Matrix, bitWidth uint) ([]byte, error) {
	if err := checkBitWidth(bitWidth); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	width := int(bitWidth)
	packed := bitmap.Bitmap(make([]byte, (len(m.Data)*width+7)/8))
	for i, sample := range m.Data {
		value := uint32(sample)
		base := i * width
		for b := 0; b < width; b++ {
			packed.Set(base+b, value&(1<<(width-1-b)) != 0)
		}
	}
	return packed.Data(false), nil
}

// UnpackFixedWidth reverses [PackFixedWidth] for a matrix of the given shape.
// Samples come back as unsigned `bitWidth`-bit values.
func UnpackFixedWidth(data []byte, rows, cols int, bitWidth uint) (mphenc.Matrix, error) {
	if err := checkBitWidth(bitWidth); err != nil {
		return mphenc.Matrix{}, err
	}

	width := int(bitWidth)
	needed := (rows*cols*width + 7) / 8
	if len(data) < needed {
		return mphenc.Matrix{}, mphenc.ErrTruncatedStream.WithMessage(
			fmt.Sprintf("%dx%d matrix of %d-bit samples needs %d bytes, got %d",
				rows, cols, width, needed, len(data)))
	}

	packed := bitmap.Bitmap(data)
	m := mphenc.NewMatrix(rows, cols)
	for i := range m.Data {
		var value uint32
		base := i * width
		for b := 0; b < width; b++ {
			value <<= 1
			if packed.Get(base + b) {
				value |= 1
			}
		}
		m.Data[i] = mphenc.Symbol(value)
	}
	return m, nil
}
