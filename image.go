// Package mphenc holds the data model and error taxonomy shared by the median
// progressive Huffman codec.
//
// An image is a grid of integer samples, typically ADC counts from a detector
// readout where each row is one channel's waveform. The codec splits it into
// column chunks, keeps the first column of each chunk verbatim (the
// "baseline") and replaces the remaining columns with the difference from
// their left neighbor (the "residuals"). Both are entropy-coded with their own
// canonical Huffman tables. See the codec package for the container format.

package mphenc

import (
	"fmt"
)

// Symbol is a single sample, baseline value, or residual. Everything the
// codec touches is integral; floating point is never used for sample data.
type Symbol = int32

// DefaultBitWidth is the sample width of the 12-bit ADCs the codec was
// originally measured against.
const DefaultBitWidth = 12

// Matrix is a row-major grid of symbols.
type Matrix struct {
	Rows int
	Cols int
	// Data holds Rows*Cols symbols; element (r, c) is at r*Cols+c.
	Data []Symbol
}

// NewMatrix allocates a zero-filled matrix of the given shape.
func NewMatrix(rows, cols int) Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid matrix shape %dx%d", rows, cols))
	}
	return Matrix{Rows: rows, Cols: cols, Data: make([]Symbol, rows*cols)}
}

// MatrixFromRows copies a slice of equal-length rows into a new matrix.
func MatrixFromRows(rows [][]Symbol) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, nil
	}

	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return Matrix{}, ErrShapeMismatch.WithMessage(
				fmt.Sprintf("row %d has %d columns, expected %d", r, len(row), cols))
		}
		copy(m.Data[r*cols:], row)
	}
	return m, nil
}

func (m Matrix) At(row, col int) Symbol {
	return m.Data[row*m.Cols+col]
}

func (m Matrix) Set(row, col int, value Symbol) {
	m.Data[row*m.Cols+col] = value
}

// Row returns a view of a single row. Writes to it modify the matrix.
func (m Matrix) Row(row int) []Symbol {
	return m.Data[row*m.Cols : (row+1)*m.Cols]
}

// Len gives the number of symbols in the matrix.
func (m Matrix) Len() int {
	return m.Rows * m.Cols
}

func (m Matrix) IsEmpty() bool {
	return m.Rows == 0 || m.Cols == 0
}

// Columns returns a copy of columns [start, end) as a new matrix.
func (m Matrix) Columns(start, end int) Matrix {
	if start < 0 || end > m.Cols || start > end {
		panic(fmt.Sprintf("column range [%d, %d) out of bounds for %d columns", start, end, m.Cols))
	}

	out := NewMatrix(m.Rows, end-start)
	for r := 0; r < m.Rows; r++ {
		copy(out.Row(r), m.Data[r*m.Cols+start:r*m.Cols+end])
	}
	return out
}

// Validate checks that the backing slice agrees with the declared shape.
func (m Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return ErrShapeMismatch.WithMessage(fmt.Sprintf("negative shape %dx%d", m.Rows, m.Cols))
	}
	if len(m.Data) != m.Rows*m.Cols {
		return ErrShapeMismatch.WithMessage(
			fmt.Sprintf("%dx%d matrix backed by %d symbols", m.Rows, m.Cols, len(m.Data)))
	}
	return nil
}

func (m Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d)", m.Rows, m.Cols)
}

// Image is a matrix of samples with a declared sample width. The width only
// matters for comparing against a naive fixed-width encoding; the codec itself
// round-trips any int32 values.
type Image struct {
	Matrix
	BitWidth uint
}

// NewImage wraps a matrix as an image with the given sample width.
func NewImage(m Matrix, bitWidth uint) (*Image, error) {
	img := &Image{Matrix: m, BitWidth: bitWidth}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// ImageFromRows is a convenience combining MatrixFromRows and NewImage.
func ImageFromRows(rows [][]Symbol, bitWidth uint) (*Image, error) {
	m, err := MatrixFromRows(rows)
	if err != nil {
		return nil, err
	}
	return NewImage(m, bitWidth)
}

func (img *Image) Validate() error {
	if img.BitWidth < 1 || img.BitWidth > 32 {
		return ErrInvalidArgument.WithMessage(
			fmt.Sprintf("bit width must be in [1, 32], got %d", img.BitWidth))
	}
	return img.Matrix.Validate()
}

// NativeBits gives the size of the image in a naive fixed-width encoding.
func (img *Image) NativeBits() int64 {
	return int64(img.BitWidth) * int64(img.Rows) * int64(img.Cols)
}
