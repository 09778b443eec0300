// Package chunking splits an image into column chunks and derives, for each
// chunk, a baseline column and the column-to-column residuals.
//
// For a chunk of width `size` starting at column `k*size`:
//
//	baseline[:, k]                  = chunk[:, 0]
//	residual[:, k*(size-1) + i - 1] = chunk[:, i] - chunk[:, i-1]    for i in [1, size)
//
// Columns past the last full chunk are dropped. Residuals use two's-complement
// int32 arithmetic, so Merge reproduces the input exactly even when a true
// difference wouldn't fit in 32 bits.
package chunking

import (
	"fmt"

	"github.com/dargueta/mphenc"
)

// ChunkCount gives the number of whole chunks of width `size` in `cols`
// columns.
func ChunkCount(cols, size int) int {
	if size < 1 {
		return 0
	}
	return cols / size
}

// RetainedColumns gives the number of columns that survive a split.
func RetainedColumns(cols, size int) int {
	return ChunkCount(cols, size) * size
}

func checkChunkSize(size int) error {
	if size < 1 {
		return mphenc.ErrInvalidChunkSize.WithMessage(
			fmt.Sprintf("chunk size must be at least 1, got %d", size))
	}
	return nil
}

// Split breaks the image into chunks of `size` columns, returning the baseline
// matrix (rows × nchunks) and the residual matrix (rows × nchunks*(size-1)).
func Split(img mphenc.Matrix, size int) (baselines, residuals mphenc.Matrix, err error) {
	if err = checkChunkSize(size); err != nil {
		return
	}
	if err = img.Validate(); err != nil {
		return
	}

	nchunks := ChunkCount(img.Cols, size)
	baselines = mphenc.NewMatrix(img.Rows, nchunks)
	residuals = mphenc.NewMatrix(img.Rows, nchunks*(size-1))

	for r := 0; r < img.Rows; r++ {
		row := img.Row(r)
		baseRow := baselines.Row(r)
		residualRow := residuals.Row(r)

		for k := 0; k < nchunks; k++ {
			chunk := row[k*size : (k+1)*size]
			baseRow[k] = chunk[0]

			deltas := residualRow[k*(size-1) : (k+1)*(size-1)]
			for i := 1; i < size; i++ {
				deltas[i-1] = chunk[i] - chunk[i-1]
			}
		}
	}
	return baselines, residuals, nil
}

// Merge is the inverse of Split. It rebuilds each chunk by starting from the
// baseline column and adding up the residuals.
func Merge(baselines, residuals mphenc.Matrix, size int) (mphenc.Matrix, error) {
	if err := checkChunkSize(size); err != nil {
		return mphenc.Matrix{}, err
	}
	if err := baselines.Validate(); err != nil {
		return mphenc.Matrix{}, err
	}
	if err := residuals.Validate(); err != nil {
		return mphenc.Matrix{}, err
	}

	nchunks := baselines.Cols
	if baselines.Rows != residuals.Rows {
		return mphenc.Matrix{}, mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf(
				"baselines have %d rows but residuals have %d",
				baselines.Rows,
				residuals.Rows,
			),
		)
	}
	if residuals.Cols != nchunks*(size-1) {
		return mphenc.Matrix{}, mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf(
				"%d chunks of size %d need %d residual columns, got %d",
				nchunks,
				size,
				nchunks*(size-1),
				residuals.Cols,
			),
		)
	}

	img := mphenc.NewMatrix(baselines.Rows, nchunks*size)
	for r := 0; r < img.Rows; r++ {
		row := img.Row(r)
		baseRow := baselines.Row(r)
		residualRow := residuals.Row(r)

		for k := 0; k < nchunks; k++ {
			chunk := row[k*size : (k+1)*size]
			deltas := residualRow[k*(size-1) : (k+1)*(size-1)]

			chunk[0] = baseRow[k]
			for i := 1; i < size; i++ {
				chunk[i] = chunk[i-1] + deltas[i-1]
			}
		}
	}
	return img, nil
}
