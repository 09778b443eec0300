package codec

import (
	"fmt"
	"math"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/bitstream"
	"github.com/dargueta/mphenc/chunking"
	"github.com/dargueta/mphenc/huffman"
	"github.com/dargueta/mphenc/stats"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("mphenc/codec")

// DefaultChunkSize is the chunk width used by the original experiments.
const DefaultChunkSize = 10

// Stream is one entropy-coded symbol stream and the table that decodes it.
type Stream struct {
	Table *huffman.CodeTable
	Count int
	Bits  bitstream.Bitstream
}

// Container holds everything needed to rebuild an image.
type Container struct {
	Rows int
	// Cols is the number of columns retained, always a multiple of ChunkSize.
	Cols      int
	ChunkSize int
	BitWidth  uint
	Baseline  Stream
	Residual  Stream
}

// ChunkCount is the number of chunks per row.
func (c *Container) ChunkCount() int {
	return chunking.ChunkCount(c.Cols, c.ChunkSize)
}

// ExpectedCounts gives the number of baseline and residual symbols implied by
// the container's shape.
func (c *Container) ExpectedCounts() (baseline, residual int) {
	nchunks := c.ChunkCount()
	return c.Rows * nchunks, c.Rows * nchunks * (c.ChunkSize - 1)
}

// Encode compresses the image using chunks of `chunkSize` columns. Columns
// after the last whole chunk are dropped.
//
// Fails with ErrInvalidChunkSize if chunkSize < 1, and with ErrEmptyInput if
// the image has no rows or is narrower than one chunk.
func Encode(img *mphenc.Image, chunkSize int) (*Container, error) {
	if chunkSize < 1 {
		return nil, mphenc.ErrInvalidChunkSize.WithMessage(
			fmt.Sprintf("chunk size must be at least 1, got %d", chunkSize))
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	nchunks := chunking.ChunkCount(img.Cols, chunkSize)
	if img.Rows == 0 || nchunks == 0 {
		return nil, mphenc.ErrEmptyInput.WithMessage(
			fmt.Sprintf("%dx%d image holds no chunks of %d columns", img.Rows, img.Cols, chunkSize))
	}
	if dropped := img.Cols - nchunks*chunkSize; dropped > 0 {
		log.Debugf("dropping %d trailing columns of %d", dropped, img.Cols)
	}

	baselines, residuals, err := chunking.Split(img.Matrix, chunkSize)
	if err != nil {
		return nil, err
	}

	baseline, err := encodeStream(baselines.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding baselines: %w", err)
	}
	residual, err := encodeStream(residuals.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding residuals: %w", err)
	}

	container := &Container{
		Rows:      img.Rows,
		Cols:      nchunks * chunkSize,
		ChunkSize: chunkSize,
		BitWidth:  img.BitWidth,
		Baseline:  baseline,
		Residual:  residual,
	}
	log.Debugf(
		"encoded %dx%d image: %d baseline bits (%d codes), %d residual bits (%d codes)",
		container.Rows,
		container.Cols,
		baseline.Bits.Len,
		baseline.Table.Len(),
		residual.Bits.Len,
		residual.Table.Len(),
	)
	return container, nil
}

func encodeStream(symbols []mphenc.Symbol) (Stream, error) {
	var table *huffman.CodeTable
	var err error

	if len(symbols) == 0 {
		table, err = huffman.FromLengths(nil)
	} else {
		table, err = huffman.Build(stats.Frequencies(symbols))
	}
	if err != nil {
		return Stream{}, err
	}

	bits, err := bitstream.Encode(symbols, table)
	if err != nil {
		return Stream{}, err
	}
	return Stream{Table: table, Count: len(symbols), Bits: bits}, nil
}

// Validate checks that the container's shape is self-consistent and matches
// its stream counts.
func (c *Container) Validate() error {
	if c.ChunkSize < 1 {
		return mphenc.ErrInvalidChunkSize.WithMessage(
			fmt.Sprintf("container has chunk size %d", c.ChunkSize))
	}
	if c.Rows < 1 || c.Cols < 1 {
		return mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("container holds a %dx%d image", c.Rows, c.Cols))
	}
	// The header stores all three as uint32.
	if uint64(c.Rows) > math.MaxUint32 || uint64(c.Cols) > math.MaxUint32 ||
		uint64(c.ChunkSize) > math.MaxUint32 {
		return mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf(
				"%dx%d image with %d-column chunks doesn't fit in a header",
				c.Rows,
				c.Cols,
				c.ChunkSize,
			),
		)
	}
	if c.Cols%c.ChunkSize != 0 {
		return mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("%d columns isn't a whole number of %d-column chunks", c.Cols, c.ChunkSize))
	}
	if c.BitWidth < 1 || c.BitWidth > 32 {
		return mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("bit width must be in [1, 32], got %d", c.BitWidth))
	}
	if c.Baseline.Table == nil || c.Residual.Table == nil {
		return mphenc.ErrCorruptTable.WithMessage("missing code table")
	}

	for _, stream := range []*Stream{&c.Baseline, &c.Residual} {
		if stream.Bits.Len < 0 || stream.Bits.Len > 8*len(stream.Bits.Data) {
			return mphenc.ErrShapeMismatch.WithMessage(
				fmt.Sprintf(
					"stream of %d bytes can't hold %d bits",
					len(stream.Bits.Data),
					stream.Bits.Len,
				),
			)
		}
	}

	expectedBaseline, expectedResidual := c.ExpectedCounts()
	if c.Baseline.Count != expectedBaseline {
		return mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("expected %d baseline symbols, got %d", expectedBaseline, c.Baseline.Count))
	}
	if c.Residual.Count != expectedResidual {
		return mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("expected %d residual symbols, got %d", expectedResidual, c.Residual.Count))
	}
	return nil
}

// Decode rebuilds the retained columns of the encoded image.
func Decode(c *Container) (*mphenc.Image, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	nchunks := c.ChunkCount()

	baselineSymbols, err := bitstream.Decode(c.Baseline.Bits, c.Baseline.Table, c.Baseline.Count)
	if err != nil {
		return nil, fmt.Errorf("decoding baselines: %w", err)
	}
	residualSymbols, err := bitstream.Decode(c.Residual.Bits, c.Residual.Table, c.Residual.Count)
	if err != nil {
		return nil, fmt.Errorf("decoding residuals: %w", err)
	}

	baselines := mphenc.Matrix{Rows: c.Rows, Cols: nchunks, Data: baselineSymbols}
	residuals := mphenc.Matrix{
		Rows: c.Rows,
		Cols: nchunks * (c.ChunkSize - 1),
		Data: residualSymbols,
	}

	merged, err := chunking.Merge(baselines, residuals, c.ChunkSize)
	if err != nil {
		return nil, err
	}
	log.Debugf("decoded %dx%d image", merged.Rows, merged.Cols)
	return mphenc.NewImage(merged, c.BitWidth)
}

// PayloadBits is the number of bits in both streams, excluding padding, tables
// and the header.
func (c *Container) PayloadBits() int64 {
	return int64(c.Baseline.Bits.Len) + int64(c.Residual.Bits.Len)
}

// TableBits is the number of bits the two serialized code tables take up.
func (c *Container) TableBits() int64 {
	return 8 * int64(len(huffman.Serialize(c.Baseline.Table))+len(huffman.Serialize(c.Residual.Table)))
}

// NativeBits is the size of the retained columns in a naive fixed-width
// encoding at the given sample width.
func (c *Container) NativeBits(bitWidth uint) int64 {
	return int64(bitWidth) * int64(c.Rows) * int64(c.Cols)
}

// CompressionRatio compares the naive fixed-width size of the retained columns
// of `img` with the size of the container's streams, optionally counting the
// code tables too. Larger is better; below 1 means the encoding inflated the
// data.
func CompressionRatio(img *mphenc.Image, c *Container, includeTables bool) float64 {
	compressed := c.PayloadBits()
	if includeTables {
		compressed += c.TableBits()
	}
	if compressed == 0 {
		return 0
	}
	return float64(c.NativeBits(img.BitWidth)) / float64(compressed)
}
