package codec_test

import (
	"testing"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/bitstream"
	"github.com/dargueta/mphenc/codec"
	mphtest "github.com/dargueta/mphenc/testing"
	"github.com/dargueta/mphenc/utilities/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeOrFail(t *testing.T, img *mphenc.Image, chunkSize int) *codec.Container {
	container, err := codec.Encode(img, chunkSize)
	require.NoError(t, err, "encoding failed")
	return container
}

func TestRoundTrip(t *testing.T) {
	images := map[string]*mphenc.Image{
		"noise":    mphtest.NoiseImage(t, 8, 1),
		"random":   mphtest.RandomImage(t, 7, 97, 12, 2),
		"constant": mphtest.ImageFromRows(t, [][]mphenc.Symbol{{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}}, 4),
		"one row":  mphtest.RandomImage(t, 1, 40, 8, 3),
	}

	for name, img := range images {
		for _, chunkSize := range []int{1, 2, 3, 10} {
			container := encodeOrFail(t, img, chunkSize)
			decoded, err := codec.Decode(container)
			require.NoError(t, err, "%s, chunk size %d", name, chunkSize)

			retained := img.Columns(0, (img.Cols/chunkSize)*chunkSize)
			assert.Equal(t, retained, decoded.Matrix, "%s, chunk size %d", name, chunkSize)
			assert.Equal(t, img.BitWidth, decoded.BitWidth)
		}
	}
}

func TestEncode__Scenario(t *testing.T) {
	img := mphtest.ImageFromRows(t, [][]mphenc.Symbol{{5, 5, 5, 5}, {5, 6, 5, 7}}, 12)
	container := encodeOrFail(t, img, 4)

	assert.Equal(t, 2, container.Rows)
	assert.Equal(t, 4, container.Cols)
	assert.Equal(t, 4, container.ChunkSize)
	assert.Equal(t, 2, container.Baseline.Count)
	assert.Equal(t, 6, container.Residual.Count)
	assert.Equal(t, []mphenc.Symbol{5}, container.Baseline.Table.Symbols())
	assert.ElementsMatch(t, []mphenc.Symbol{0, 1, -1, 2}, container.Residual.Table.Symbols())

	decoded, err := codec.Decode(container)
	require.NoError(t, err)
	assert.Equal(t, img.Matrix, decoded.Matrix)
}

func TestEncode__Truncation(t *testing.T) {
	img := mphtest.RandomImage(t, 4, 10, 12, 4)
	container := encodeOrFail(t, img, 3)

	assert.Equal(t, 9, container.Cols)
	assert.Equal(t, 3, container.ChunkCount())

	decoded, err := codec.Decode(container)
	require.NoError(t, err)
	assert.Equal(t, 9, decoded.Cols)
	assert.Equal(t, img.Columns(0, 9), decoded.Matrix)
}

func TestEncode__Errors(t *testing.T) {
	img := mphtest.RandomImage(t, 2, 5, 12, 5)

	_, err := codec.Encode(img, 0)
	assert.ErrorIs(t, err, mphenc.ErrInvalidChunkSize)

	_, err = codec.Encode(img, 6)
	assert.ErrorIs(t, err, mphenc.ErrEmptyInput, "image narrower than a chunk")

	empty, err := mphenc.NewImage(mphenc.NewMatrix(0, 5), 12)
	require.NoError(t, err)
	_, err = codec.Encode(empty, 2)
	assert.ErrorIs(t, err, mphenc.ErrEmptyInput)
}

func TestEncode__SeparateTables(t *testing.T) {
	img := mphtest.NoiseImage(t, 4, 6)
	container := encodeOrFail(t, img, 10)

	// Baselines sit on the pedestal and residuals around zero, so the tables
	// shouldn't look alike.
	assert.False(t, container.Baseline.Table.Equal(container.Residual.Table))
	assert.True(t, container.Baseline.Table.IsComplete() || container.Baseline.Table.Len() == 1)
	assert.True(t, container.Residual.Table.IsComplete() || container.Residual.Table.Len() == 1)
}

func TestDecode__TruncatedStream(t *testing.T) {
	img := mphtest.NoiseImage(t, 3, 8)
	container := encodeOrFail(t, img, 10)

	container.Residual.Bits = container.Residual.Bits.Truncate(container.Residual.Bits.Len - 1)
	decoded, err := codec.Decode(container)
	assert.ErrorIs(t, err, mphenc.ErrTruncatedStream)
	assert.Nil(t, decoded)
}

func TestDecode__CountMismatch(t *testing.T) {
	img := mphtest.RandomImage(t, 3, 12, 12, 9)
	container := encodeOrFail(t, img, 4)

	container.Baseline.Count--
	_, err := codec.Decode(container)
	assert.ErrorIs(t, err, mphenc.ErrShapeMismatch)
}

func TestDecode__BadShape(t *testing.T) {
	img := mphtest.RandomImage(t, 3, 12, 12, 10)

	container := encodeOrFail(t, img, 4)
	container.Cols = 10
	_, err := codec.Decode(container)
	assert.ErrorIs(t, err, mphenc.ErrShapeMismatch)

	container = encodeOrFail(t, img, 4)
	container.ChunkSize = 0
	_, err = codec.Decode(container)
	assert.ErrorIs(t, err, mphenc.ErrInvalidChunkSize)
}

func TestDecode__InvalidCode(t *testing.T) {
	img := mphtest.ImageFromRows(t, [][]mphenc.Symbol{{1, 1, 1, 1}, {1, 1, 1, 1}}, 12)
	container := encodeOrFail(t, img, 2)

	// Every table here has a single 1-bit code "0", so a set bit is garbage.
	container.Baseline.Bits = bitstream.FromBytes([]byte{0xff})
	_, err := codec.Decode(container)
	assert.ErrorIs(t, err, mphenc.ErrInvalidCode)
}

func TestCompressionRatio(t *testing.T) {
	img := mphtest.ImageFromRows(t, [][]mphenc.Symbol{
		{2048, 2048, 2048, 2048},
		{2048, 2048, 2048, 2048},
	}, 12)
	container := encodeOrFail(t, img, 4)

	// 2 baselines + 6 residuals, one bit each, against 8 samples of 12 bits.
	assert.EqualValues(t, 8, container.PayloadBits())
	assert.InDelta(t, 12.0, codec.CompressionRatio(img, container, false), 1e-12)

	withTables := codec.CompressionRatio(img, container, true)
	assert.Less(t, withTables, 12.0, "tables must add to the cost")
	assert.Greater(t, withTables, 0.0)
}

func TestCompressionRatio__NoiseCompresses(t *testing.T) {
	img := mphtest.NoiseImage(t, 16, 11)
	container := encodeOrFail(t, img, codec.DefaultChunkSize)
	assert.Greater(t, codec.CompressionRatio(img, container, true), 1.0)
}

func TestRoundTrip__PackedFixture(t *testing.T) {
	original := mphtest.NoiseImage(t, 6, 12)

	packed, err := compression.PackFixedWidth(original.Matrix, original.BitWidth)
	require.NoError(t, err)
	compressed, err := compression.CompressImageToBytes(packed)
	require.NoError(t, err)

	img := mphtest.LoadPackedImage(t, compressed, original.Rows, original.Cols, original.BitWidth)
	require.Equal(t, original, img, "fixture didn't survive packing")

	container := encodeOrFail(t, img, codec.DefaultChunkSize)
	decoded, err := codec.Decode(container)
	require.NoError(t, err)
	assert.Equal(t, img.Matrix, decoded.Matrix)
}
