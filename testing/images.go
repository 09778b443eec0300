package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/codec"
	"github.com/dargueta/mphenc/utilities/compression"
	"github.com/dargueta/mphenc/waveform"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// RandomImage returns a `rows`×`cols` image of uniformly random samples in
// [0, 2^bitWidth). Its residuals are as incompressible as its samples.
func RandomImage(t *testing.T, rows, cols int, bitWidth uint, seed uint64) *mphenc.Image {
	rng := waveform.NewSource(seed)
	m := mphenc.NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = mphenc.Symbol(rng.IntN(1 << bitWidth))
	}

	img, err := mphenc.NewImage(m, bitWidth)
	require.NoError(t, err)
	return img
}

// NoiseImage returns `channels` rows of detector noise from [waveform.Noise].
func NoiseImage(t *testing.T, channels int, seed uint64) *mphenc.Image {
	img, _ := waveform.Noise(channels, waveform.NewSource(seed))
	require.NoError(t, img.Validate())
	return img
}

// ImageFromRows builds an image from literal rows, failing the test on error.
func ImageFromRows(t *testing.T, rows [][]mphenc.Symbol, bitWidth uint) *mphenc.Image {
	img, err := mphenc.ImageFromRows(rows, bitWidth)
	require.NoError(t, err)
	return img
}

// EncodedImageStream encodes an image and returns a stream positioned at the
// start of the container.
//
//   - Writes to the stream do not affect anything else.
//   - The stream can't grow past the size of the encoded container.
func EncodedImageStream(t *testing.T, img *mphenc.Image, chunkSize int) io.ReadWriteSeeker {
	buffer := bytes.Buffer{}
	n, err := codec.EncodeTo(&buffer, img, chunkSize)
	require.NoError(t, err)
	require.EqualValues(t, buffer.Len(), n, "reported size doesn't match bytes written")

	return bytesextra.NewReadWriteSeeker(buffer.Bytes())
}

// LoadPackedImage takes a fixed-width packed image compressed with
// [compression.CompressImage] and returns the image.
func LoadPackedImage(
	t *testing.T, compressedImageBytes []byte, rows, cols int, bitWidth uint,
) *mphenc.Image {
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	packed, err := compression.DecompressImageToBytes(bytes.NewReader(compressedImageBytes))
	require.NoError(t, err)
	require.Equal(
		t,
		(rows*cols*int(bitWidth)+7)/8,
		len(packed),
		"uncompressed image is wrong size",
	)

	m, err := compression.UnpackFixedWidth(packed, rows, cols, bitWidth)
	require.NoError(t, err)

	img, err := mphenc.NewImage(m, bitWidth)
	require.NoError(t, err)
	return img
}
