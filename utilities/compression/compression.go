package compression

import (
	"bytes"
	"io"

	"github.com/dargueta/mphenc"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressImage compresses packed image bytes using RLE8 and gzip.
//
// The returned int64 gives the number of bytes written to the output stream. If
// an error occurred, the value is undefined and should not be used.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	counter := &countingWriter{w: output}

	// Images are small enough that the slowest, best compression level costs
	// nothing noticeable.
	gzWriter, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	if _, err = CompressRLE8(input, gzWriter); err != nil {
		gzWriter.Close()
		return counter.n, err
	}
	err = gzWriter.Close()
	return counter.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// DecompressImage takes gzipped, RLE8-encoded bytes and expands them to the
// original packed image.
//
// The returned int64 gives the number of bytes written to the output (i.e. the
// decompressed size of the image). If an error occurred, the value is undefined
// and should not be used.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, err
	}
	defer gzReader.Close()
	return DecompressRLE8(gzReader, output)
}

// CompressImageToBytes is a convenience wrapper around [CompressImage] that
// returns the compressed data in a new slice.
func CompressImageToBytes(input []byte) ([]byte, error) {
	buffer := bytes.Buffer{}
	_, err := CompressImage(bytes.NewReader(input), &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DecompressImageToBytes is a convenience wrapper around [DecompressImage]
// that returns the decompressed data in a new slice.
func DecompressImageToBytes(input io.Reader) ([]byte, error) {
	buffer := bytes.Buffer{}
	_, err := DecompressImage(input, &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// CompressZstd compresses a buffer with zstd at its strongest practical level.
func CompressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
	)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

// DecompressZstd reverses [CompressZstd].
func DecompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}

// ReferenceSizes gives the size in bytes of a matrix under each of the
// reference encodings.
type ReferenceSizes struct {
	Packed   int
	RLE8Gzip int
	Zstd     int
}

// MeasureReferenceSizes packs the matrix at the given bit width and compresses
// the result each available way.
func MeasureReferenceSizes(m mphenc.Matrix, bitWidth uint) (ReferenceSizes, error) {
	packed, err := PackFixedWidth(m, bitWidth)
	if err != nil {
		return ReferenceSizes{}, err
	}

	rle, err := CompressImageToBytes(packed)
	if err != nil {
		return ReferenceSizes{}, err
	}

	zst, err := CompressZstd(packed)
	if err != nil {
		return ReferenceSizes{}, err
	}

	return ReferenceSizes{
		Packed:   len(packed),
		RLE8Gzip: len(rle),
		Zstd:     len(zst),
	}, nil
}
