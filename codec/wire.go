package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/bitstream"
	"github.com/dargueta/mphenc/huffman"
	"github.com/icza/bitio"
)

const (
	containerMagic   = "MPHC"
	containerVersion = 1
	// maxSymbols caps rows*cols in a header so a corrupt one can't make us size
	// allocations off garbage.
	maxSymbols = 1 << 40
)

type containerHeader struct {
	Magic     [4]byte
	Version   uint8
	BitWidth  uint8
	Rows      uint32
	Cols      uint32
	ChunkSize uint32
}

// MarshalBinary implements [encoding.BinaryMarshaler].
func (c *Container) MarshalBinary() ([]byte, error) {
	buffer := bytes.Buffer{}
	if _, err := c.WriteTo(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// UnmarshalBinary implements [encoding.BinaryUnmarshaler]. Trailing bytes after
// the residual stream are an error.
func (c *Container) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)
	decoded, err := ReadContainer(reader)
	if err != nil {
		return err
	}
	if reader.Len() != 0 {
		return mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("%d trailing bytes after container", reader.Len()))
	}
	*c = *decoded
	return nil
}

// WriteTo serializes the container. It implements [io.WriterTo].
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	header := containerHeader{
		Version:   containerVersion,
		BitWidth:  uint8(c.BitWidth),
		Rows:      uint32(c.Rows),
		Cols:      uint32(c.Cols),
		ChunkSize: uint32(c.ChunkSize),
	}
	copy(header.Magic[:], containerMagic)

	buffer := bytes.Buffer{}
	if err := binary.Write(&buffer, binary.BigEndian, &header); err != nil {
		return 0, err
	}
	for _, stream := range []*Stream{&c.Baseline, &c.Residual} {
		if err := writeStream(&buffer, stream); err != nil {
			return 0, err
		}
	}
	return buffer.WriteTo(w)
}

func writeStream(buffer *bytes.Buffer, stream *Stream) error {
	if uint64(stream.Count) > math.MaxUint32 {
		return mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("stream of %d symbols is too long", stream.Count))
	}

	if _, err := huffman.WriteTable(buffer, stream.Table); err != nil {
		return err
	}
	if err := binary.Write(buffer, binary.BigEndian, uint32(stream.Count)); err != nil {
		return err
	}
	buffer.Write(stream.Bits.Data[:(stream.Bits.Len+7)/8])
	return nil
}

// ReadContainer reads one container from the stream. It may read past the
// end of the container if `r` isn't an [io.ByteReader].
func ReadContainer(r io.Reader) (*Container, error) {
	source, ok := r.(byteReader)
	if !ok {
		source = bufio.NewReader(r)
	}

	var header containerHeader
	if err := binary.Read(source, binary.BigEndian, &header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, mphenc.ErrTruncatedStream.WithMessage("container header is incomplete")
		}
		return nil, err
	}
	if string(header.Magic[:]) != containerMagic {
		return nil, mphenc.ErrBadMagic.WithMessage(fmt.Sprintf("got %q", header.Magic[:]))
	}
	if header.Version != containerVersion {
		return nil, mphenc.ErrUnsupportedVersion.WithMessage(
			fmt.Sprintf("version %d, expected %d", header.Version, containerVersion))
	}
	if uint64(header.Rows)*uint64(header.Cols) > maxSymbols {
		return nil, mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("%dx%d image is implausibly large", header.Rows, header.Cols))
	}

	container := &Container{
		Rows:      int(header.Rows),
		Cols:      int(header.Cols),
		ChunkSize: int(header.ChunkSize),
		BitWidth:  uint(header.BitWidth),
	}
	if container.ChunkSize < 1 {
		return nil, mphenc.ErrInvalidChunkSize.WithMessage("container has chunk size 0")
	}

	expectedBaseline, expectedResidual := container.ExpectedCounts()
	var err error
	container.Baseline, err = readStream(source, "baseline", expectedBaseline)
	if err != nil {
		return nil, err
	}
	container.Residual, err = readStream(source, "residual", expectedResidual)
	if err != nil {
		return nil, err
	}

	if err = container.Validate(); err != nil {
		return nil, err
	}
	return container, nil
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

func readStream(source byteReader, name string, expectedCount int) (Stream, error) {
	table, err := huffman.ReadTable(source)
	if err != nil {
		return Stream{}, fmt.Errorf("reading %s table: %w", name, err)
	}

	var count uint32
	if err = binary.Read(source, binary.BigEndian, &count); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Stream{}, mphenc.ErrTruncatedStream.WithMessage(
				fmt.Sprintf("missing %s symbol count", name))
		}
		return Stream{}, err
	}
	if int(count) != expectedCount {
		return Stream{}, mphenc.ErrShapeMismatch.WithMessage(
			fmt.Sprintf("expected %d %s symbols, container says %d", expectedCount, name, count))
	}

	// The stream isn't length-prefixed, so the only way to find where it ends
	// is to decode it. The bits consumed are copied aside as we go so that the
	// container holds the stream exactly as it was written.
	recorder := newRecordingReader(bitio.NewReader(source))
	if _, err = bitstream.Read(recorder, table, int(count)); err != nil {
		return Stream{}, fmt.Errorf("reading %s stream: %w", name, err)
	}
	bits, err := recorder.Bitstream()
	if err != nil {
		return Stream{}, err
	}
	return Stream{Table: table, Count: int(count), Bits: bits}, nil
}

// recordingReader passes bits through from a bitio.Reader and keeps a copy.
// Since bitio only pulls a byte from its source when it needs the first bit of
// it, abandoning the reader after the last codeword leaves the source at the
// next byte boundary.
type recordingReader struct {
	r      *bitio.Reader
	buffer bytes.Buffer
	mirror *bitio.Writer
	nbits  int
}

func newRecordingReader(r *bitio.Reader) *recordingReader {
	recorder := &recordingReader{r: r}
	recorder.mirror = bitio.NewWriter(&recorder.buffer)
	return recorder
}

func (rr *recordingReader) ReadBool() (bool, error) {
	bit, err := rr.r.ReadBool()
	if err != nil {
		return false, err
	}
	rr.nbits++
	return bit, rr.mirror.WriteBool(bit)
}

func (rr *recordingReader) Bitstream() (bitstream.Bitstream, error) {
	if err := rr.mirror.Close(); err != nil {
		return bitstream.Bitstream{}, err
	}
	return bitstream.Bitstream{Data: rr.buffer.Bytes(), Len: rr.nbits}, nil
}

// EncodeTo encodes the image and writes the container to `w`, returning the
// number of bytes written.
func EncodeTo(w io.Writer, img *mphenc.Image, chunkSize int) (int64, error) {
	container, err := Encode(img, chunkSize)
	if err != nil {
		return 0, err
	}
	return container.WriteTo(w)
}

// DecodeFrom reads a container from `r` and decodes it.
func DecodeFrom(r io.Reader) (*mphenc.Image, error) {
	container, err := ReadContainer(r)
	if err != nil {
		return nil, err
	}
	return Decode(container)
}
