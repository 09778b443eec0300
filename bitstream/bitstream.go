// Package bitstream packs symbols into bytes using a Huffman code table and
// unpacks them again.
//
// Bits are packed most significant bit first. The last byte is padded with
// zeros. The padding isn't recorded anywhere: a reader is always told how many
// symbols to expect and stops after the last one.
package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/huffman"
	"github.com/icza/bitio"
)

// Bitstream is a run of packed codewords. Len is the number of meaningful
// bits, which may be less than 8*len(Data).
type Bitstream struct {
	Data []byte
	Len  int
}

// FromBytes wraps raw bytes, treating every bit as meaningful.
func FromBytes(data []byte) Bitstream {
	return Bitstream{Data: data, Len: 8 * len(data)}
}

// Truncate returns a copy of the stream cut down to `nbits` bits. It panics if
// `nbits` is negative or longer than the stream.
func (bs Bitstream) Truncate(nbits int) Bitstream {
	if nbits < 0 || nbits > bs.Len {
		panic(fmt.Sprintf("can't truncate %d-bit stream to %d bits", bs.Len, nbits))
	}

	nbytes := (nbits + 7) / 8
	data := make([]byte, nbytes)
	copy(data, bs.Data[:nbytes])
	if extra := nbits % 8; extra != 0 {
		data[nbytes-1] &= byte(0xff << (8 - extra))
	}
	return Bitstream{Data: data, Len: nbits}
}

// Padding is the number of zero bits after the last codeword.
func (bs Bitstream) Padding() int {
	return 8*len(bs.Data) - bs.Len
}

// Write appends the codeword of each symbol to the writer. It does not align
// the writer afterwards. The return value is the number of bits written, which
// is only meaningful if no error occurred.
//
// If a symbol isn't in the table, this fails with ErrUnknownSymbol. Anything
// already written to `w` stays there.
func Write(w *bitio.Writer, symbols []mphenc.Symbol, table *huffman.CodeTable) (int, error) {
	totalBits := 0
	for i, symbol := range symbols {
		code, ok := table.Lookup(symbol)
		if !ok {
			return totalBits, mphenc.ErrUnknownSymbol.WithMessage(
				fmt.Sprintf("symbol %d at position %d", symbol, i))
		}
		if err := w.WriteBits(code.Bits, code.Length); err != nil {
			return totalBits, err
		}
		totalBits += int(code.Length)
	}
	return totalBits, nil
}

// Encode packs the symbols into a new bit stream.
func Encode(symbols []mphenc.Symbol, table *huffman.CodeTable) (Bitstream, error) {
	buffer := bytes.Buffer{}
	writer := bitio.NewWriter(&buffer)

	nbits, err := Write(writer, symbols, table)
	if err != nil {
		return Bitstream{}, err
	}
	if err = writer.Close(); err != nil {
		return Bitstream{}, err
	}
	return Bitstream{Data: buffer.Bytes(), Len: nbits}, nil
}

// BitReader is the part of [bitio.Reader] needed for decoding.
type BitReader interface {
	ReadBool() (bool, error)
}

// Read decodes exactly `count` symbols from the reader, consuming no bits past
// the last codeword. It never returns a partial result: running out of bits is
// ErrTruncatedStream, and a bit sequence that can't start any codeword is
// ErrInvalidCode.
func Read(r BitReader, table *huffman.CodeTable, count int) ([]mphenc.Symbol, error) {
	return read(r, table, count, 1<<16)
}

// Decode unpacks `count` symbols from the stream, never reading past bs.Len
// bits.
func Decode(bs Bitstream, table *huffman.CodeTable, count int) ([]mphenc.Symbol, error) {
	if bs.Len < 0 || bs.Len > 8*len(bs.Data) {
		return nil, mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("stream of %d bytes can't hold %d bits", len(bs.Data), bs.Len))
	}

	reader := &limitedBitReader{
		r:         bitio.NewReader(bytes.NewReader(bs.Data)),
		remaining: bs.Len,
	}
	// Every codeword is at least one bit, so a stream can never hold more
	// symbols than it has bits.
	return read(reader, table, count, bs.Len)
}

func read(r BitReader, table *huffman.CodeTable, count, capacityHint int) ([]mphenc.Symbol, error) {
	if count < 0 {
		return nil, mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative symbol count %d", count))
	}

	output := make([]mphenc.Symbol, 0, min(count, capacityHint))
	decoder := table.NewDecoder()

	for len(output) < count {
		bit, err := r.ReadBool()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, mphenc.ErrTruncatedStream.WithMessage(
					fmt.Sprintf(
						"ran out of bits after %d of %d symbols (%d bits into the next)",
						len(output),
						count,
						decoder.Pending(),
					),
				)
			}
			return nil, err
		}

		symbol, done, err := decoder.Step(bit)
		if err != nil {
			return nil, err
		}
		if done {
			output = append(output, symbol)
		}
	}
	return output, nil
}

type limitedBitReader struct {
	r         BitReader
	remaining int
}

func (l *limitedBitReader) ReadBool() (bool, error) {
	if l.remaining <= 0 {
		return false, io.EOF
	}
	l.remaining--
	return l.r.ReadBool()
}
