package huffman

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dargueta/mphenc"
)

// Serialize writes the table's code lengths in canonical order.
func Serialize(table *CodeTable) []byte {
	buf := make([]byte, 0, binary.MaxVarintLen64+len(table.symbols)*3)
	buf = binary.AppendUvarint(buf, uint64(len(table.symbols)))
	for i, symbol := range table.symbols {
		buf = binary.AppendVarint(buf, int64(symbol))
		buf = append(buf, table.lengths[i])
	}
	return buf
}

// WriteTable serializes the table to a stream, returning the number of bytes
// written.
func WriteTable(w io.Writer, table *CodeTable) (int, error) {
	return w.Write(Serialize(table))
}

// Deserialize rebuilds a table from the output of Serialize. Trailing data
// after the table is an error.
func Deserialize(data []byte) (*CodeTable, error) {
	reader := bytes.NewReader(data)
	table, err := ReadTable(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, mphenc.ErrCorruptTable.WithMessage(
			fmt.Sprintf("%d trailing bytes after code table", reader.Len()))
	}
	return table, nil
}

// maxTableEntries is the number of distinct values a Symbol can take.
const maxTableEntries = 1 << 32

// ReadTable reads exactly one serialized table from the stream.
func ReadTable(r io.ByteReader) (*CodeTable, error) {
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, tableReadError("entry count", err)
	}
	if count > maxTableEntries {
		return nil, mphenc.ErrCorruptTable.WithMessage(
			fmt.Sprintf("table claims %d entries", count))
	}

	// Don't trust the count for the allocation size; a corrupt header could
	// claim billions of entries.
	capacity := int(min(count, 1<<12))
	symbols := make([]mphenc.Symbol, 0, capacity)
	lengths := make([]uint8, 0, capacity)

	for i := uint64(0); i < count; i++ {
		value, err := binary.ReadVarint(r)
		if err != nil {
			return nil, tableReadError(fmt.Sprintf("symbol of entry %d", i), err)
		}
		if value != int64(mphenc.Symbol(value)) {
			return nil, mphenc.ErrCorruptTable.WithMessage(
				fmt.Sprintf("entry %d: symbol %d out of range", i, value))
		}

		length, err := r.ReadByte()
		if err != nil {
			return nil, tableReadError(fmt.Sprintf("length of entry %d", i), err)
		}

		symbol := mphenc.Symbol(value)
		if n := len(symbols); n > 0 {
			prevLength, prevSymbol := lengths[n-1], symbols[n-1]
			if length < prevLength || (length == prevLength && symbol <= prevSymbol) {
				return nil, mphenc.ErrCorruptTable.WithMessage(
					fmt.Sprintf(
						"entry %d (symbol %d, length %d) out of canonical order",
						i,
						symbol,
						length,
					),
				)
			}
		}

		symbols = append(symbols, symbol)
		lengths = append(lengths, length)
	}

	return newCanonicalTable(symbols, lengths)
}

func tableReadError(what string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return mphenc.ErrCorruptTable.Wrap(fmt.Errorf("reading %s: %w", what, err))
}
