package huffman

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dargueta/mphenc"
)

// MaxCodeLength is the longest code this package will produce or accept.
// Reaching it takes a Fibonacci-like frequency distribution over billions of
// symbols, so in practice it is never hit.
const MaxCodeLength = 48

// Code is a single codeword. The low Length bits of Bits are the code, most
// significant bit first.
type Code struct {
	Bits   uint64
	Length uint8
}

func (c Code) String() string {
	return fmt.Sprintf("%0*b", c.Length, c.Bits)
}

// CodeTable is a canonical prefix code mapping symbols to codewords.
type CodeTable struct {
	codes map[mphenc.Symbol]Code
	// symbols and lengths are parallel, sorted by (length, symbol).
	symbols []mphenc.Symbol
	lengths []uint8
	// countByLength[n] is the number of codes that are n bits long.
	countByLength [MaxCodeLength + 1]int
	maxLength     uint8
}

// FromLengths builds the canonical table for the given code lengths. An empty
// map gives an empty table, which can encode only an empty stream.
func FromLengths(lengths map[mphenc.Symbol]uint8) (*CodeTable, error) {
	type entry struct {
		symbol mphenc.Symbol
		length uint8
	}

	entries := make([]entry, 0, len(lengths))
	for symbol, length := range lengths {
		entries = append(entries, entry{symbol, length})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if a.length != b.length {
			return cmp.Compare(a.length, b.length)
		}
		return cmp.Compare(a.symbol, b.symbol)
	})

	symbols := make([]mphenc.Symbol, len(entries))
	codeLengths := make([]uint8, len(entries))
	for i, e := range entries {
		symbols[i] = e.symbol
		codeLengths[i] = e.length
	}
	return newCanonicalTable(symbols, codeLengths)
}

// newCanonicalTable assigns codes to symbols already sorted in canonical
// order.
func newCanonicalTable(symbols []mphenc.Symbol, lengths []uint8) (*CodeTable, error) {
	table := &CodeTable{
		codes:   make(map[mphenc.Symbol]Code, len(symbols)),
		symbols: symbols,
		lengths: lengths,
	}

	// Kraft sum scaled by 2^MaxCodeLength so it stays integral.
	var kraft uint64
	for i, length := range lengths {
		if length < 1 || length > MaxCodeLength {
			return nil, mphenc.ErrCorruptTable.WithMessage(
				fmt.Sprintf("symbol %d has invalid code length %d", symbols[i], length))
		}
		table.countByLength[length]++
		if length > table.maxLength {
			table.maxLength = length
		}
		kraft += uint64(1) << (MaxCodeLength - length)
	}
	if kraft > uint64(1)<<MaxCodeLength {
		return nil, mphenc.ErrCorruptTable.WithMessage("code lengths are over-subscribed")
	}

	var code uint64
	for i, symbol := range symbols {
		if i > 0 {
			code = (code + 1) << (lengths[i] - lengths[i-1])
		}
		if _, dup := table.codes[symbol]; dup {
			return nil, mphenc.ErrCorruptTable.WithMessage(
				fmt.Sprintf("symbol %d appears more than once", symbol))
		}
		table.codes[symbol] = Code{Bits: code, Length: lengths[i]}
	}
	return table, nil
}

// Len gives the number of symbols in the table.
func (t *CodeTable) Len() int {
	return len(t.symbols)
}

// Lookup returns the codeword for a symbol.
func (t *CodeTable) Lookup(symbol mphenc.Symbol) (Code, bool) {
	code, ok := t.codes[symbol]
	return code, ok
}

// Symbols returns the table's symbols in canonical order.
func (t *CodeTable) Symbols() []mphenc.Symbol {
	return slices.Clone(t.symbols)
}

// Lengths returns the code length of every symbol.
func (t *CodeTable) Lengths() map[mphenc.Symbol]uint8 {
	out := make(map[mphenc.Symbol]uint8, len(t.symbols))
	for i, symbol := range t.symbols {
		out[symbol] = t.lengths[i]
	}
	return out
}

// MaxLength is the length of the longest code in the table.
func (t *CodeTable) MaxLength() uint8 {
	return t.maxLength
}

// IsComplete reports whether the code lengths satisfy Kraft's inequality with
// equality, i.e. every bit sequence is a prefix of some code.
func (t *CodeTable) IsComplete() bool {
	var kraft uint64
	for _, length := range t.lengths {
		kraft += uint64(1) << (MaxCodeLength - length)
	}
	return kraft == uint64(1)<<MaxCodeLength
}

// EncodedBits gives the number of bits needed to encode the symbols in
// `freqCounts` with this table. Symbols missing from the table are ignored.
func (t *CodeTable) EncodedBits(freqCounts func(mphenc.Symbol) int) int64 {
	var total int64
	for i, symbol := range t.symbols {
		total += int64(freqCounts(symbol)) * int64(t.lengths[i])
	}
	return total
}

// Cost estimates what it takes to transmit the table itself: `symbolBits` for
// each symbol's value plus the bits of its code.
func (t *CodeTable) Cost(symbolBits uint) int64 {
	total := int64(symbolBits) * int64(len(t.symbols))
	for _, length := range t.lengths {
		total += int64(length)
	}
	return total
}

// Equal reports whether two tables assign the same code to every symbol.
func (t *CodeTable) Equal(other *CodeTable) bool {
	if t == nil || other == nil {
		return t == other
	}
	return slices.Equal(t.symbols, other.symbols) && slices.Equal(t.lengths, other.lengths)
}

func (t *CodeTable) String() string {
	var builder strings.Builder
	builder.WriteString("CodeTable{")
	for i, symbol := range t.symbols {
		if i > 0 {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%d:%s", symbol, t.codes[symbol])
	}
	builder.WriteString("}")
	return builder.String()
}

////////////////////////////////////////////////////////////////////////////////
// Decoding

// Decoder resolves one symbol at a time from a sequence of bits. It relies on
// the codes being canonical: all codes of a given length are consecutive
// integers, starting just past the codes of the previous length shifted left.
type Decoder struct {
	table  *CodeTable
	code   uint64
	first  uint64
	index  int
	length uint8
}

func (t *CodeTable) NewDecoder() *Decoder {
	return &Decoder{table: t}
}

// Step consumes one bit. It returns done=true along with the symbol once a
// full codeword has been read, after which the decoder is ready for the next
// one. If no code can start with the bits seen so far, it returns
// ErrInvalidCode.
func (d *Decoder) Step(bit bool) (symbol mphenc.Symbol, done bool, err error) {
	d.code <<= 1
	if bit {
		d.code |= 1
	}
	d.length++

	if d.length > d.table.maxLength {
		err = mphenc.ErrInvalidCode.WithMessage(
			fmt.Sprintf("no code matches %0*b", d.length, d.code))
		d.Reset()
		return 0, false, err
	}

	count := uint64(d.table.countByLength[d.length])
	if d.code < d.first+count {
		symbol = d.table.symbols[d.index+int(d.code-d.first)]
		d.Reset()
		return symbol, true, nil
	}

	if d.length == d.table.maxLength {
		// No longer codes exist, so these bits can't be extended into one.
		err = mphenc.ErrInvalidCode.WithMessage(
			fmt.Sprintf("no code matches %0*b", d.length, d.code))
		d.Reset()
		return 0, false, err
	}

	d.index += int(count)
	d.first = (d.first + count) << 1
	return 0, false, nil
}

// Reset discards any partially read codeword.
func (d *Decoder) Reset() {
	d.code = 0
	d.first = 0
	d.index = 0
	d.length = 0
}

// Pending is the number of bits consumed toward the current codeword.
func (d *Decoder) Pending() uint8 {
	return d.length
}
