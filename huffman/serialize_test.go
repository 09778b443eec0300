package huffman_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/huffman"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize__RoundTrip(t *testing.T) {
	streams := map[string][]mphenc.Symbol{
		"single":   {5, 5, 5},
		"negative": {-3, -3, -2, 0, 0, 0, 0, 7},
		"random":   randomStream(10, 4000),
		"extremes": {-2147483648, 2147483647, 0, 0},
	}

	for name, stream := range streams {
		t.Run(
			name,
			func(t *testing.T) {
				table := buildOrFail(t, stream)
				data := huffman.Serialize(table)

				restored, err := huffman.Deserialize(data)
				require.NoError(t, err)
				assert.True(t, table.Equal(restored), "tables differ after round trip")
				assert.Equal(t, table, restored)
			},
		)
	}
}

func TestSerialize__Empty(t *testing.T) {
	table, err := huffman.FromLengths(nil)
	require.NoError(t, err)

	data := huffman.Serialize(table)
	assert.Equal(t, []byte{0}, data)

	restored, err := huffman.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())
}

func TestSerialize__Format(t *testing.T) {
	table, err := huffman.FromLengths(map[mphenc.Symbol]uint8{0: 1, -1: 2, 1: 2})
	require.NoError(t, err)

	// count=3, then (0,1), (-1,2), (1,2) with zig-zag symbols 0, 1, 2.
	assert.Equal(t, []byte{3, 0, 1, 1, 2, 2, 2}, huffman.Serialize(table))
}

func TestReadTable__StopsAtEnd(t *testing.T) {
	table := buildOrFail(t, []mphenc.Symbol{1, 2, 2, 3, 3, 3})
	data := append(huffman.Serialize(table), 0xAA, 0xBB)

	reader := bytes.NewReader(data)
	restored, err := huffman.ReadTable(reader)
	require.NoError(t, err)
	assert.True(t, table.Equal(restored))
	assert.Equal(t, 2, reader.Len(), "reader consumed bytes past the table")
}

func TestDeserialize__Corrupt(t *testing.T) {
	tests := []struct {
		Name string
		Data []byte
	}{
		{"empty", []byte{}},
		{"truncated entry", []byte{2, 0, 1, 2}},
		{"out of order", []byte{2, 2, 1, 0, 1}},
		{"duplicate", []byte{2, 2, 1, 2, 1}},
		{"zero length", []byte{1, 0, 0}},
		{"over-subscribed", []byte{3, 0, 1, 2, 1, 4, 1}},
		{"trailing", []byte{1, 0, 1, 9}},
		{"symbol out of range", []byte{1, 0x80, 0x80, 0x80, 0x80, 0x20, 1}},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				_, err := huffman.Deserialize(test.Data)
				assert.ErrorIs(t, err, mphenc.ErrCorruptTable)
			},
		)
	}
}

func TestDeserialize__TruncatedWrapsEOF(t *testing.T) {
	_, err := huffman.Deserialize([]byte{1, 0})
	assert.ErrorIs(t, err, mphenc.ErrCorruptTable)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
