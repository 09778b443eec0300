package huffman_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/huffman"
	"github.com/dargueta/mphenc/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomStream returns symbols clustered around zero, like a residual stream.
func randomStream(seed uint64, n int) []mphenc.Symbol {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]mphenc.Symbol, n)
	for i := range out {
		out[i] = mphenc.Symbol(rng.NormFloat64() * 6)
	}
	return out
}

func buildOrFail(t *testing.T, symbols []mphenc.Symbol) *huffman.CodeTable {
	table, err := huffman.BuildFromSymbols(symbols)
	require.NoError(t, err, "failed to build table")
	return table
}

func TestBuild__KnownLengths(t *testing.T) {
	// Counts 8, 4, 2, 1, 1 give the classic 1, 2, 3, 4, 4 lengths.
	freqs := stats.NewFrequencyTable()
	freqs.Add(10, 8)
	freqs.Add(20, 4)
	freqs.Add(30, 2)
	freqs.Add(40, 1)
	freqs.Add(50, 1)

	table, err := huffman.Build(freqs)
	require.NoError(t, err)

	assert.Equal(
		t,
		map[mphenc.Symbol]uint8{10: 1, 20: 2, 30: 3, 40: 4, 50: 4},
		table.Lengths(),
	)
	assert.Equal(t, []mphenc.Symbol{10, 20, 30, 40, 50}, table.Symbols())

	expectedCodes := map[mphenc.Symbol]string{
		10: "0",
		20: "10",
		30: "110",
		40: "1110",
		50: "1111",
	}
	for symbol, expected := range expectedCodes {
		code, ok := table.Lookup(symbol)
		require.True(t, ok, "symbol %d missing", symbol)
		assert.Equal(t, expected, code.String(), "wrong code for symbol %d", symbol)
	}
}

func TestBuild__Empty(t *testing.T) {
	_, err := huffman.Build(stats.NewFrequencyTable())
	assert.ErrorIs(t, err, mphenc.ErrEmptyInput)
}

func TestBuild__SingleSymbol(t *testing.T) {
	table := buildOrFail(t, []mphenc.Symbol{42, 42, 42, 42, 42})
	code, ok := table.Lookup(42)
	require.True(t, ok)
	assert.GreaterOrEqual(t, int(code.Length), 1, "lone symbol needs at least one bit")
	assert.Equal(t, 1, table.Len())
}

func TestBuild__PrefixFree(t *testing.T) {
	table := buildOrFail(t, randomStream(1, 5000))

	codes := make([]string, 0, table.Len())
	for _, symbol := range table.Symbols() {
		code, _ := table.Lookup(symbol)
		codes = append(codes, code.String())
	}

	for i, a := range codes {
		for j, b := range codes {
			if i != j && strings.HasPrefix(b, a) {
				t.Fatalf("code %q (#%d) is a prefix of %q (#%d)", a, i, b, j)
			}
		}
	}
}

func TestBuild__Complete(t *testing.T) {
	for _, seed := range []uint64{2, 3, 4} {
		table := buildOrFail(t, randomStream(seed, 2000))
		assert.True(t, table.IsComplete(), "built table must satisfy Kraft with equality")
	}
}

func TestBuild__Deterministic(t *testing.T) {
	stream := randomStream(5, 3000)
	first := buildOrFail(t, stream)
	second := buildOrFail(t, stream)
	assert.True(t, first.Equal(second), "same input gave different tables")
}

func TestBuild__OptimalLength(t *testing.T) {
	// Huffman coding is within one bit per symbol of the entropy.
	stream := randomStream(6, 10000)
	freqs := stats.Frequencies(stream)
	table, err := huffman.Build(freqs)
	require.NoError(t, err)

	bits := table.EncodedBits(freqs.Count)
	perSymbol := float64(bits) / float64(len(stream))
	assert.GreaterOrEqual(t, perSymbol, freqs.Entropy())
	assert.Less(t, perSymbol, freqs.Entropy()+1)
}

func TestFromLengths__OverSubscribed(t *testing.T) {
	_, err := huffman.FromLengths(map[mphenc.Symbol]uint8{1: 1, 2: 1, 3: 1})
	assert.ErrorIs(t, err, mphenc.ErrCorruptTable)
}

func TestFromLengths__InvalidLength(t *testing.T) {
	_, err := huffman.FromLengths(map[mphenc.Symbol]uint8{1: 0})
	assert.ErrorIs(t, err, mphenc.ErrCorruptTable)

	_, err = huffman.FromLengths(map[mphenc.Symbol]uint8{1: huffman.MaxCodeLength + 1})
	assert.ErrorIs(t, err, mphenc.ErrCorruptTable)
}

func TestFromLengths__Empty(t *testing.T) {
	table, err := huffman.FromLengths(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestCost(t *testing.T) {
	table, err := huffman.FromLengths(map[mphenc.Symbol]uint8{0: 1, 1: 2, -1: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 12*3+5, table.Cost(12))
}

func TestDecoder__Step(t *testing.T) {
	table, err := huffman.FromLengths(map[mphenc.Symbol]uint8{7: 1, 8: 2, 9: 2})
	require.NoError(t, err)

	// 7 -> 0, 8 -> 10, 9 -> 11
	bits := []bool{true, true, false, true, false}
	var decoded []mphenc.Symbol
	decoder := table.NewDecoder()
	for _, bit := range bits {
		symbol, done, err := decoder.Step(bit)
		require.NoError(t, err)
		if done {
			decoded = append(decoded, symbol)
		}
	}
	assert.Equal(t, []mphenc.Symbol{9, 7, 8}, decoded)
	assert.Zero(t, decoder.Pending())
}

func TestDecoder__InvalidCode(t *testing.T) {
	table := buildOrFail(t, []mphenc.Symbol{3, 3, 3})

	// The lone symbol's code is "0"; nothing starts with "1".
	_, done, err := table.NewDecoder().Step(true)
	assert.False(t, done)
	assert.ErrorIs(t, err, mphenc.ErrInvalidCode)
}

func TestDecoder__InvalidCodeAtMaxLength(t *testing.T) {
	// 0 -> "0", 1 -> "10"; nothing starts with "11".
	table, err := huffman.FromLengths(map[mphenc.Symbol]uint8{0: 1, 1: 2})
	require.NoError(t, err)
	require.False(t, table.IsComplete())
	require.EqualValues(t, 2, table.MaxLength())

	decoder := table.NewDecoder()
	_, done, err := decoder.Step(true)
	require.NoError(t, err)
	require.False(t, done)

	_, done, err = decoder.Step(true)
	assert.False(t, done)
	assert.ErrorIs(t, err, mphenc.ErrInvalidCode)
	assert.Zero(t, decoder.Pending(), "decoder must reset after an invalid code")
}

func TestDecoder__EmptyTable(t *testing.T) {
	table, err := huffman.FromLengths(nil)
	require.NoError(t, err)
	assert.Zero(t, table.MaxLength())

	_, _, err = table.NewDecoder().Step(false)
	assert.ErrorIs(t, err, mphenc.ErrInvalidCode)
}
