// Package stats computes symbol frequencies and order-0 entropy.
package stats

import (
	"math"

	"github.com/dargueta/mphenc"
	"gonum.org/v1/gonum/stat"
)

// FrequencyTable maps each distinct symbol to its number of occurrences. It
// remembers the order in which symbols were first seen so that anything built
// from it (e.g. a Huffman tree) is reproducible for a fixed input order.
type FrequencyTable struct {
	counts map[mphenc.Symbol]int
	order  []mphenc.Symbol
	total  int
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[mphenc.Symbol]int)}
}

// Frequencies counts the occurrences of each symbol in the stream. Symbols
// from a matrix should be passed in row-major order, i.e. `m.Data`.
func Frequencies(symbols []mphenc.Symbol) *FrequencyTable {
	table := NewFrequencyTable()
	table.AddAll(symbols)
	return table
}

// Add records `n` more occurrences of a symbol.
func (t *FrequencyTable) Add(symbol mphenc.Symbol, n int) {
	if n <= 0 {
		return
	}
	if _, seen := t.counts[symbol]; !seen {
		t.order = append(t.order, symbol)
	}
	t.counts[symbol] += n
	t.total += n
}

func (t *FrequencyTable) AddAll(symbols []mphenc.Symbol) {
	for _, s := range symbols {
		t.Add(s, 1)
	}
}

// Count returns how many times the symbol occurred. Unseen symbols give 0.
func (t *FrequencyTable) Count(symbol mphenc.Symbol) int {
	return t.counts[symbol]
}

// Symbols returns the distinct symbols in the order they were first seen.
func (t *FrequencyTable) Symbols() []mphenc.Symbol {
	out := make([]mphenc.Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// Len gives the number of distinct symbols.
func (t *FrequencyTable) Len() int {
	return len(t.order)
}

// Total gives the number of symbols counted, including repeats.
func (t *FrequencyTable) Total() int {
	return t.total
}

// Probabilities returns the empirical probability of each symbol, in the same
// order as Symbols().
func (t *FrequencyTable) Probabilities() []float64 {
	probabilities := make([]float64, len(t.order))
	if t.total == 0 {
		return probabilities
	}
	for i, s := range t.order {
		probabilities[i] = float64(t.counts[s]) / float64(t.total)
	}
	return probabilities
}

// Entropy is the order-0 Shannon entropy of the table in bits per symbol. An
// empty table has an entropy of 0.
func (t *FrequencyTable) Entropy() float64 {
	if t.total == 0 {
		return 0
	}

	// gonum works in nats.
	h := stat.Entropy(t.Probabilities()) / math.Ln2
	if h <= 0 {
		// Normalizes -0 from a single-symbol alphabet.
		return 0
	}
	return h
}

// Entropy computes -Σ p·log2(p) over the empirical distribution of the stream.
func Entropy(symbols []mphenc.Symbol) float64 {
	return Frequencies(symbols).Entropy()
}
