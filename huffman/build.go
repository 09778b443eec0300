package huffman

import (
	"fmt"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/stats"
	"github.com/icza/huffman"
)

// Build constructs an optimal canonical prefix code for the given frequencies.
//
// The tree is built by repeatedly merging the two lightest nodes; ties go to
// whichever symbol was seen first. Only the resulting depths are kept, and
// codes are then assigned canonically. Returns ErrEmptyInput if the table has
// no symbols, and ErrCodeTooLong if some code would be longer than
// MaxCodeLength.
func Build(freqs *stats.FrequencyTable) (*CodeTable, error) {
	symbols := freqs.Symbols()
	if len(symbols) == 0 {
		return nil, mphenc.ErrEmptyInput.WithMessage("can't build a code table with no symbols")
	}

	leaves := make([]*huffman.Node, len(symbols))
	for i, symbol := range symbols {
		leaves[i] = &huffman.Node{
			Value: huffman.ValueType(symbol),
			Count: freqs.Count(symbol),
		}
	}

	// huffman.Build sorts the slice it's given in place. The sort is stable, so
	// we hand it a copy in discovery order and keep our own references to the
	// leaves to read the depths back.
	sortable := make([]*huffman.Node, len(leaves))
	copy(sortable, leaves)
	huffman.Build(sortable)

	lengths := make(map[mphenc.Symbol]uint8, len(leaves))
	for i, leaf := range leaves {
		depth := nodeDepth(leaf)
		if depth > MaxCodeLength {
			return nil, mphenc.ErrCodeTooLong.WithMessage(
				fmt.Sprintf("symbol %d would need %d bits", symbols[i], depth))
		}
		if depth == 0 {
			// Lone symbol: the root is the leaf itself.
			depth = 1
		}
		lengths[symbols[i]] = uint8(depth)
	}
	return FromLengths(lengths)
}

// BuildFromSymbols is a shortcut for Build(stats.Frequencies(symbols)).
func BuildFromSymbols(symbols []mphenc.Symbol) (*CodeTable, error) {
	return Build(stats.Frequencies(symbols))
}

func nodeDepth(node *huffman.Node) int {
	depth := 0
	for node.Parent != nil {
		node = node.Parent
		depth++
	}
	return depth
}
