// Package huffman builds canonical Huffman code tables for streams of integer
// symbols and serializes them compactly.
//
// The shape of the code tree comes from the usual greedy merge of the two
// lowest-weight nodes. Ties are broken by the order in which symbols were first
// seen in the input, so building from the same stream always yields the same
// code lengths. The actual bit patterns are then reassigned canonically: codes
// are ordered by (length, symbol) and numbered consecutively, the way DEFLATE
// does it. A canonical table is fully described by its code lengths, which is
// all Serialize writes out:
//
//	uvarint  number of entries N
//	N times:
//	    varint  symbol (zig-zag)
//	    byte    code length
//
// Entries are written in canonical order. Deserialize refuses anything else,
// which also rules out duplicate symbols.
//
// A table built from a single distinct symbol still gives that symbol a 1-bit
// code, since a prefix code can't encode anything in zero bits.

package huffman
