// Package codec encodes integer images into a self-describing container and
// decodes them again.
//
// Encoding splits the image into chunks of `chunkSize` columns (see the
// chunking package), builds one canonical Huffman table for the baselines and
// a separate one for the residuals, and packs both streams.
//
// Columns past the last whole chunk are dropped at encode time. This is part
// of the contract: decoding yields the first `nchunks*chunkSize` columns
// exactly, and nothing else.
//
// Container layout, all integers big-endian:
//
//	magic      [4]byte  "MPHC"
//	version    uint8    1
//	bit width  uint8    sample width of the source image
//	rows       uint32
//	cols       uint32   columns retained, nchunks*chunkSize
//	chunk size uint32
//	baseline table      see huffman.Serialize
//	baseline count      uint32, must equal rows*nchunks
//	baseline bits       zero-padded to a byte boundary
//	residual table
//	residual count      uint32, must equal rows*nchunks*(chunkSize-1)
//	residual bits       zero-padded to a byte boundary
//
// The bit streams carry no length; the reader knows how many symbols to
// expect and stops there. When chunkSize is 1 the residual table is empty and
// the residual stream has no bytes at all.

package codec
