// Package compression provides the reference encodings the Huffman codec is
// measured against.
//
// The yardstick for any image is its naive fixed-width encoding: every sample
// stored in exactly `BitWidth` bits, back to back. A 1000-tick, 100-channel
// waveform image of 12-bit ADC samples is 150,000 bytes this way. The question
// the codec exists to answer is whether splitting the image into a baseline and
// residuals beats entropy-coding the samples directly, and it's useful to also
// know how general-purpose compressors do on the same packed bytes.
//
// Three encodings are available for that:
//
//   - PackFixedWidth, the naive encoding itself.
//   - CompressImage, which run-length encodes the packed bytes with RLE8 and
//     gzips the result. RLE8 is the scheme used by the Microsoft BMP format: if
//     a byte B occurs N >= 2 times in a row, B is written twice, followed by an
//     unsigned byte giving how many more times B occurred. For example:
//
//     WXXXXXXXXXXXXXXXYZZ
//     W XX 13 Y ZZ 0
//
//     This represents runs of up to 257 bytes with three bytes. Longer runs
//     are split, so a run of 300 "X" becomes `XX 255 XX 41`. Waveform data
//     rarely has long byte runs once packed, but pedestal-only channels do.
//   - CompressZstd, plain zstd on the packed bytes.
//
// ReferenceSizes runs all three over a matrix.

package compression
