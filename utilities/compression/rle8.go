package compression

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// maxRLE8Run is the longest run one RLE8 triplet can represent: the two
// literal bytes plus up to 255 repeats.
const maxRLE8Run = 257

// CompressRLE8 reads bytes from the input and writes RLE8-compressed data to the
// output until the input is exhausted. The return value is the number of bytes
// written, only valid if no error occurred.
func CompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	grouper := NewRLEGrouper(input)
	totalWritten := int64(0)

	for {
		run, err := grouper.GetNextRun()
		if errors.Is(err, io.EOF) {
			return totalWritten, nil
		} else if err != nil {
			return totalWritten, err
		}

		n, err := writeRLE8Run(output, run)
		totalWritten += n
		if err != nil {
			return totalWritten, err
		}
	}
}

func writeRLE8Run(output io.Writer, run ByteRun) (int64, error) {
	written := int64(0)
	for remaining := run.RunLength; remaining > 0; {
		var chunk []byte
		switch {
		case remaining == 1:
			chunk = []byte{run.Byte}
			remaining = 0
		default:
			length := min(remaining, maxRLE8Run)
			chunk = []byte{run.Byte, run.Byte, byte(length - 2)}
			remaining -= length
		}

		n, err := output.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// DecompressRLE8 expands RLE8 data from the input into the output. The return
// value is the number of bytes written.
func DecompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	lastByte := -1
	totalWritten := int64(0)

	for {
		current, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return totalWritten, nil
		} else if err != nil {
			return totalWritten, fmt.Errorf("error reading input: %w", err)
		}

		var expanded []byte
		if int(current) == lastByte {
			// Second of a pair: the next byte is the number of extra repeats.
			repeatCount, err := source.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = fmt.Errorf(
						"%w: missing repeat count after two %02x bytes",
						io.ErrUnexpectedEOF,
						current,
					)
				}
				return totalWritten, err
			}

			// +1 because the first byte of the pair was already written.
			expanded = make([]byte, int(repeatCount)+1)
			for i := range expanded {
				expanded[i] = current
			}

			// Without this, a run of 258+ bytes (two triplets back to back)
			// would be read as a pair spanning the triplets.
			lastByte = -1
		} else {
			lastByte = int(current)
			expanded = []byte{current}
		}

		n, err := output.Write(expanded)
		totalWritten += int64(n)
		if err != nil {
			return totalWritten, fmt.Errorf("failed to write to output: %w", err)
		}
	}
}
