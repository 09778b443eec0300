package compression

import (
	"bufio"
	"errors"
	"io"
)

// ByteRun is a single run of one byte value.
type ByteRun struct {
	Byte byte
	// RunLength is the number of times the byte occurs in the run (not the
	// number of times it's repeated). It's 0 only for InvalidRLERun.
	RunLength int
}

// InvalidRLERun is returned by the grouper at EOF or on error.
var InvalidRLERun = ByteRun{}

// RLEGrouper splits a byte stream into runs of identical bytes.
type RLEGrouper struct {
	rd *bufio.Reader
}

func NewRLEGrouper(rd io.Reader) RLEGrouper {
	return RLEGrouper{rd: bufio.NewReader(rd)}
}

// GetNextRun returns the next run in the stream. At the end of the stream it
// returns InvalidRLERun and io.EOF.
func (grouper RLEGrouper) GetNextRun() (ByteRun, error) {
	first, err := grouper.rd.ReadByte()
	if err != nil {
		return InvalidRLERun, err
	}

	run := ByteRun{Byte: first, RunLength: 1}
	for {
		current, err := grouper.rd.ReadByte()
		if errors.Is(err, io.EOF) {
			return run, nil
		} else if err != nil {
			return InvalidRLERun, err
		}

		if current != first {
			grouper.rd.UnreadByte()
			return run, nil
		}
		run.RunLength++
	}
}
