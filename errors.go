package mphenc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

type CodecError interface {
	error
	WithMessage(message string) CodecError
	Wrap(err error) CodecError
}

type baseCodecError string

const rootError = baseCodecError("")

var ErrBadMagic = rootError.WithMessage("Not an encoded container")
var ErrCodeTooLong = rootError.WithMessage("Huffman code exceeds maximum length")
var ErrCorruptTable = rootError.WithMessage("Corrupt code table")
var ErrEmptyInput = rootError.WithMessage("Empty input")
var ErrInvalidArgument = rootError.WithMessage("Invalid argument")
var ErrInvalidChunkSize = rootError.WithMessage("Invalid chunk size")
var ErrInvalidCode = rootError.WithMessage("Bit sequence matches no code")
var ErrShapeMismatch = rootError.WithMessage("Shape mismatch")
var ErrTruncatedStream = rootError.WithMessage("Bit stream truncated")
var ErrUnknownSymbol = rootError.WithMessage("Symbol not in code table")
var ErrUnsupportedVersion = rootError.WithMessage("Unsupported container version")

func (e baseCodecError) Error() string {
	return string(e)
}

func (e baseCodecError) RootCause() CodecError {
	return e
}

func (e baseCodecError) WithMessage(message string) CodecError {
	return customCodecError{
		message:       message,
		originalError: e,
	}
}

func (e baseCodecError) Wrap(err error) CodecError {
	return customCodecError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// -----------------------------------------------------------------------------

type customCodecError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customCodecError) Error() string {
	return e.message
}

func (e customCodecError) WithMessage(message string) CodecError {
	return customCodecError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customCodecError) Wrap(err error) CodecError {
	return customCodecError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customCodecError) Unwrap() error {
	return e.originalError
}
