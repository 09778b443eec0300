package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dargueta/mphenc"
)

// ReadImage parses an image stored as CSV, one row of samples per line.
func ReadImage(r io.Reader, bitWidth uint) (*mphenc.Image, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var rows [][]mphenc.Symbol
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, mphenc.ErrShapeMismatch.Wrap(err)
			}
			return nil, err
		}

		row := make([]mphenc.Symbol, len(record))
		for i, field := range record {
			value, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				line := len(rows) + 1
				return nil, mphenc.ErrInvalidArgument.Wrap(
					fmt.Errorf("line %d, column %d: %w", line, i+1, err))
			}
			row[i] = mphenc.Symbol(value)
		}
		rows = append(rows, row)
	}

	return mphenc.ImageFromRows(rows, bitWidth)
}

// WriteImage writes an image as CSV, one row of samples per line.
func WriteImage(w io.Writer, img *mphenc.Image) error {
	writer := csv.NewWriter(w)
	record := make([]string, img.Cols)
	for r := 0; r < img.Rows; r++ {
		for c, value := range img.Row(r) {
			record[c] = strconv.FormatInt(int64(value), 10)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func readImageFile(path string, bitWidth uint) (*mphenc.Image, error) {
	input, closeInput, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer closeInput()

	img, err := ReadImage(input, bitWidth)
	if err != nil {
		return nil, fmt.Errorf("reading image from `%s`: %w", path, err)
	}
	return img, nil
}

func writeImageFile(path string, img *mphenc.Image) (err error) {
	output, closeOutput, err := createOutput(path)
	if err != nil {
		return err
	}
	defer closeAndKeepError(closeOutput, &err)
	return WriteImage(output, img)
}

// closeAndKeepError runs a closer and stores its error in `err` unless `err`
// already holds an earlier one.
func closeAndKeepError(closer func() error, err *error) {
	if closeErr := closer(); *err == nil {
		*err = closeErr
	}
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file for reading: `%s`: %w", path, err)
	}
	return file, file.Close, nil
}

// createOutput opens a file for writing. The returned closer must be called,
// and its error checked, since a failed close can lose written data.
func createOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file for writing: `%s`: %w", path, err)
	}
	return file, func() error {
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to close `%s`: %w", path, err)
		}
		return nil
	}, nil
}
