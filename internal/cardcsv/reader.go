package cardcsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrNotCSV is returned for uploads whose name does not end in .csv.
	ErrNotCSV = errors.New("file is not a CSV")

	// ErrEmptyFile is returned for uploads with no content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge is returned when the upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CheckFileName rejects names without a .csv extension (any case).
func CheckFileName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return ErrNotCSV
	}
	return nil
}

// ReadDocument reads an uploaded file into text ready for Parse.
//
// A leading UTF-8 BOM is removed, invalid UTF-8 is replaced with '?' and
// CRLF line endings become LF. limit <= 0 disables the size check.
func ReadDocument(r io.Reader, limit int64) (string, error) {
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", ErrFileTooLarge
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyFile
	}

	text := strings.ToValidUTF8(string(data), "?")
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}
