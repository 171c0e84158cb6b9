package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyInput is returned when a table has no header row
var ErrEmptyInput = errors.New("input has no rows")

// Encoding selects how raw bytes are decoded before CSV parsing
type Encoding int

const (
	EncodingAuto Encoding = iota
	EncodingUTF8
	EncodingBig5
)

// String method for Encoding enum
func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingBig5:
		return "big5"
	default:
		return "auto"
	}
}

// ParseEncoding resolves an encoding name (utf-8, big5, auto)
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "big5", "big-5", "cp950":
		return EncodingBig5, nil
	default:
		return EncodingAuto, fmt.Errorf("unsupported encoding: %q", name)
	}
}

// Decode converts raw file bytes to UTF-8 text with any BOM removed.
// EncodingAuto picks UTF-8 when the bytes are valid UTF-8 and Big5 otherwise.
func Decode(data []byte, enc Encoding) (string, error) {
	if enc == EncodingAuto {
		enc = EncodingBig5
		if utf8.Valid(data) {
			enc = EncodingUTF8
		}
	}

	var t transform.Transformer
	switch enc {
	case EncodingBig5:
		t = traditionalchinese.Big5.NewDecoder()
	default:
		t = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}

	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s input: %w", enc, err)
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), nil
}

// ReadRecords parses CSV text into rows. Quoted fields may span lines,
// rows may have differing widths, and bare CR line endings are accepted.
func ReadRecords(text string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(normalizeLineEndings(text)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

// normalizeLineEndings turns CRLF into LF and a bare CR outside quotes into
// a row break. A bare CR inside a quoted field is kept.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.Contains(text, "\r") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	quoted := false
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '\r' && !quoted:
			r = '\n'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ReadFile loads and decodes a CSV file into rows
func ReadFile(filename string, enc Encoding) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	return ReadFrom(file, enc)
}

// ReadFrom decodes and parses CSV rows from r
func ReadFrom(r io.Reader, enc Encoding) ([][]string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	text, err := Decode(buf.Bytes(), enc)
	if err != nil {
		return nil, err
	}
	return ReadRecords(text)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func populatedCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF"))
}
