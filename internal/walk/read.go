package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// ReadKind classifies the outcome of reading a qualifying file.
type ReadKind int

const (
	// ReadContent means the file held non-blank text.
	ReadContent ReadKind = iota
	// ReadEmpty means the file was blank after trimming.
	ReadEmpty
	// ReadUnreadable means the file could not be opened, read, or decoded.
	ReadUnreadable
)

// ErrInvalidEncoding reports file bytes that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8")

// ErrNotRegularFile reports a device, pipe, or socket that is never read.
var ErrNotRegularFile = errors.New("not a regular file")

var lineEndingReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ReadResult is the outcome of ReadText. Content is trimmed; Err is set only for ReadUnreadable.
type ReadResult struct {
	Kind      ReadKind
	Content   string
	SizeBytes int64
	Err       error
}

// ReadText reads path as UTF-8 text, converts CRLF and CR line endings to LF, and trims surrounding whitespace.
// Failures never escape as errors; they are reported through the ReadUnreadable kind.
func ReadText(path string) ReadResult {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return ReadResult{Kind: ReadUnreadable, Err: statErr}
	}
	if info.Mode()&(fs.ModeDevice|fs.ModeNamedPipe|fs.ModeSocket|fs.ModeCharDevice|fs.ModeIrregular) != 0 {
		return ReadResult{Kind: ReadUnreadable, Err: fmt.Errorf("%s: %w", path, ErrNotRegularFile)}
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return ReadResult{Kind: ReadUnreadable, Err: readErr}
	}
	if !utf8.Valid(data) {
		offset := firstInvalidOffset(data)
		return ReadResult{
			Kind:      ReadUnreadable,
			SizeBytes: int64(len(data)),
			Err:       fmt.Errorf("%w: byte 0x%02x at offset %d", ErrInvalidEncoding, data[offset], offset),
		}
	}

	trimmed := strings.TrimSpace(lineEndingReplacer.Replace(string(data)))
	if trimmed == "" {
		return ReadResult{Kind: ReadEmpty, SizeBytes: int64(len(data))}
	}
	return ReadResult{Kind: ReadContent, Content: trimmed, SizeBytes: int64(len(data))}
}

func firstInvalidOffset(data []byte) int {
	for offset := 0; offset < len(data); {
		decoded, width := utf8.DecodeRune(data[offset:])
		if decoded == utf8.RuneError && width <= 1 {
			return offset
		}
		offset += width
	}
	return 0
}
