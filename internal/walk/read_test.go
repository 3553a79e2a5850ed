package walk_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/flatten/internal/walk"
)

func TestReadText(t *testing.T) {
	directory := t.TempDir()
	testCases := []struct {
		name            string
		content         []byte
		expectedKind    walk.ReadKind
		expectedContent string
	}{
		{name: "trims surrounding whitespace", content: []byte("\n\t  hello world \n\n"), expectedKind: walk.ReadContent, expectedContent: "hello world"},
		{name: "keeps inner whitespace", content: []byte("a\n\n  b"), expectedKind: walk.ReadContent, expectedContent: "a\n\n  b"},
		{name: "zero bytes", content: []byte{}, expectedKind: walk.ReadEmpty},
		{name: "whitespace only", content: []byte(" \n\t\r\n "), expectedKind: walk.ReadEmpty},
		{name: "crlf line endings", content: []byte("line1\r\nline2\r\n"), expectedKind: walk.ReadContent, expectedContent: "line1\nline2"},
		{name: "cr line endings", content: []byte("a\rb\r\rc"), expectedKind: walk.ReadContent, expectedContent: "a\nb\n\nc"},
		{name: "mixed line endings", content: []byte("a\r\nb\nc\rd"), expectedKind: walk.ReadContent, expectedContent: "a\nb\nc\nd"},
		{name: "invalid utf-8", content: []byte{0x89, 'P', 'N', 'G'}, expectedKind: walk.ReadUnreadable},
	}
	for index, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			path := filepath.Join(directory, "case"+string(rune('a'+index))+".txt")
			if err := os.WriteFile(path, testCase.content, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			result := walk.ReadText(path)
			if result.Kind != testCase.expectedKind {
				t.Fatalf("expected kind %d, got %d (%v)", testCase.expectedKind, result.Kind, result.Err)
			}
			if result.Content != testCase.expectedContent {
				t.Fatalf("expected content %q, got %q", testCase.expectedContent, result.Content)
			}
			if result.SizeBytes != int64(len(testCase.content)) {
				t.Fatalf("expected size %d, got %d", len(testCase.content), result.SizeBytes)
			}
		})
	}
}

func TestReadTextInvalidEncodingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	if err := os.WriteFile(path, []byte("caf\xe9"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	result := walk.ReadText(path)
	if !errors.Is(result.Err, walk.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", result.Err)
	}
	if result.Err.Error() != "invalid UTF-8: byte 0xe9 at offset 3" {
		t.Fatalf("unexpected error text %q", result.Err.Error())
	}
}

func TestReadTextMissingFile(t *testing.T) {
	result := walk.ReadText(filepath.Join(t.TempDir(), "missing.js"))
	if result.Kind != walk.ReadUnreadable {
		t.Fatalf("expected unreadable kind, got %d", result.Kind)
	}
	if result.Err == nil || result.Err.Error() == "" {
		t.Fatalf("expected a descriptive error")
	}
}
