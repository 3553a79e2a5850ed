package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// ErrNilCounter is returned when counting without a Counter.
var ErrNilCounter = errors.New("nil tokenizer counter")

// CountFile reads the file at path and estimates its token count.
// Files that are not valid UTF-8 are rejected.
func CountFile(counter Counter, path string) (int, error) {
	if counter == nil {
		return 0, ErrNilCounter
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return 0, readErr
	}
	if !utf8.Valid(data) {
		return 0, fmt.Errorf("count tokens in %s: content is not valid UTF-8", path)
	}
	return counter.CountString(string(data))
}
