package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

// encodingCounter counts tokens with a tiktoken BPE encoding.
// Special-token text inside a report is encoded as ordinary text.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoding")
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}
