// Package tokenizer estimates how many model tokens a finished report costs.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Model string
}

const (
	// DefaultModel is used when no model is configured.
	DefaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

// NewCounter returns a Counter for the requested model. Its Name is the model, or the
// cl100k_base encoding name when tiktoken does not know the model.
func NewCounter(cfg Config) (Counter, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	lowerModel := strings.ToLower(model)

	if encoding, err := tiktoken.EncodingForModel(lowerModel); err == nil && encoding != nil {
		return encodingCounter{encoding: encoding, name: lowerModel}, nil
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, nil
}
