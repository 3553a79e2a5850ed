// Package clipboard copies a finished report to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available on the host.
var ErrUnsupported = errors.New("clipboard is not supported on this system")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	unsupported func() bool
	write       func(string) error
}

// NewService constructs a clipboard Service backed by the host clipboard.
func NewService() *Service {
	return &Service{
		unsupported: func() bool { return clipboard.Unsupported },
		write:       clipboard.WriteAll,
	}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported() {
		return ErrUnsupported
	}
	return service.write(text)
}

// CopyFile reads path and places its contents on the clipboard through copier.
func CopyFile(copier Copier, path string) error {
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		return fmt.Errorf("read %s for clipboard: %w", path, readErr)
	}
	if copyErr := copier.Copy(string(content)); copyErr != nil {
		return fmt.Errorf("copy %s to clipboard: %w", path, copyErr)
	}
	return nil
}

var _ Copier = (*Service)(nil)
