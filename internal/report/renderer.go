// Package report renders walk events into the flattened text report.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/flatten/internal/walk"
)

const (
	separatorWidth = 80

	directoryHeaderFormat = "\n📂 Directory: %s\n"
	fileHeaderFormat      = "\n📝 File: %s\nPath: %s\n"

	// EmptyFilePlaceholder replaces the body of a blank file.
	EmptyFilePlaceholder = "⚠️ File is empty"
	// UnreadableFilePrefix starts the body of a file that could not be read.
	UnreadableFilePrefix = "⚠️ Could not read file: "
)

var (
	directorySeparator = strings.Repeat("=", separatorWidth)
	fileSeparator      = strings.Repeat("-", separatorWidth)
)

// Summary counts what a run wrote. Bytes counts file content written, excluding headers and placeholders.
type Summary struct {
	Directories     int
	Files           int
	EmptyFiles      int
	UnreadableFiles int
	Bytes           int64
}

// Renderer writes the report through a buffered writer. The first write error is sticky.
type Renderer struct {
	writer  *bufio.Writer
	summary Summary
	err     error
}

// NewRenderer wraps destination in a buffered writer.
func NewRenderer(destination io.Writer) *Renderer {
	return &Renderer{writer: bufio.NewWriter(destination)}
}

// Handle renders one walk event. It satisfies walk.Handler.
func (renderer *Renderer) Handle(event walk.Event) error {
	switch event.Kind {
	case walk.EventEnterDirectory:
		if event.Directory != nil {
			renderer.summary.Directories++
			renderer.printf(directoryHeaderFormat, event.Directory.Path)
			renderer.printf("%s\n", directorySeparator)
		}
	case walk.EventFile:
		if event.File != nil {
			renderer.writeFile(event.File)
		}
	case walk.EventLeaveDirectory:
		renderer.printf("\n%s\n", directorySeparator)
	}
	return renderer.err
}

// Flush pushes buffered output to the destination.
func (renderer *Renderer) Flush() error {
	if renderer.err != nil {
		return renderer.err
	}
	if flushErr := renderer.writer.Flush(); flushErr != nil {
		renderer.err = fmt.Errorf("flush report: %w", flushErr)
	}
	return renderer.err
}

// Summary returns the counts accumulated so far.
func (renderer *Renderer) Summary() Summary {
	return renderer.summary
}

func (renderer *Renderer) writeFile(file *walk.FileEvent) {
	renderer.summary.Files++
	renderer.printf(fileHeaderFormat, file.Name, file.Path)
	renderer.printf("%s\n", fileSeparator)
	renderer.printf("%s\n", Body(file.Result))
	switch file.Result.Kind {
	case walk.ReadContent:
		renderer.summary.Bytes += int64(len(file.Result.Content))
	case walk.ReadEmpty:
		renderer.summary.EmptyFiles++
	case walk.ReadUnreadable:
		renderer.summary.UnreadableFiles++
	}
}

func (renderer *Renderer) printf(format string, arguments ...any) {
	if renderer.err != nil {
		return
	}
	if _, writeErr := fmt.Fprintf(renderer.writer, format, arguments...); writeErr != nil {
		renderer.err = fmt.Errorf("write report: %w", writeErr)
	}
}

// Body returns the text written under a file header for result.
func Body(result walk.ReadResult) string {
	switch result.Kind {
	case walk.ReadEmpty:
		return EmptyFilePlaceholder
	case walk.ReadUnreadable:
		description := "unknown error"
		if result.Err != nil && result.Err.Error() != "" {
			description = result.Err.Error()
		}
		return UnreadableFilePrefix + description
	default:
		return result.Content
	}
}
