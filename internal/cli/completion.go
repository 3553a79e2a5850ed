package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/temirov/flatten/internal/report"
	"github.com/temirov/flatten/internal/utils"
)

const (
	completionLineFormat     = "✅ Done. Output saved to: %s\n"
	summaryLineFormat        = "%d directories, %d files, %s"
	summaryPlaceholderFormat = ", %d empty, %d unreadable"
	summaryTokensFormat      = ", %d tokens (%s)"
)

// completionPrinter writes the console lines that follow a finished run.
type completionPrinter struct {
	writer  io.Writer
	success *color.Color
	detail  *color.Color
}

// newCompletionPrinter colours output only when writer is a terminal.
func newCompletionPrinter(writer io.Writer) completionPrinter {
	printer := completionPrinter{
		writer:  writer,
		success: color.New(color.FgGreen),
		detail:  color.New(color.FgCyan),
	}
	if isTerminalWriter(writer) {
		printer.success.EnableColor()
		printer.detail.EnableColor()
	} else {
		printer.success.DisableColor()
		printer.detail.DisableColor()
	}
	return printer
}

func isTerminalWriter(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func (printer completionPrinter) printDone(outputPath string) {
	printer.success.Fprintf(printer.writer, completionLineFormat, outputPath)
}

// tokenTotal is set when --tokens produced a count.
type tokenTotal struct {
	count int
	model string
}

func (printer completionPrinter) printSummary(summary report.Summary, tokens *tokenTotal) {
	line := fmt.Sprintf(summaryLineFormat, summary.Directories, summary.Files, utils.FormatFileSize(summary.Bytes))
	if summary.EmptyFiles > 0 || summary.UnreadableFiles > 0 {
		line += fmt.Sprintf(summaryPlaceholderFormat, summary.EmptyFiles, summary.UnreadableFiles)
	}
	if tokens != nil {
		line += fmt.Sprintf(summaryTokensFormat, tokens.count, tokens.model)
	}
	printer.detail.Fprintln(printer.writer, line)
}
