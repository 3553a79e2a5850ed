package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/config"
	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/utils"
)

type recordingCopier struct {
	copied []string
	err    error
}

func (copier *recordingCopier) Copy(text string) error {
	if copier.err != nil {
		return copier.err
	}
	copier.copied = append(copier.copied, text)
	return nil
}

type wordCounter struct {
	model string
}

func (counter wordCounter) Name() string { return "words/" + counter.model }

func (wordCounter) CountString(input string) (int, error) {
	return len(strings.Fields(input)), nil
}

type commandHarness struct {
	workingDirectory string
	copier           *recordingCopier
	level            zap.AtomicLevel
}

func newCommandHarness(t *testing.T) commandHarness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return commandHarness{
		workingDirectory: t.TempDir(),
		copier:           &recordingCopier{},
		level:            zap.NewAtomicLevelAt(zap.InfoLevel),
	}
}

func (harness commandHarness) execute(t *testing.T, arguments ...string) (string, error) {
	t.Helper()
	command := createRootCommand(dependencies{
		logger:           zap.NewNop(),
		level:            harness.level,
		workingDirectory: harness.workingDirectory,
		lockDirectory:    t.TempDir(),
		copier:           harness.copier,
		newCounter: func(cfg tokenizer.Config) (tokenizer.Counter, error) {
			return wordCounter{model: cfg.Model}, nil
		},
	})
	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs(normalizeCopyFlagArguments(arguments))
	executeErr := command.Execute()
	return output.String(), executeErr
}

func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}

func TestRootCommandWritesReportAndCompletionLine(t *testing.T) {
	harness := newCommandHarness(t)
	writeTestFile(t, filepath.Join(harness.workingDirectory, "main.js"), "console.log(1)")
	writeTestFile(t, filepath.Join(harness.workingDirectory, "image.png"), "png")

	output, err := harness.execute(t, "--tokens", "--model", "custom-model", "--copy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outputPath := filepath.Join(harness.workingDirectory, config.DefaultOutputFileName)
	expectedCompletion := "✅ Done. Output saved to: " + outputPath + "\n"
	if !strings.HasPrefix(output, expectedCompletion) {
		t.Fatalf("expected completion line %q, got %q", expectedCompletion, output)
	}
	if !strings.Contains(output, "1 directories, 1 files, 14b") {
		t.Fatalf("expected summary counts in %q", output)
	}
	if !strings.Contains(output, " tokens (words/custom-model)") {
		t.Fatalf("expected token count in %q", output)
	}

	report := readTestFile(t, outputPath)
	if !strings.Contains(report, "console.log(1)") || strings.Contains(report, "image.png") {
		t.Fatalf("unexpected report content:\n%s", report)
	}
	if len(harness.copier.copied) != 1 || harness.copier.copied[0] != report {
		t.Fatalf("expected report to be copied once, got %d copies", len(harness.copier.copied))
	}
}

func TestRootCommandPositionalRootAfterCopyFlag(t *testing.T) {
	harness := newCommandHarness(t)
	projectDirectory := filepath.Join(harness.workingDirectory, "project")
	writeTestFile(t, filepath.Join(projectDirectory, "notes.md"), "# notes")

	if _, err := harness.execute(t, "--copy", "project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := readTestFile(t, filepath.Join(projectDirectory, config.DefaultOutputFileName))
	if !strings.Contains(report, "# notes") {
		t.Fatalf("expected notes in report:\n%s", report)
	}
	if len(harness.copier.copied) != 1 {
		t.Fatalf("expected one copy, got %d", len(harness.copier.copied))
	}
}

func TestRootCommandClipboardFailureIsNotFatal(t *testing.T) {
	harness := newCommandHarness(t)
	harness.copier.err = errors.New("no clipboard")
	writeTestFile(t, filepath.Join(harness.workingDirectory, "a.txt"), "a")

	if _, err := harness.execute(t, "--copy"); err != nil {
		t.Fatalf("clipboard failure must not fail the run: %v", err)
	}
}

func TestRootCommandConfigurationPrecedence(t *testing.T) {
	testCases := []struct {
		name           string
		arguments      []string
		expectGo       bool
		expectMarkdown bool
	}{
		{
			name:           "local_file_overrides_defaults",
			arguments:      nil,
			expectGo:       true,
			expectMarkdown: false,
		},
		{
			name:           "flags_override_local_file",
			arguments:      []string{"--ext", "MD"},
			expectGo:       false,
			expectMarkdown: true,
		},
		{
			name:           "comma_separated_flag_values",
			arguments:      []string{"--ext", "go,md"},
			expectGo:       true,
			expectMarkdown: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newCommandHarness(t)
			writeTestFile(t, filepath.Join(harness.workingDirectory, utils.LocalConfigFileName), "extensions:\n  - go\noutput: flat.txt\n")
			writeTestFile(t, filepath.Join(harness.workingDirectory, "main.go"), "package main")
			writeTestFile(t, filepath.Join(harness.workingDirectory, "README.md"), "readme")

			if _, err := harness.execute(t, testCase.arguments...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			report := readTestFile(t, filepath.Join(harness.workingDirectory, "flat.txt"))
			if strings.Contains(report, "package main") != testCase.expectGo {
				t.Fatalf("go inclusion mismatch, expected %t:\n%s", testCase.expectGo, report)
			}
			if strings.Contains(report, "readme") != testCase.expectMarkdown {
				t.Fatalf("markdown inclusion mismatch, expected %t:\n%s", testCase.expectMarkdown, report)
			}
		})
	}
}

func TestRootCommandGlobalConfiguration(t *testing.T) {
	harness := newCommandHarness(t)
	homeDirectory, _ := os.UserHomeDir()
	writeTestFile(t, filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName), "exclude_folders:\n  - generated\n")
	writeTestFile(t, filepath.Join(harness.workingDirectory, "generated", "skip.js"), "generated code")
	writeTestFile(t, filepath.Join(harness.workingDirectory, "node_modules", "kept.js"), "module code")

	if _, err := harness.execute(t); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := readTestFile(t, filepath.Join(harness.workingDirectory, config.DefaultOutputFileName))
	if strings.Contains(report, "generated code") {
		t.Fatalf("expected generated folder to be pruned:\n%s", report)
	}
	if !strings.Contains(report, "module code") {
		t.Fatalf("expected configured list to replace the default folder list:\n%s", report)
	}
}

func TestRootCommandMissingRootFails(t *testing.T) {
	harness := newCommandHarness(t)
	missingRoot := filepath.Join(harness.workingDirectory, "missing")

	if _, err := harness.execute(t, missingRoot); err == nil {
		t.Fatalf("expected error for missing root")
	}
	if _, statErr := os.Stat(filepath.Join(missingRoot, config.DefaultOutputFileName)); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat returned %v", statErr)
	}
}

func TestRootCommandVerboseRaisesLogLevel(t *testing.T) {
	harness := newCommandHarness(t)
	if _, err := harness.execute(t, "--verbose"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if harness.level.Level() != zap.DebugLevel {
		t.Fatalf("expected debug level, got %s", harness.level.Level())
	}
}

func TestRootCommandVersion(t *testing.T) {
	harness := newCommandHarness(t)
	output, err := harness.execute(t, "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(output, "flatten version: ") {
		t.Fatalf("unexpected version output %q", output)
	}
	if _, statErr := os.Stat(filepath.Join(harness.workingDirectory, config.DefaultOutputFileName)); !os.IsNotExist(statErr) {
		t.Fatalf("version must not write a report")
	}
}

func TestConfigCommandPrintsEffectiveConfiguration(t *testing.T) {
	harness := newCommandHarness(t)
	output, err := harness.execute(t, "config", "--output", "snapshot.txt", "--root-lockfile", "", "web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectedFragments := []string{
		"root: " + filepath.Join(harness.workingDirectory, "web"),
		"output: snapshot.txt",
		"- .php",
		"- node_modules",
		"- package.json",
		"root_lockfile: \"\"",
	}
	for _, fragment := range expectedFragments {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected %q in configuration output:\n%s", fragment, output)
		}
	}
}

func TestInitCommandRefusesToOverwriteWithoutForce(t *testing.T) {
	harness := newCommandHarness(t)
	output, err := harness.execute(t, "init")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	configurationPath := filepath.Join(harness.workingDirectory, utils.LocalConfigFileName)
	if !strings.Contains(output, configurationPath) {
		t.Fatalf("expected written path in %q", output)
	}

	if _, err := harness.execute(t, "init"); err == nil {
		t.Fatalf("expected error when configuration already exists")
	}
	if _, err := harness.execute(t, "init", "--force"); err != nil {
		t.Fatalf("unexpected error with --force: %v", err)
	}

	if _, err := harness.execute(t, "init", "--global"); err != nil {
		t.Fatalf("unexpected error for global init: %v", err)
	}
	homeDirectory, _ := os.UserHomeDir()
	if _, statErr := os.Stat(filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)); statErr != nil {
		t.Fatalf("expected global configuration file: %v", statErr)
	}
}
