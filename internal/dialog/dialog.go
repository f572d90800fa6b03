// Package dialog defines the interactive collaborators the vault service calls
// into: choosing a folder, choosing a file and revealing a folder in the OS
// file browser. Choosers block until the user answers or cancels.
package dialog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/skratchdot/open-golang/open"
)

// ErrCancelled is returned when the user dismisses a chooser.
var ErrCancelled = errors.New("selection cancelled")

// ErrFilterMismatch is returned when a picked file lacks an allowed extension.
var ErrFilterMismatch = errors.New("file does not match filter")

// FolderChooser asks the user for a directory.
type FolderChooser interface {
	PickFolder() (string, error)
}

// FileChooser asks the user for an existing file. Extensions are given
// without the leading dot.
type FileChooser interface {
	PickFile(filterName string, extensions []string) (string, error)
}

// Chooser combines both choosers.
type Chooser interface {
	FolderChooser
	FileChooser
}

// FolderOpener reveals a folder in the OS file browser.
type FolderOpener interface {
	OpenFolder(path string) error
}

// OSOpener opens folders with the platform's default handler.
type OSOpener struct{}

// OpenFolder implements FolderOpener.
func (OSOpener) OpenFolder(path string) error {
	return open.Start(path)
}

// NopOpener does nothing.
type NopOpener struct{}

// OpenFolder implements FolderOpener.
func (NopOpener) OpenFolder(string) error { return nil }

// StaticChooser returns fixed answers. An empty answer means the user cancelled.
type StaticChooser struct {
	Folder string
	File   string
}

// PickFolder implements FolderChooser.
func (s StaticChooser) PickFolder() (string, error) {
	if s.Folder == "" {
		return "", ErrCancelled
	}
	return s.Folder, nil
}

// PickFile implements FileChooser.
func (s StaticChooser) PickFile(_ string, extensions []string) (string, error) {
	if s.File == "" {
		return "", ErrCancelled
	}
	if !HasExtension(s.File, extensions) {
		return "", fmt.Errorf("%w: %s not in %v", ErrFilterMismatch, s.File, extensions)
	}
	return s.File, nil
}

// PromptChooser asks for paths on a line-oriented terminal. An empty line or
// end of input cancels the selection.
type PromptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptChooser reads answers from in and writes prompts to out.
func NewPromptChooser(in io.Reader, out io.Writer) *PromptChooser {
	return &PromptChooser{in: bufio.NewReader(in), out: out}
}

// PickFolder implements FolderChooser.
func (p *PromptChooser) PickFolder() (string, error) {
	return p.ask("Vault folder: ")
}

// PickFile implements FileChooser.
func (p *PromptChooser) PickFile(filterName string, extensions []string) (string, error) {
	path, err := p.ask(fmt.Sprintf("%s (%s): ", filterName, extensionList(extensions)))
	if err != nil {
		return "", err
	}
	if !HasExtension(path, extensions) {
		return "", fmt.Errorf("%w: %s not in %v", ErrFilterMismatch, path, extensions)
	}
	return path, nil
}

func (p *PromptChooser) ask(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrCancelled
	}

	return filepath.Clean(line), nil
}

// HasExtension reports whether path ends in one of extensions (case-insensitive).
// An empty filter accepts every path.
func HasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range extensions {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

func extensionList(extensions []string) string {
	parts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		parts = append(parts, "*."+strings.TrimPrefix(e, "."))
	}
	return strings.Join(parts, ", ")
}
