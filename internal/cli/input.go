package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errPassphraseMismatch = errors.New("passphrases do not match")

// readPassphrase returns the passphrase from PassphraseEnv, or prompts for it
// on the terminal.
func readPassphrase(cmd *cobra.Command, prompt string, confirm bool) (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}

	if confirm {
		return PromptPasswordConfirm(cmd.ErrOrStderr(), prompt)
	}
	return PromptPassword(cmd.ErrOrStderr(), prompt)
}

// PromptPassword prompts for a password without echoing to terminal
func PromptPassword(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)

	// Get file descriptor for stdin
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for passphrase prompt, set %s", PassphraseEnv)
	}

	password, err := term.ReadPassword(fd)
	fmt.Fprintln(w) // newline after hidden input

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(password), nil
}

// PromptPasswordConfirm prompts for a password and confirmation
func PromptPasswordConfirm(w io.Writer, prompt string) (string, error) {
	password, err := PromptPassword(w, prompt)
	if err != nil {
		return "", err
	}

	confirm, err := PromptPassword(w, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}

	if password != confirm {
		return "", errPassphraseMismatch
	}

	return password, nil
}

// PromptConfirm prompts for yes/no confirmation
func PromptConfirm(in io.Reader, w io.Writer, prompt string, defaultYes bool) (bool, error) {
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}
	fmt.Fprint(w, prompt+suffix)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return defaultYes, nil
	}

	return input == "y" || input == "yes", nil
}
