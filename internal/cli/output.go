package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxOutputSize is the maximum allowed size for output to prevent memory exhaustion
const MaxOutputSize = 10 * 1024 * 1024 // 10MB

// writeString writes a string to the writer with error checking and size limits
func writeString(w io.Writer, s string) error {
	if len(s) > MaxOutputSize {
		return fmt.Errorf("output size %d exceeds maximum allowed size %d",
			len(s), MaxOutputSize)
	}

	n, err := fmt.Fprint(w, s)
	if err != nil {
		return fmt.Errorf("failed to write output (wrote %d bytes): %w", n, err)
	}

	// Ensure the output is flushed if it's a file
	if f, ok := w.(interface{ Flush() error }); ok {
		if flushErr := f.Flush(); flushErr != nil {
			return fmt.Errorf("failed to flush output: %w", flushErr)
		}
	}

	return nil
}

// writeOutput is a helper function to write formatted output with error checking and size limits
func writeOutput(w io.Writer, format string, args ...interface{}) error {
	return writeString(w, fmt.Sprintf(format, args...))
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return writeString(w, string(data)+"\n")
}

// writeBytes writes raw payload bytes, such as decrypted vault content.
func writeBytes(w io.Writer, data []byte) error {
	if len(data) > MaxOutputSize {
		return fmt.Errorf("output size %d exceeds maximum allowed size %d",
			len(data), MaxOutputSize)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
