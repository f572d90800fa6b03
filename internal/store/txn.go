package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ReplaceFunc moves source over destination in a single step.
type ReplaceFunc func(source, destination string) error

// DefaultReplace renames on POSIX and uses MoveFileEx with write-through on Windows.
var DefaultReplace ReplaceFunc = atomic.ReplaceFile

// TempPath returns the temp file used when replacing target. The name is fixed
// (target name plus TempSuffix) and always in the same directory as target, so
// the final rename never crosses a filesystem boundary.
func TempPath(target string) (string, error) {
	base := filepath.Base(target)
	if target == "" || base == "." || base == string(filepath.Separator) || base == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, target)
	}
	return filepath.Join(filepath.Dir(target), base+TempSuffix), nil
}

// AtomicWriter handles atomic file replacement using temp file + rename
type AtomicWriter struct {
	targetPath string
	tempPath   string
	tempFile   *os.File
	replace    ReplaceFunc
}

// NewAtomicWriter creates the temp file for targetPath. Any stray temp file
// left by an earlier interrupted write is truncated.
func NewAtomicWriter(targetPath string, replace ReplaceFunc) (*AtomicWriter, error) {
	tempPath, err := TempPath(targetPath)
	if err != nil {
		return nil, err
	}

	if replace == nil {
		replace = DefaultReplace
	}

	tempFile, err := os.OpenFile(filepath.Clean(tempPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTempWrite, err)
	}

	return &AtomicWriter{
		targetPath: targetPath,
		tempPath:   tempPath,
		tempFile:   tempFile,
		replace:    replace,
	}, nil
}

// TempPath returns the path of the temp file being written.
func (aw *AtomicWriter) TempPath() string {
	return aw.tempPath
}

// Write writes data to the temporary file. On error the temp file is removed.
func (aw *AtomicWriter) Write(data []byte) (int, error) {
	if aw.tempFile == nil {
		return 0, fmt.Errorf("%w: writer is closed", ErrTempWrite)
	}

	n, err := aw.tempFile.Write(data)
	if err != nil {
		_ = aw.Abort()
		return n, fmt.Errorf("%w: %v", ErrTempWrite, err)
	}
	return n, nil
}

// Commit syncs and closes the temp file, then replaces the target with it.
//
// A failure before the replace removes the temp file and leaves the target
// untouched. A failed replace leaves the temp file in place for inspection.
func (aw *AtomicWriter) Commit() error {
	if aw.tempFile == nil {
		return fmt.Errorf("%w: writer is closed", ErrTempWrite)
	}

	if err := aw.tempFile.Sync(); err != nil {
		_ = aw.Abort()
		return fmt.Errorf("%w: sync: %v", ErrTempWrite, err)
	}

	if err := aw.tempFile.Close(); err != nil {
		aw.tempFile = nil
		_ = os.Remove(aw.tempPath)
		return fmt.Errorf("%w: close: %v", ErrTempWrite, err)
	}
	aw.tempFile = nil

	if err := aw.replace(aw.tempPath, aw.targetPath); err != nil {
		return fmt.Errorf("%w: %v", ErrReplace, err)
	}

	return nil
}

// Abort cancels the write and removes the temporary file
func (aw *AtomicWriter) Abort() error {
	var err error

	if aw.tempFile != nil {
		if closeErr := aw.tempFile.Close(); closeErr != nil {
			err = closeErr
		}
		aw.tempFile = nil
	}

	if removeErr := os.Remove(aw.tempPath); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = removeErr
	}

	return err
}

// ReplaceFileContents writes data to path through its deterministic temp file.
// Errors wrap ErrTempWrite or ErrReplace depending on the failing step.
func ReplaceFileContents(path string, data []byte, replace ReplaceFunc) error {
	writer, err := NewAtomicWriter(path, replace)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return err
	}

	return writer.Commit()
}

// writeFileAtomic replaces path with data, creating parent directories first.
// It is used for the small bookkeeping files owned by the store.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	return nil
}
