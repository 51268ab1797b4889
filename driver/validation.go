package driver

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFilesPerDirectory defines the maximum number of files loaded from a directory
const MaxFilesPerDirectory = 1000

// MaxColumnCount is the widest worksheet accepted, the Excel column limit (XFD)
const MaxColumnCount = 16384

// MaxValueLength defines the maximum length of a single cell value
const MaxValueLength = 65536

var (
	// ErrTooManyFiles is returned when a directory contains too many files
	ErrTooManyFiles = errors.New("too many files in directory")

	// ErrTooManyColumns is returned when a worksheet has too many columns
	ErrTooManyColumns = errors.New("too many columns")
)

// ValidateColumnCount checks if the number of columns is within acceptable limits
func ValidateColumnCount(columnCount int) error {
	if columnCount > MaxColumnCount {
		return fmt.Errorf("%w: %d > %d", ErrTooManyColumns, columnCount, MaxColumnCount)
	}
	return nil
}

// ValidateFileCount checks if the number of files is within acceptable limits
func ValidateFileCount(fileCount int) error {
	if fileCount > MaxFilesPerDirectory {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFiles, fileCount, MaxFilesPerDirectory)
	}
	return nil
}

// ValidateFieldValue truncates extremely long values and removes null bytes
func ValidateFieldValue(value string) string {
	if len(value) > MaxValueLength {
		value = value[:MaxValueLength]
	}
	return strings.ReplaceAll(value, "\x00", "")
}

// IsValidFileName reports whether a directory entry should be loaded.
// Hidden files and Excel lock files (~$Book.xlsx) are skipped.
func IsValidFileName(fileName string) bool {
	if strings.HasPrefix(fileName, ".") || strings.HasPrefix(fileName, "~$") {
		return false
	}
	return !strings.ContainsAny(fileName, "\x00<>:\"|?*")
}
