package attachment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFileTooLarge          = errors.New("file too large")
	ErrAggregateSizeExceeded = errors.New("total file size exceeded")
)

type FileTooLargeError struct {
	Names []string
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("File(s) too large: %s. Maximum size is %s per file.",
		strings.Join(e.Names, ", "), compactMiB(e.Limit))
}

func (e *FileTooLargeError) Unwrap() error {
	return ErrFileTooLarge
}

type AggregateSizeError struct {
	TotalBytes int64
	Limit      int64
}

func (e *AggregateSizeError) Error() string {
	return fmt.Sprintf("Total file size exceeds %s limit. Current total: %.2fMB",
		compactMiB(e.Limit), float64(e.TotalBytes)/MiB)
}

func (e *AggregateSizeError) Unwrap() error {
	return ErrAggregateSizeExceeded
}

func compactMiB(n int64) string {
	if n%MiB == 0 {
		return fmt.Sprintf("%dMB", n/MiB)
	}
	return fmt.Sprintf("%.2fMB", float64(n)/MiB)
}
