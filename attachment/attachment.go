// Package attachment enforces the size policy over the files attached to a submission.
package attachment

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

const (
	MiB = 1024 * 1024

	DefaultMaxFileSize  int64 = 10 * MiB
	DefaultMaxTotalSize int64 = 50 * MiB
)

// Attachment is an opaque, immutable file handle.
type Attachment struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	open      func() (io.ReadCloser, error)
}

func New(name string, size int64, open func() (io.ReadCloser, error)) Attachment {
	return Attachment{Name: name, SizeBytes: size, open: open}
}

func FromBytes(name string, data []byte) Attachment {
	return New(name, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FromFile stats path and returns a handle that opens the file lazily.
func FromFile(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("attachment %s is a directory", path)
	}
	return New(filepath.Base(path), info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

func (a Attachment) Open() (io.ReadCloser, error) {
	if a.open == nil {
		return nil, fmt.Errorf("attachment %s has no content", a.Name)
	}
	return a.open()
}

type Policy struct {
	MaxFileSize  int64 `json:"max_file_size"`
	MaxTotalSize int64 `json:"max_total_size"`
}

func DefaultPolicy() Policy {
	return Policy{MaxFileSize: DefaultMaxFileSize, MaxTotalSize: DefaultMaxTotalSize}
}

// TryAdd admits the whole batch or none of it. Oversized files are checked before the
// aggregate ceiling.
func TryAdd(p Policy, candidates, accepted []Attachment) ([]Attachment, error) {
	var oversized []string
	for _, c := range candidates {
		if c.SizeBytes > p.MaxFileSize {
			oversized = append(oversized, c.Name)
		}
	}
	if len(oversized) > 0 {
		return accepted, &FileTooLargeError{Names: oversized, Limit: p.MaxFileSize}
	}
	total := Total(accepted) + Total(candidates)
	if total > p.MaxTotalSize {
		return accepted, &AggregateSizeError{TotalBytes: total, Limit: p.MaxTotalSize}
	}
	out := make([]Attachment, 0, len(accepted)+len(candidates))
	out = append(out, accepted...)
	return append(out, candidates...), nil
}

// Remove drops the file at index. Out of range indexes leave the set unchanged.
func Remove(accepted []Attachment, index int) []Attachment {
	if index < 0 || index >= len(accepted) {
		return accepted
	}
	return slices.Delete(slices.Clone(accepted), index, index+1)
}

func Total(files []Attachment) int64 {
	var sum int64
	for _, f := range files {
		sum += f.SizeBytes
	}
	return sum
}

// Set is the accepted attachment list of one session.
type Set struct {
	policy Policy
	files  []Attachment
}

func NewSet(p Policy) *Set {
	return &Set{policy: p}
}

func (s *Set) Policy() Policy {
	return s.policy
}

func (s *Set) Add(candidates ...Attachment) error {
	files, err := TryAdd(s.policy, candidates, s.files)
	if err != nil {
		return err
	}
	s.files = files
	return nil
}

// Remove reports whether a file was removed.
func (s *Set) Remove(index int) bool {
	n := len(s.files)
	s.files = Remove(s.files, index)
	return len(s.files) != n
}

func (s *Set) Files() []Attachment {
	return slices.Clone(s.files)
}

func (s *Set) Len() int {
	return len(s.files)
}

func (s *Set) Total() int64 {
	return Total(s.files)
}

func (s *Set) Clear() {
	s.files = nil
}
