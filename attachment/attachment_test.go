package attachment

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sized(name string, size int64) Attachment {
	return New(name, size, nil)
}

func TestTryAddAcceptsWithinLimits(t *testing.T) {
	p := DefaultPolicy()
	accepted, err := TryAdd(p, []Attachment{sized("a.pdf", 6*MiB), sized("b.pdf", 6*MiB)}, nil)
	if err != nil {
		t.Fatalf("TryAdd: %v", err)
	}
	if len(accepted) != 2 || accepted[0].Name != "a.pdf" || accepted[1].Name != "b.pdf" {
		t.Fatalf("accepted = %+v", accepted)
	}

	after, err := TryAdd(p, []Attachment{sized("c.pdf", 40*MiB)}, accepted)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
	if len(after) != 2 {
		t.Errorf("rejected batch changed the accepted set: %+v", after)
	}
}

func TestTryAddAggregateLimit(t *testing.T) {
	p := DefaultPolicy()
	accepted := []Attachment{sized("a.pdf", 6*MiB), sized("b.pdf", 6*MiB)}
	batch := []Attachment{sized("c", 10*MiB), sized("d", 10*MiB), sized("e", 10*MiB), sized("f", 10*MiB)}

	after, err := TryAdd(p, batch, accepted)
	var aggErr *AggregateSizeError
	if !errors.As(err, &aggErr) || !errors.Is(err, ErrAggregateSizeExceeded) {
		t.Fatalf("err = %v, want AggregateSizeError", err)
	}
	if aggErr.TotalBytes != 52*MiB {
		t.Errorf("total = %d", aggErr.TotalBytes)
	}
	if !strings.Contains(err.Error(), "52.00MB") {
		t.Errorf("message = %q", err.Error())
	}
	if len(after) != 2 {
		t.Errorf("rejected batch changed the accepted set: %+v", after)
	}
}

func TestTryAddReportsAllOversizedFiles(t *testing.T) {
	p := DefaultPolicy()
	batch := []Attachment{sized("big1", 11*MiB), sized("ok", 1), sized("big2", 10*MiB+1)}
	_, err := TryAdd(p, batch, nil)
	var tooLarge *FileTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("err = %v", err)
	}
	if strings.Join(tooLarge.Names, ",") != "big1,big2" {
		t.Errorf("names = %v", tooLarge.Names)
	}
	if err.Error() != "File(s) too large: big1, big2. Maximum size is 10MB per file." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestTryAddPerFileCheckComesFirst(t *testing.T) {
	p := DefaultPolicy()
	accepted := []Attachment{sized("x", 45*MiB)}
	_, err := TryAdd(p, []Attachment{sized("y", 20*MiB)}, accepted)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestTryAddExactLimits(t *testing.T) {
	p := DefaultPolicy()
	batch := []Attachment{sized("a", 10*MiB), sized("b", 10*MiB), sized("c", 10*MiB), sized("d", 10*MiB), sized("e", 10*MiB)}
	if _, err := TryAdd(p, batch, nil); err != nil {
		t.Errorf("files exactly at the limits rejected: %v", err)
	}
}

func TestRemove(t *testing.T) {
	files := []Attachment{sized("a", 1), sized("b", 2), sized("c", 3)}
	got := Remove(files, 1)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("Remove(1) = %+v", got)
	}
	if len(files) != 3 || files[1].Name != "b" {
		t.Error("Remove mutated its input")
	}
	for _, idx := range []int{-1, 3, 100} {
		if got := Remove(files, idx); len(got) != 3 {
			t.Errorf("Remove(%d) changed the set", idx)
		}
	}
}

func TestSet(t *testing.T) {
	s := NewSet(Policy{MaxFileSize: 10, MaxTotalSize: 15})
	if err := s.Add(sized("a", 8), sized("b", 5)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(sized("c", 3)); err == nil {
		t.Fatal("expected aggregate rejection")
	}
	if s.Len() != 2 || s.Total() != 13 {
		t.Errorf("len = %d total = %d", s.Len(), s.Total())
	}
	if s.Remove(5) {
		t.Error("removed out of range index")
	}
	if !s.Remove(0) || s.Files()[0].Name != "b" {
		t.Errorf("files = %+v", s.Files())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Error("Clear left files behind")
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 * MiB, "10 MB"},
		{1288490189, "1.2 GB"},
		{5 * 1024 * MiB * 1024, "5120 GB"},
	}
	for _, tt := range tests {
		if got := HumanReadableSize(tt.in); got != tt.want {
			t.Errorf("HumanReadableSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromFileAndBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.txt")
	if err := os.WriteFile(path, []byte("paid"), 0o600); err != nil {
		t.Fatal(err)
	}
	a, err := FromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "receipt.txt" || a.SizeBytes != 4 {
		t.Errorf("attachment = %+v", a)
	}
	rc, err := a.Open()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "paid" {
		t.Errorf("content = %q", data)
	}
	if _, err := FromFile(t.TempDir()); err == nil {
		t.Error("directory accepted as attachment")
	}
	if _, err := sized("empty", 0).Open(); err == nil {
		t.Error("handle without content opened")
	}
	b := FromBytes("x.bin", []byte{1, 2, 3})
	if b.SizeBytes != 3 {
		t.Errorf("size = %d", b.SizeBytes)
	}
}
