package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	// DefaultMaxEntrySize bounds how much of one entry is decompressed when no limit is configured
	DefaultMaxEntrySize = 64 * 1024 * 1024
	// DefaultMaxTotalSize bounds how much one archive inflates to across all entries read from it
	DefaultMaxTotalSize = 128 * 1024 * 1024
)

// ErrInflateBudget is returned once the entries read from one archive exceed its total size limit
var ErrInflateBudget = errors.New("archive inflate budget exhausted")

// Limits bound decompression of untrusted archives. Zero values select the defaults.
type Limits struct {
	MaxEntrySize int64
	MaxTotalSize int64
}

// CorruptArchiveError is returned when a blob is not a readable zip container
type CorruptArchiveError struct {
	Err error
}

func (e *CorruptArchiveError) Error() string {
	return fmt.Sprintf("corrupt archive: %v", e.Err)
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Err
}

// Reader exposes the entries of an in-memory zip archive.
// Entries are decompressed only when their Text is requested.
type Reader struct {
	entries []Entry
	byName  map[string]Entry
}

// Entry is one file inside an archive
type Entry struct {
	file     *zip.File
	maxBytes int64
	budget   *budget
}

// budget is the number of inflated bytes an archive may still hand out
type budget struct {
	mu        sync.Mutex
	remaining int64
}

func (b *budget) available() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

func (b *budget) spend(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.remaining {
		b.remaining = 0
		return false
	}
	b.remaining -= n
	return true
}

// Open parses the central directory of blob
func Open(blob []byte, limits Limits) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, &CorruptArchiveError{Err: err}
	}
	if limits.MaxEntrySize <= 0 {
		limits.MaxEntrySize = DefaultMaxEntrySize
	}
	if limits.MaxTotalSize <= 0 {
		limits.MaxTotalSize = DefaultMaxTotalSize
	}
	shared := &budget{remaining: limits.MaxTotalSize}

	r := &Reader{byName: make(map[string]Entry, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		e := Entry{file: f, maxBytes: limits.MaxEntrySize, budget: shared}
		r.entries = append(r.entries, e)
		if _, dup := r.byName[f.Name]; !dup {
			r.byName[f.Name] = e
		}
	}
	return r, nil
}

// Entries returns the file entries in archive order
func (r *Reader) Entries() []Entry {
	return r.entries
}

// Find returns the first entry with the exact name
func (r *Reader) Find(name string) (Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Name returns the slash-separated path of the entry
func (e Entry) Name() string {
	return e.file.Name
}

// Size returns the declared uncompressed size
func (e Entry) Size() int64 {
	return int64(e.file.UncompressedSize64)
}

// Text decompresses the entry and returns it as a string with any UTF-8 BOM removed
func (e Entry) Text() (string, error) {
	data, err := e.Bytes()
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// Bytes decompresses the entry, failing if it inflates past the entry limit
// or past what remains of the archive's total budget
func (e Entry) Bytes() ([]byte, error) {
	remaining := e.budget.available()
	if remaining <= 0 {
		return nil, fmt.Errorf("entry %s: %w", e.file.Name, ErrInflateBudget)
	}

	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", e.file.Name, err)
	}
	defer rc.Close()

	limit := e.maxBytes
	if remaining < limit {
		limit = remaining
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", e.file.Name, err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", e.file.Name, e.maxBytes)
	}
	if !e.budget.spend(int64(len(data))) {
		return nil, fmt.Errorf("entry %s: %w", e.file.Name, ErrInflateBudget)
	}
	return data, nil
}
