package vector

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/hyperjump/prana/pkg/utils"
)

// Source is where a snapshot artifact is read from.
type Source interface {
	Open() (io.ReadCloser, error)
	String() string
}

// FileSource reads the snapshot from a filesystem path.
type FileSource struct {
	Path string
}

// Open opens the snapshot file.
func (s FileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileSource) String() string {
	return "file:" + s.Path
}

// FSSource reads the snapshot from an fs.FS, such as an embed.FS compiled into the binary.
type FSSource struct {
	FS   fs.FS
	Path string
}

// Open opens the snapshot inside FS.
func (s FSSource) Open() (io.ReadCloser, error) {
	return s.FS.Open(s.Path)
}

func (s FSSource) String() string {
	return "fs:" + s.Path
}

// ReadSnapshot decodes the JSON array of entries from src.
func ReadSnapshot(src Source) ([]Entry, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", src, err)
	}
	defer rc.Close()
	var entries []Entry
	if err := json.NewDecoder(rc).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", src, err)
	}
	return entries, nil
}

// WriteSnapshot encodes entries as a JSON array and replaces path atomically.
func WriteSnapshot(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
