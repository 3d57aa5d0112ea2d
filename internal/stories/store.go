// Package stories persists submitted stories and shared tips as a JSON
// array on disk and serves the submission endpoint.
package stories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"mikecheck/internal/domain"
)

var (
	ErrReadFile  = errors.New("error reading file")
	ErrWriteFile = errors.New("error writing file")
)

// FileStore appends JSON documents to a file holding one JSON array. The file
// is rewritten on every append.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Append adds story to the end of the array. A missing file starts a new one.
func (s *FileStore) Append(story json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked()
	if err != nil {
		return err
	}
	entries = append(entries, story)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFile, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFile, err)
	}
	return nil
}

// All returns the stored documents in submission order.
func (s *FileStore) All() ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// AppendTip journals a shared community tip.
func (s *FileStore) AppendTip(tip domain.Tip) error {
	data, err := json.Marshal(tip)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFile, err)
	}
	return s.Append(data)
}

func (s *FileStore) readLocked() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []json.RawMessage{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return entries, nil
}
