// Package state remembers where the reader left off in each source.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/metcalfc/simplyread/internal/errors"
)

const (
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// Position is a word cursor within a chapter.
type Position struct {
	Chapter int `json:"chapter"`
	Word    int `json:"word"`
}

// Store manages persistent reading positions keyed by source identity.
type Store struct {
	path string
	data map[string]Position
	mu   sync.RWMutex
}

// NewStore creates or loads state from dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]Position),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]Position)
	}
	return store, nil
}

// Key returns the identity of a source: a content hash for files, so a
// renamed file keeps its place, and a hash of the address for URLs.
func Key(source string, isURL bool) (string, error) {
	if isURL {
		return HashString(source), nil
	}
	return ComputeHash(source)
}

// ComputeHash generates content hash for file identity
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", errors.Wrap(err, "open for hashing")
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrap(err, "read for hashing")
	}
	return digest(buf[:n]), nil
}

// HashString hashes an address the same way ComputeHash hashes content.
func HashString(s string) string {
	return digest([]byte(s))
}

func digest(b []byte) string {
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:16]) // First 16 bytes = 32 hex chars
}

// Get returns the saved position for key, or the zero position.
func (s *Store) Get(key string) Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// Set saves the position for key.
func (s *Store) Set(key string, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = pos
	return s.save()
}

// Clear removes the saved position for key.
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode positions")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrap(err, "write positions")
	}
	return nil
}
