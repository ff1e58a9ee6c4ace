package notebook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const artifactExt = ".ipynb"

// Store persists document artifacts as one file per document at
// {dir}/{document_id}.ipynb. Writes are full rewrites, made atomic with a
// temp-file rename and serialized across processes by a sidecar file lock.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the artifact path for a document id.
func (s *Store) Path(docID string) string {
	return filepath.Join(s.dir, docID+artifactExt)
}

func (s *Store) lockPath(docID string) string {
	return filepath.Join(s.dir, "."+docID+".lock")
}

// Write replaces the stored artifact for docID with data.
func (s *Store) Write(docID string, data []byte) error {
	lock := flock.New(s.lockPath(docID))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock document %s: %w", docID, err)
	}
	defer lock.Unlock()

	path := s.Path(docID)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write document %s: %w", docID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document %s: %w", docID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write document %s: %w", docID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write document %s: %w", docID, err)
	}

	return nil
}

// Read returns the stored artifact bytes for docID.
// Returns ErrDocumentNotFound when no artifact exists.
func (s *Store) Read(docID string) ([]byte, error) {
	lock := flock.New(s.lockPath(docID))
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock document %s: %w", docID, err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(s.Path(docID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return nil, fmt.Errorf("read document %s: %w", docID, err)
	}
	return data, nil
}

// Delete removes the stored artifact. Missing artifacts are not an error.
func (s *Store) Delete(docID string) error {
	if err := os.Remove(s.Path(docID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	os.Remove(s.lockPath(docID))
	return nil
}

// List returns the ids of all stored documents.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, artifactExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, artifactExt))
	}
	return ids, nil
}
