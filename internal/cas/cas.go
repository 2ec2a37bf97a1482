// Package cas implements the content-addressable artifact store
// (spec.md 4.1): sealed, deduplicated, SHA-256-keyed blobs with a
// side-car metadata registry. The on-disk layout is the one spec.md 6
// names as a reference layout: "<prefix>/<hash>.bin",
// "<prefix>/<hash>.meta.json", and a single append-only "registry.jsonl".
//
// Grounded on internal/auditlog's file-backed JSONL append pattern,
// generalized from one growing log file to one blob per artifact plus an
// append log that indexes them.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/llm"
)

var (
	errNotFound  = errors.New("not found")
	errIntegrity = errors.New("integrity violation")
	errInternal  = errors.New("internal invariant violation")
)

// Store is a single-process, filesystem-backed content-addressable store.
// Insertion is atomic via write-to-temp-then-rename; concurrent readers
// never observe a partial blob. Metadata updates for a given id are
// serialized by mu; blob writes for distinct ids proceed independently of
// one another (the directory is the only shared resource, and os.Rename
// within it is atomic on POSIX filesystems).
type Store struct {
	root string

	mu       sync.Mutex
	registry map[string]artifact.Metadata // id -> metadata, in-memory mirror of registry.jsonl
}

// Open creates (if necessary) the store's root directory and replays its
// registry.jsonl to rebuild the in-memory index.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, llm.Wrap(err, "", fmt.Sprintf("cas: cannot create store root %s", root), llm.CategoryStorage)
	}
	s := &Store{root: root, registry: make(map[string]artifact.Metadata)}
	if err := s.replayRegistry(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) registryPath() string { return filepath.Join(s.root, "registry.jsonl") }
func (s *Store) blobPath(id string) string {
	return filepath.Join(s.root, artifactDir(id), id+".bin")
}
func (s *Store) metaPath(id string) string {
	return filepath.Join(s.root, artifactDir(id), id+".meta.json")
}

// artifactDir shards blobs two hex characters deep to keep any one
// directory from accumulating too many entries over a long-lived store.
func artifactDir(id string) string {
	if len(id) < 2 {
		return "misc"
	}
	return id[:2]
}

type registryLine struct {
	ID       string            `json:"id"`
	Metadata artifact.Metadata `json:"metadata"`
}

func (s *Store) replayRegistry() error {
	f, err := os.Open(s.registryPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return llm.Wrap(err, "", "cas: cannot open registry.jsonl", llm.CategoryStorage)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	for dec.More() {
		var line registryLine
		if err := dec.Decode(&line); err != nil {
			return llm.Wrap(err, "", "cas: corrupt registry.jsonl", llm.CategoryStorage)
		}
		if existing, ok := s.registry[line.ID]; ok {
			s.registry[line.ID] = existing.Merge(line.Metadata)
		} else {
			s.registry[line.ID] = line.Metadata
		}
	}
	return nil
}

func (s *Store) appendRegistry(id string, meta artifact.Metadata) error {
	f, err := os.OpenFile(s.registryPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return llm.Wrap(err, "", "cas: cannot append to registry.jsonl", llm.CategoryStorage)
	}
	defer f.Close()

	line, err := json.Marshal(registryLine{ID: id, Metadata: meta})
	if err != nil {
		return llm.Wrap(err, "", "cas: cannot marshal registry line", llm.CategoryInternal)
	}
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		return llm.Wrap(err, "", "cas: cannot write registry line", llm.CategoryStorage)
	}
	return nil
}

// Put writes content if its id is unseen, otherwise deduplicates and
// merges metadata into the existing record. Returns the content id.
func (s *Store) Put(content []byte, meta artifact.Metadata) (string, error) {
	id := artifact.ID(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.registry[id]; ok {
		merged := existing.Merge(meta)
		s.registry[id] = merged
		if err := s.appendRegistry(id, meta); err != nil {
			return "", err
		}
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.blobPath(id)), 0o755); err != nil {
		return "", llm.Wrap(err, "", "cas: cannot create shard directory", llm.CategoryStorage)
	}
	if err := atomicWrite(s.blobPath(id), content); err != nil {
		return "", llm.Wrap(err, "", "cas: cannot write blob", llm.CategoryStorage)
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", llm.Wrap(err, "", "cas: cannot marshal metadata", llm.CategoryInternal)
	}
	if err := atomicWrite(s.metaPath(id), metaBytes); err != nil {
		return "", llm.Wrap(err, "", "cas: cannot write metadata", llm.CategoryStorage)
	}

	if err := s.appendRegistry(id, meta); err != nil {
		return "", err
	}
	s.registry[id] = meta
	return id, nil
}

// atomicWrite writes data to a temp file in the same directory as path,
// then renames it into place, so a concurrent reader never observes a
// partially written file.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get retrieves a blob and its metadata, verifying the stored bytes still
// hash to id (spec.md's IntegrityViolation failure mode).
func (s *Store) Get(id string) ([]byte, artifact.Metadata, error) {
	s.mu.Lock()
	meta, known := s.registry[id]
	s.mu.Unlock()
	if !known {
		return nil, artifact.Metadata{}, llm.Wrap(errNotFound, "", fmt.Sprintf("cas: artifact %s not found", id), llm.CategoryNotFound)
	}

	content, err := os.ReadFile(s.blobPath(id))
	if err != nil {
		return nil, artifact.Metadata{}, llm.Wrap(err, "", fmt.Sprintf("cas: cannot read blob %s", id), llm.CategoryStorage)
	}

	if artifact.ID(content) != id {
		return nil, artifact.Metadata{}, llm.Wrap(errIntegrity, "", fmt.Sprintf("cas: blob %s failed integrity check", id), llm.CategoryIntegrity)
	}

	return content, meta, nil
}

// Filter is a predicate over metadata used by List.
type Filter func(id string, meta artifact.Metadata) bool

// ByType returns a Filter matching a single artifact type.
func ByType(t artifact.Type) Filter {
	return func(_ string, meta artifact.Metadata) bool { return meta.ArtifactType == t }
}

// List returns the ids of every artifact matching filter. A nil filter
// matches everything.
func (s *Store) List(filter Filter) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, meta := range s.registry {
		if filter == nil || filter(id, meta) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Registry returns a read-only snapshot of every known id to its metadata.
func (s *Store) Registry() map[string]artifact.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]artifact.Metadata, len(s.registry))
	for id, meta := range s.registry {
		out[id] = meta
	}
	return out
}

// PutArtifact is a convenience wrapper: seal v, then Put its bytes.
func (s *Store) PutArtifact(v any, meta artifact.Metadata) (string, error) {
	content, id, err := artifact.Seal(v)
	if err != nil {
		return "", err
	}
	got, err := s.Put(content, meta)
	if err != nil {
		return "", err
	}
	if got != id {
		// Cannot happen given Seal/ID share the same hash function, but
		// guards against a future change to one without the other.
		return "", llm.Wrap(errInternal, "", "cas: seal/put id mismatch", llm.CategoryInternal)
	}
	return id, nil
}
