package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at the given directory. Shard directories
// are created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root, logger: slog.New(slog.DiscardHandler)}
}

// SetLogger attaches a logger for bulk-scan diagnostics.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Init creates the objects directory with its reserved info/ and pack/
// subdirectories.
func (s *Store) Init() error {
	for _, dir := range []string{"info", "pack"} {
		if err := os.MkdirAll(filepath.Join(s.root, "objects", dir), 0o755); err != nil {
			return fmt.Errorf("object store init: %w", err)
		}
	}
	return nil
}

// objectPath returns the filesystem path for a given hash. Hex digits are
// matched case-insensitively.
func (s *Store) objectPath(h Hash) string {
	h = Hash(strings.ToLower(string(h)))
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if len(h) != HashSize*2 {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores a payload of the given type and returns its content hash.
// The on-disk file is the zlib-compressed "type len\0content". Writes are
// atomic and idempotent: an existing object is never rewritten.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	raw := append(envelopeHeader(objType, len(data)), data...)
	h := HashObject(objType, data)

	if s.Has(h) {
		return h, nil
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("object write %s: compress: %w", h, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("object write %s: compress: %w", h, err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write %s: %w", h, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}
	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}
	return h, nil
}

// WriteRaw stores an already-decoded payload received from elsewhere and
// checks that it hashes to expected.
func (s *Store) WriteRaw(objType ObjectType, data []byte, expected Hash) (Hash, error) {
	if got := HashObject(objType, data); got != expected {
		return "", fmt.Errorf("object write %s: %w: content hashes to %s", expected, ErrMalformed, got)
	}
	if _, err := UnmarshalPayload(objType, data); err != nil {
		return "", fmt.Errorf("object write %s: %w", expected, err)
	}
	return s.Write(objType, data)
}

// ReadRaw returns the decompressed canonical bytes of an object.
func (s *Store) ReadRaw(h Hash) ([]byte, error) {
	if len(h) != HashSize*2 {
		return nil, fmt.Errorf("object read %q: %w: bad hash length", h, ErrMalformed)
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w: %v", h, ErrMalformed, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w: %v", h, ErrMalformed, err)
	}
	return raw, nil
}

// Read retrieves an object by hash, returning its type and raw payload.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	raw, err := s.ReadRaw(h)
	if err != nil {
		return "", nil, err
	}
	objType, content, err := SplitEnvelope(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return objType, content, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteObject serializes and stores any object.
func (s *Store) WriteObject(obj Object) (Hash, error) {
	payload, err := MarshalPayload(obj)
	if err != nil {
		return "", err
	}
	return s.Write(obj.Type(), payload)
}

// ReadObject loads and decodes the object stored under h.
func (s *Store) ReadObject(h Hash) (Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := UnmarshalPayload(objType, data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return obj, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeBlob {
		return nil, fmt.Errorf("object %s: %w: type mismatch: got %q, want %q", h, ErrMalformed, objType, TypeBlob)
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return "", err
	}
	return s.Write(TypeTree, data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTree {
		return nil, fmt.Errorf("object %s: %w: type mismatch: got %q, want %q", h, ErrMalformed, objType, TypeTree)
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj. Any other object type
// yields a *NotACommitError.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, &NotACommitError{Hash: h, Type: objType}
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Enumeration
// ---------------------------------------------------------------------------

// List returns every object hash in the store, sorted. Reserved directories
// and names that do not form a hash are skipped.
func (s *Store) List() ([]Hash, error) {
	objectsDir := filepath.Join(s.root, "objects")
	shards, err := os.ReadDir(objectsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list objects: %w", err)
	}

	var out []Hash
	for _, shard := range shards {
		name := shard.Name()
		if !shard.IsDir() || name == "info" || name == "pack" || !isHexPair(name) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(objectsDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable object shard", "shard", name, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			h, err := ParseHash(name + f.Name())
			if err != nil {
				if f.Name()[0] != '.' {
					s.logger.Warn("skipping unexpected file in object shard", "shard", name, "file", f.Name())
				}
				continue
			}
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func isHexPair(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
