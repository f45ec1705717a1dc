package refs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/minigit/pkg/lockfile"
	"github.com/odvcencio/minigit/pkg/object"
)

// Store reads and writes HEAD and the refs/ tree under a metadata
// directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore returns a Store rooted at the metadata directory dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, logger: slog.New(slog.DiscardHandler)}
}

// SetLogger attaches a logger for resolution warnings and scan diagnostics.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Init creates the ref namespaces and points HEAD at the given branch.
func (s *Store) Init(branch string) error {
	head, err := BranchHead(branch)
	if err != nil {
		return err
	}
	for _, t := range []RefType{Branch, Tag} {
		if err := os.MkdirAll(filepath.Join(s.dir, filepath.FromSlash(t.Dir())), 0o755); err != nil {
			return fmt.Errorf("init refs: %w", err)
		}
	}
	return s.WriteHead(head)
}

func (s *Store) checkRepo() error {
	info, err := os.Stat(filepath.Join(s.dir, "refs"))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", s.dir, ErrNotARepository)
	}
	return nil
}

// ---------------------------------------------------------------------------
// HEAD
// ---------------------------------------------------------------------------

// ReadHead parses the HEAD file.
func (s *Store) ReadHead() (Head, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "HEAD"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read HEAD: %w", ErrNotARepository)
		}
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, "ref:"); ok {
		target = strings.TrimSpace(target)
		if target == "" {
			return nil, fmt.Errorf("read HEAD: %w: empty symbolic target", object.ErrMalformed)
		}
		return SymbolicHead{Target: target}, nil
	}
	h, err := object.ParseHash(content)
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	return DetachedHead{Hash: h}, nil
}

// WriteHead replaces HEAD under its lock.
func (s *Store) WriteHead(head Head) error {
	var line string
	switch h := head.(type) {
	case SymbolicHead:
		line = "ref: " + h.Target + "\n"
	case DetachedHead:
		hash, err := object.ParseHash(string(h.Hash))
		if err != nil {
			return fmt.Errorf("write HEAD: %w", err)
		}
		line = string(hash) + "\n"
	default:
		return fmt.Errorf("write HEAD: unsupported head %T", head)
	}
	if err := lockfile.WriteFile(filepath.Join(s.dir, "HEAD"), []byte(line)); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

// branchFromTarget strips refs/heads/ from a symbolic target. A doubled
// prefix is stripped twice and reported.
func (s *Store) branchFromTarget(target string) (string, error) {
	name, ok := strings.CutPrefix(target, headsPrefix)
	if !ok {
		return "", fmt.Errorf("HEAD target %q: %w: not under %s", target, object.ErrMalformed, headsPrefix)
	}
	if again, doubled := strings.CutPrefix(name, headsPrefix); doubled {
		s.logger.Warn("HEAD target has a doubled refs/heads/ prefix", "target", target)
		name = again
	}
	if err := ValidateName(name); err != nil {
		return "", fmt.Errorf("HEAD target %q: %w", target, err)
	}
	return name, nil
}

// ResolveHead returns the commit HEAD points at. ok is false when HEAD
// tracks a branch that has no commits yet.
func (s *Store) ResolveHead() (hash object.Hash, ok bool, err error) {
	head, err := s.ReadHead()
	if err != nil {
		return "", false, err
	}
	switch h := head.(type) {
	case DetachedHead:
		return h.Hash, true, nil
	case SymbolicHead:
		name, err := s.branchFromTarget(h.Target)
		if err != nil {
			return "", false, err
		}
		hash, err := s.ReadRef(Branch, name)
		if errors.Is(err, object.ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return hash, true, nil
	default:
		return "", false, fmt.Errorf("resolve HEAD: unsupported head %T", head)
	}
}

// CurrentBranch returns the branch HEAD tracks. ok is false when HEAD is
// detached.
func (s *Store) CurrentBranch() (name string, ok bool, err error) {
	head, err := s.ReadHead()
	if err != nil {
		return "", false, err
	}
	sym, isSym := head.(SymbolicHead)
	if !isSym {
		return "", false, nil
	}
	name, err = s.branchFromTarget(sym.Target)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// ---------------------------------------------------------------------------
// Refs
// ---------------------------------------------------------------------------

func (s *Store) refPath(t RefType, name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(t.Dir()), filepath.FromSlash(name))
}

// ReadRef returns the hash stored in the named ref.
func (s *Store) ReadRef(t RefType, name string) (object.Hash, error) {
	if err := s.checkRepo(); err != nil {
		return "", err
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	hash, found, err := readRefHash(s.refPath(t, name))
	if err != nil {
		return "", fmt.Errorf("read %s %q: %w", t, name, err)
	}
	if !found {
		return "", fmt.Errorf("%s %q: %w", t, name, object.ErrNotFound)
	}
	return hash, nil
}

// WriteRef stores ref unconditionally. HEAD is never modified, so a HEAD
// that tracks this branch keeps tracking it.
func (s *Store) WriteRef(ref Ref) error {
	return s.update(ref, "", false)
}

// CompareAndSwap stores ref only if its current value is old. An empty old
// requires that the ref does not exist yet.
func (s *Store) CompareAndSwap(ref Ref, old object.Hash) error {
	return s.update(ref, old, true)
}

func (s *Store) update(ref Ref, old object.Hash, checkOld bool) error {
	if err := s.checkRepo(); err != nil {
		return err
	}
	if err := ValidateName(ref.Name); err != nil {
		return err
	}
	hash, err := object.ParseHash(string(ref.Hash))
	if err != nil {
		return fmt.Errorf("update ref %q: %w", ref.FullName(), err)
	}
	refPath := s.refPath(ref.Type, ref.Name)

	lock, err := lockfile.Acquire(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: %w", ref.FullName(), err)
	}
	defer lock.Rollback()

	if checkOld {
		current, _, err := readRefHash(refPath)
		if err != nil {
			return fmt.Errorf("update ref %q: read old hash: %w", ref.FullName(), err)
		}
		if current != old {
			return fmt.Errorf("update ref %q: %w (expected %q, found %q)", ref.FullName(), ErrRefCASMismatch, old, current)
		}
	}

	if _, err := lock.Write([]byte(string(hash) + "\n")); err != nil {
		return fmt.Errorf("update ref %q: write: %w", ref.FullName(), err)
	}
	if err := lock.Commit(); err != nil {
		return fmt.Errorf("update ref %q: %w", ref.FullName(), err)
	}
	return nil
}

// DeleteRef removes the named ref.
func (s *Store) DeleteRef(t RefType, name string) error {
	if err := s.checkRepo(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	refPath := s.refPath(t, name)
	lock, err := lockfile.Acquire(refPath)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", t, name, err)
	}
	defer lock.Rollback()
	if err := os.Remove(refPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s %q: %w", t, name, object.ErrNotFound)
		}
		return fmt.Errorf("delete %s %q: %w", t, name, err)
	}
	return nil
}

// List returns every ref in the namespace, sorted by name. Nested
// directories produce slash-joined names such as feature/x. Unparseable
// ref files are logged and skipped.
func (s *Store) List(t RefType) ([]Ref, error) {
	if err := s.checkRepo(); err != nil {
		return nil, err
	}
	base := filepath.Join(s.dir, filepath.FromSlash(t.Dir()))
	var out []Ref
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == base {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		hash, _, err := readRefHash(path)
		if err != nil {
			s.logger.Warn("skipping unreadable ref", "ref", t.Dir()+"/"+name, "error", err)
			return nil
		}
		out = append(out, Ref{Name: name, Hash: hash, Type: t})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", t, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListBranches returns local branches.
func (s *Store) ListBranches() ([]Ref, error) { return s.List(Branch) }

// ListTags returns tags.
func (s *Store) ListTags() ([]Ref, error) { return s.List(Tag) }

// ListRemoteBranches returns remote-tracking branches named <remote>/<branch>.
func (s *Store) ListRemoteBranches() ([]Ref, error) { return s.List(RemoteBranch) }

// readRefHash reads a ref file. found is false when the file is absent.
func readRefHash(refPath string) (hash object.Hash, found bool, err error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	hash, err = object.ParseHash(string(data))
	if err != nil {
		return "", true, err
	}
	return hash, true, nil
}
