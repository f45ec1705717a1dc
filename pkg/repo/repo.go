// Package repo ties the object store, refs, index and working tree together
// into the repository operations: add, commit, status, diff and log.
package repo

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

const (
	// MetaDirName is the metadata directory at the repository root.
	MetaDirName = ".minigit"
	// DefaultBranch is used when config does not name one.
	DefaultBranch = "main"

	indexFile  = "index"
	configFile = "config.toml"
)

var (
	// ErrNotARepository is returned when no metadata directory is found.
	ErrNotARepository = refs.ErrNotARepository
	// ErrConflict is returned when a commit would record nothing new.
	ErrConflict = errors.New("nothing to commit")
	// ErrEmptyMessage is returned for blank commit messages.
	ErrEmptyMessage = errors.New("empty commit message")
)

// Repo represents an opened repository. Every operation reloads refs and
// the index from disk.
type Repo struct {
	RootDir string        // working directory root
	MetaDir string        // .minigit/ directory
	Store   *object.Store // content-addressed object store
	Refs    *refs.Store

	logger *slog.Logger
}

func newRepo(root string) *Repo {
	meta := filepath.Join(root, MetaDirName)
	return &Repo{
		RootDir: root,
		MetaDir: meta,
		Store:   object.NewStore(meta),
		Refs:    refs.NewStore(meta),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger attaches logger to the repository and its stores.
func (r *Repo) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	r.logger = logger
	r.Store.SetLogger(logger)
	r.Refs.SetLogger(logger)
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.MetaDir, indexFile)
}
