package repo

import (
	"fmt"
	"os"
	"path/filepath"
)

// InitOptions configures Init.
type InitOptions struct {
	// Branch is the branch HEAD initially tracks.
	Branch string
}

// Init creates a new repository at path: HEAD, objects/ with its reserved
// info/ and pack/ directories, refs/heads/, refs/tags/ and config.toml.
// Returns an error if the metadata directory already exists.
func Init(path string, opts InitOptions) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	r := newRepo(abs)
	if _, err := os.Stat(r.MetaDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", r.MetaDir)
	}
	if err := os.MkdirAll(r.MetaDir, 0o755); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}
	if err := r.Store.Init(); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.Refs.Init(branch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	cfg := defaultConfig()
	cfg.Core.DefaultBranch = branch
	if err := r.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return r, nil
}

// Open searches upward from path for a metadata directory and opens the
// repository.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		info, err := os.Stat(filepath.Join(cur, MetaDirName))
		if err == nil && info.IsDir() {
			return newRepo(cur), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", abs, ErrNotARepository)
		}
		cur = parent
	}
}
