package repo

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/odvcencio/minigit/pkg/index"
	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/worktree"
)

// AddResult lists what an Add call changed in the index.
type AddResult struct {
	Staged  []index.Entry
	Removed []string
}

// ReadIndex loads the index. A missing index file is an empty index.
func (r *Repo) ReadIndex() (*index.Index, error) {
	return index.Load(r.indexPath())
}

// WriteIndex persists ix through the index lock.
func (r *Repo) WriteIndex(ix *index.Index) error {
	return index.Save(r.indexPath(), ix)
}

// Worktree opens the working tree of r.
func (r *Repo) Worktree() (*worktree.Dir, error) {
	return worktree.Open(r.RootDir, MetaDirName)
}

// Add stages the given paths. Relative paths are resolved against the
// repository root; directories are added recursively. A path that no
// longer exists on disk but is tracked is removed from the index. A tracked
// file stays addable after an ignore rule starts matching it. The
// index is written once, after every path has been processed.
func (r *Repo) Add(paths []string) (*AddResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("add: no paths given")
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}

	res := &AddResult{}
	for _, p := range paths {
		rel, err := r.relPath(wt, p)
		if err != nil {
			return nil, fmt.Errorf("add: %w", err)
		}

		if e, ok := ix.Get(rel); ok && wt.Excluded(rel, false) {
			entry, err := r.stageFile(wt, e.Path)
			if errors.Is(err, object.ErrNotFound) {
				ix.Remove(rel)
				res.Removed = append(res.Removed, rel)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("add: %w", err)
			}
			ix.Add(entry)
			res.Staged = append(res.Staged, entry)
			continue
		}

		files, err := wt.Resolve([]string{rel})
		if errors.Is(err, object.ErrNotFound) {
			removed := removeTracked(ix, rel)
			if len(removed) == 0 {
				return nil, fmt.Errorf("add: %w", err)
			}
			res.Removed = append(res.Removed, removed...)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("add: %w", err)
		}

		present := make(map[string]bool, len(files))
		for _, f := range files {
			present[f] = true
			entry, err := r.stageFile(wt, f)
			if err != nil {
				return nil, fmt.Errorf("add: %w", err)
			}
			ix.Add(entry)
			res.Staged = append(res.Staged, entry)
		}
		for _, tracked := range ix.Sorted() {
			if present[tracked.Path] || !underPath(tracked.Path, rel) {
				continue
			}
			if _, err := os.Lstat(filepath.Join(r.RootDir, filepath.FromSlash(tracked.Path))); errors.Is(err, os.ErrNotExist) {
				ix.Remove(tracked.Path)
				res.Removed = append(res.Removed, tracked.Path)
			}
		}
	}

	if err := r.WriteIndex(ix); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return res, nil
}

func (r *Repo) stageFile(wt *worktree.Dir, p string) (index.Entry, error) {
	f, err := wt.Read(p)
	if err != nil {
		return index.Entry{}, err
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: f.Data})
	if err != nil {
		return index.Entry{}, fmt.Errorf("store %s: %w", p, err)
	}
	entry := index.EntryFromFileInfo(p, h, f.Info)
	entry.Mode = f.Mode
	return entry, nil
}

func (r *Repo) relPath(wt *worktree.Dir, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.RootDir, p)
	}
	return wt.RelPath(p)
}

// removeTracked drops p, or every tracked path under directory p, from ix.
func removeTracked(ix *index.Index, p string) []string {
	var removed []string
	for _, e := range ix.Sorted() {
		if underPath(e.Path, p) {
			ix.Remove(e.Path)
			removed = append(removed, e.Path)
		}
	}
	return removed
}

func underPath(p, dir string) bool {
	dir = path.Clean(dir)
	return dir == "." || p == dir || strings.HasPrefix(p, dir+"/")
}
