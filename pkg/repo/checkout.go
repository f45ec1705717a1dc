package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/minigit/pkg/diff"
	"github.com/odvcencio/minigit/pkg/index"
	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

// Checkout switches the working tree to target, a branch name or a commit
// hash. A branch leaves HEAD symbolic; a hash detaches it.
//
//  1. Refuse when tracked files have staged or unstaged changes, unless force
//  2. Resolve target as a branch first, then as a hash
//  3. Remove tracked files absent from the target tree
//  4. Write every file of the target tree and rebuild the index from it
//  5. Move HEAD
func (r *Repo) Checkout(target string, force bool) error {
	if !force {
		if err := r.ensureClean(); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	var (
		head       refs.Head
		targetHash object.Hash
	)
	if branchHash, err := r.Refs.ReadRef(refs.Branch, target); err == nil {
		sym, err := refs.BranchHead(target)
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
		head, targetHash = sym, branchHash
	} else if errors.Is(err, object.ErrNotFound) || errors.Is(err, object.ErrMalformed) {
		h, perr := object.ParseHash(target)
		if perr != nil {
			return fmt.Errorf("checkout: %q is neither a branch nor a commit hash", target)
		}
		head, targetHash = refs.DetachedHead{Hash: h}, h
	} else {
		return fmt.Errorf("checkout: %w", err)
	}

	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", targetHash, err)
	}
	snap, err := diff.FromTree(r.Store, commit.TreeHash)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	previous, _, err := r.Refs.ResolveHead()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.materialize(snap); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.Refs.WriteHead(head); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	r.appendReflog("HEAD", previous, targetHash, "checkout: moving to "+target)
	r.logger.Debug("checked out", "target", target, "commit", string(targetHash))
	return nil
}

// materialize replaces the tracked files in the working tree with snap and
// writes an index that matches it.
func (r *Repo) materialize(snap diff.Snapshot) error {
	tracked, err := r.trackedFiles()
	if err != nil {
		return err
	}
	for p := range tracked {
		if _, keep := snap[p]; keep {
			continue
		}
		abs := filepath.Join(r.RootDir, filepath.FromSlash(p))
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %q: %w", p, err)
		}
		r.removeEmptyParents(filepath.Dir(abs))
	}

	ix := index.New()
	for p, e := range snap {
		abs := filepath.Join(r.RootDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("mkdir for %q: %w", p, err)
		}
		data, err := e.Content()
		if err != nil {
			return fmt.Errorf("read blob for %q: %w", p, err)
		}
		perm := os.FileMode(0o644)
		if e.Mode == object.ModeExecutable {
			perm = 0o755
		}
		if err := os.WriteFile(abs, data, perm); err != nil {
			return fmt.Errorf("write %q: %w", p, err)
		}
		if err := os.Chmod(abs, perm); err != nil {
			return fmt.Errorf("chmod %q: %w", p, err)
		}
		info, err := os.Lstat(abs)
		if err != nil {
			return fmt.Errorf("stat %q: %w", p, err)
		}
		entry := index.EntryFromFileInfo(p, e.Hash, info)
		entry.Mode = e.Mode
		ix.Add(entry)
	}
	return r.WriteIndex(ix)
}

// ensureClean fails when a tracked path has staged or unstaged changes.
// Untracked files do not count.
func (r *Repo) ensureClean() error {
	st, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	dirty := make([]string, 0)
	for _, group := range [][]string{st.StagedNew, st.StagedModified, st.StagedDeleted, st.Modified, st.Deleted} {
		dirty = append(dirty, group...)
	}
	if len(dirty) > 0 {
		return fmt.Errorf("working tree is not clean (file %q has uncommitted changes)", dirty[0])
	}
	return nil
}

// trackedFiles merges the paths of the HEAD tree and the index.
func (r *Repo) trackedFiles() (map[string]bool, error) {
	files := make(map[string]bool)
	head, err := r.HeadSnapshot()
	if err != nil {
		return nil, err
	}
	for p := range head {
		files[p] = true
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, err
	}
	for p := range ix.Entries {
		files[p] = true
	}
	return files, nil
}

// removeEmptyParents removes empty directories up to, but not including,
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
