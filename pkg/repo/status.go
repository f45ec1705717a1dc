package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/minigit/pkg/diff"
	"github.com/odvcencio/minigit/pkg/object"
)

// StatusResult groups paths by how they differ across HEAD, the index and
// the working tree. Every list is sorted.
type StatusResult struct {
	Branch string // empty when HEAD is detached

	StagedNew      []string
	StagedModified []string
	StagedDeleted  []string

	Modified  []string
	Deleted   []string
	Untracked []string
}

// Clean reports whether nothing is staged, changed or untracked.
func (s *StatusResult) Clean() bool {
	return len(s.StagedNew)+len(s.StagedModified)+len(s.StagedDeleted)+
		len(s.Modified)+len(s.Deleted)+len(s.Untracked) == 0
}

// snapshots loads the committed, staged and working snapshots.
type snapshots struct {
	committed diff.Snapshot
	staged    diff.Snapshot
	working   diff.Snapshot
}

func (r *Repo) loadSnapshots(withWorking bool) (*snapshots, error) {
	committed, err := r.HeadSnapshot()
	if err != nil {
		return nil, err
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, err
	}
	s := &snapshots{committed: committed, staged: diff.FromIndex(ix, r.Store)}
	if withWorking {
		wt, err := r.Worktree()
		if err != nil {
			return nil, err
		}
		files, err := wt.Files()
		if err != nil {
			return nil, err
		}
		// Ignore rules only hide untracked paths.
		for _, e := range ix.Sorted() {
			if _, ok := files[e.Path]; ok {
				continue
			}
			f, err := wt.Read(e.Path)
			if errors.Is(err, object.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			files[e.Path] = f
		}
		s.working = diff.FromFiles(files)
	}
	return s, nil
}

// HeadSnapshot flattens the tree of the HEAD commit. An unborn branch
// yields an empty snapshot.
func (r *Repo) HeadSnapshot() (diff.Snapshot, error) {
	head, ok, err := r.Refs.ResolveHead()
	if err != nil {
		return nil, err
	}
	if !ok {
		return diff.Snapshot{}, nil
	}
	c, err := r.Store.ReadCommit(head)
	if err != nil {
		return nil, err
	}
	return diff.FromTree(r.Store, c.TreeHash)
}

// Status compares HEAD with the index and the index with the working tree.
func (r *Repo) Status() (*StatusResult, error) {
	snaps, err := r.loadSnapshots(true)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	branch, _, err := r.Refs.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	res := &StatusResult{Branch: branch}
	for _, fd := range diff.Classify(snaps.committed, snaps.staged) {
		switch fd.Change {
		case diff.Added:
			res.StagedNew = append(res.StagedNew, fd.Path)
		case diff.Modified:
			res.StagedModified = append(res.StagedModified, fd.Path)
		case diff.Deleted:
			res.StagedDeleted = append(res.StagedDeleted, fd.Path)
		}
	}
	for _, fd := range diff.Classify(snaps.staged, snaps.working) {
		switch fd.Change {
		case diff.Added:
			res.Untracked = append(res.Untracked, fd.Path)
		case diff.Modified:
			res.Modified = append(res.Modified, fd.Path)
		case diff.Deleted:
			res.Deleted = append(res.Deleted, fd.Path)
		}
	}
	return res, nil
}

// DiffOptions configures Diff.
type DiffOptions struct {
	// Cached compares the index with HEAD instead of the working tree with
	// the index.
	Cached bool
}

// Diff compares the working tree with the index, or the index with HEAD
// when opts.Cached is set. Working-tree files unknown to both the index and
// HEAD are reported as untracked additions.
func (r *Repo) Diff(opts DiffOptions) (*diff.Result, error) {
	snaps, err := r.loadSnapshots(!opts.Cached)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	var res *diff.Result
	if opts.Cached {
		res, err = diff.Compare(snaps.committed, snaps.staged)
	} else {
		res, err = diff.CompareWorking(snaps.staged, snaps.committed, snaps.working)
	}
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return res, nil
}
