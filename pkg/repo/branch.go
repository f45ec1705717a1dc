package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

// CreateBranch creates a branch pointing at target, or at HEAD when target
// is empty. Returns an error if the branch already exists.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	if target == "" {
		head, ok, err := r.Refs.ResolveHead()
		if err != nil {
			return fmt.Errorf("create branch: %w", err)
		}
		if !ok {
			return fmt.Errorf("create branch %q: HEAD has no commits", name)
		}
		target = head
	}
	if _, err := r.Store.ReadCommit(target); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	err := r.Refs.CompareAndSwap(refs.Ref{Name: name, Hash: target, Type: refs.Branch}, "")
	if errors.Is(err, refs.ErrRefCASMismatch) {
		return fmt.Errorf("create branch: branch %q already exists", name)
	}
	if err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	r.appendReflog(refs.Ref{Name: name, Type: refs.Branch}.FullName(), "", target, "branch: created from "+target.Short())
	return nil
}

// DeleteBranch removes a branch. The branch HEAD tracks cannot be deleted.
func (r *Repo) DeleteBranch(name string) error {
	current, _, err := r.Refs.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}
	if err := r.Refs.DeleteRef(refs.Branch, name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// ListBranches returns local branches sorted by name.
func (r *Repo) ListBranches() ([]refs.Ref, error) {
	return r.Refs.ListBranches()
}

// CurrentBranch returns the branch HEAD tracks, or "" when detached.
func (r *Repo) CurrentBranch() (string, error) {
	name, _, err := r.Refs.CurrentBranch()
	return name, err
}

// SwitchBranch points HEAD at an existing branch. The index and working
// tree are left untouched.
func (r *Repo) SwitchBranch(name string) error {
	if _, err := r.Refs.ReadRef(refs.Branch, name); err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}
	head, err := refs.BranchHead(name)
	if err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}
	return r.Refs.WriteHead(head)
}
