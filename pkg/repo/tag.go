package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

// CreateTag creates or, with force, moves a lightweight tag. An empty
// target tags HEAD.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	if target == "" {
		head, ok, err := r.Refs.ResolveHead()
		if err != nil {
			return fmt.Errorf("create tag: %w", err)
		}
		if !ok {
			return fmt.Errorf("create tag %q: HEAD has no commits", name)
		}
		target = head
	}
	if !r.Store.Has(target) {
		return fmt.Errorf("create tag %q: target %s: %w", name, target, object.ErrNotFound)
	}

	ref := refs.Ref{Name: name, Hash: target, Type: refs.Tag}
	var err error
	if force {
		err = r.Refs.WriteRef(ref)
	} else {
		err = r.Refs.CompareAndSwap(ref, "")
	}
	if errors.Is(err, refs.ErrRefCASMismatch) {
		return fmt.Errorf("create tag: tag %q already exists", name)
	}
	if err != nil {
		return fmt.Errorf("create tag %q: %w", name, err)
	}
	return nil
}

// ListTags returns tags sorted by name.
func (r *Repo) ListTags() ([]refs.Ref, error) {
	return r.Refs.ListTags()
}
