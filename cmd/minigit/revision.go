package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
	"github.com/odvcencio/minigit/pkg/repo"
)

// resolveRevision maps a branch name, tag name or full hash to an object
// hash. An empty revision resolves to "" so callers default to HEAD.
func resolveRevision(r *repo.Repo, rev string) (object.Hash, error) {
	if rev == "" || rev == "HEAD" {
		return "", nil
	}
	for _, t := range []refs.RefType{refs.Branch, refs.Tag} {
		h, err := r.Refs.ReadRef(t, rev)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, object.ErrNotFound) && !errors.Is(err, object.ErrMalformed) {
			return "", err
		}
	}
	h, err := object.ParseHash(rev)
	if err != nil {
		return "", fmt.Errorf("unknown revision %q", rev)
	}
	return h, nil
}
