package repo

import (
	"fmt"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

// VerifyResult summarizes an integrity check of the repository.
type VerifyResult struct {
	Objects   *object.VerifyReport
	Roots     []object.Hash        // HEAD and every ref target
	Reachable int                  // objects reachable from Roots
	Missing   []object.Hash        // referenced but absent objects
	Commits   map[object.Hash]bool // reachable hashes that are commits
}

// OK reports whether every object verified and nothing is missing.
func (v *VerifyResult) OK() bool {
	return v.Objects.OK() && len(v.Missing) == 0
}

// Verify rehashes every stored object and walks the object graph from HEAD
// and all refs, reporting referenced objects that are absent.
func (r *Repo) Verify() (*VerifyResult, error) {
	report, err := r.Store.Verify()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	roots, err := r.refRoots()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	reachable, missing, err := r.Store.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	commits := make(map[object.Hash]bool)
	for h := range reachable {
		if objType, _, err := r.Store.Read(h); err == nil && objType == object.TypeCommit {
			commits[h] = true
		}
	}
	return &VerifyResult{
		Objects:   report,
		Roots:     roots,
		Reachable: len(reachable),
		Missing:   missing,
		Commits:   commits,
	}, nil
}

// refRoots returns the HEAD commit plus the targets of every branch, tag
// and remote-tracking branch.
func (r *Repo) refRoots() ([]object.Hash, error) {
	var roots []object.Hash
	head, ok, err := r.Refs.ResolveHead()
	if err != nil {
		return nil, err
	}
	if ok {
		roots = append(roots, head)
	}
	for _, t := range []refs.RefType{refs.Branch, refs.Tag, refs.RemoteBranch} {
		list, err := r.Refs.List(t)
		if err != nil {
			return nil, err
		}
		for _, ref := range list {
			roots = append(roots, ref.Hash)
		}
	}
	return roots, nil
}
