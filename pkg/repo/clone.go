package repo

import (
	"fmt"
	"sort"

	"github.com/odvcencio/minigit/pkg/diff"
	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

// RemoteState is the ref advertisement of a remote after its objects have
// been fetched.
type RemoteState struct {
	Name          string
	URL           string
	Branches      map[string]object.Hash
	Tags          map[string]object.Hash
	DefaultBranch string
}

// ApplyResult reports what ApplyRemote wrote.
type ApplyResult struct {
	RemoteBranches []string
	Tags           []string
	// CheckedOut is the local branch created from the default branch, or
	// empty when its commit was not available.
	CheckedOut string
}

// ApplyRemote records state as remote-tracking branches and tags, stores
// the remote URL in config and, when the default branch's commit is
// present locally, creates that branch, points HEAD at it and checks it
// out. Tags whose objects are absent are skipped.
func (r *Repo) ApplyRemote(state RemoteState) (*ApplyResult, error) {
	if state.Name == "" {
		state.Name = "origin"
	}
	if err := r.SetRemote(state.Name, state.URL); err != nil {
		return nil, fmt.Errorf("apply remote: %w", err)
	}

	res := &ApplyResult{}
	for _, name := range sortedKeys(state.Branches) {
		ref := refs.Ref{Name: state.Name + "/" + name, Hash: state.Branches[name], Type: refs.RemoteBranch}
		if err := r.Refs.WriteRef(ref); err != nil {
			return nil, fmt.Errorf("apply remote: %w", err)
		}
		res.RemoteBranches = append(res.RemoteBranches, ref.Name)
	}
	for _, name := range sortedKeys(state.Tags) {
		h := state.Tags[name]
		if !r.Store.Has(h) {
			r.logger.Warn("skipping tag without local object", "tag", name, "hash", string(h))
			continue
		}
		if err := r.Refs.WriteRef(refs.Ref{Name: name, Hash: h, Type: refs.Tag}); err != nil {
			return nil, fmt.Errorf("apply remote: %w", err)
		}
		res.Tags = append(res.Tags, name)
	}

	branch := state.DefaultBranch
	target, ok := state.Branches[branch]
	if branch == "" || !ok {
		return res, nil
	}
	commit, err := r.Store.ReadCommit(target)
	if err != nil {
		r.logger.Warn("default branch commit not available; leaving HEAD unborn", "branch", branch, "error", err)
		return res, nil
	}
	snap, err := diff.FromTree(r.Store, commit.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("apply remote: %w", err)
	}
	if err := r.Refs.WriteRef(refs.Ref{Name: branch, Hash: target, Type: refs.Branch}); err != nil {
		return nil, fmt.Errorf("apply remote: %w", err)
	}
	head, err := refs.BranchHead(branch)
	if err != nil {
		return nil, fmt.Errorf("apply remote: %w", err)
	}
	if err := r.Refs.WriteHead(head); err != nil {
		return nil, fmt.Errorf("apply remote: %w", err)
	}
	if err := r.materialize(snap); err != nil {
		return nil, fmt.Errorf("apply remote: checkout %s: %w", branch, err)
	}
	r.appendReflog(head.Target, "", target, "clone: from "+state.URL)
	r.appendReflog("HEAD", "", target, "clone: from "+state.URL)
	res.CheckedOut = branch
	return res, nil
}

func sortedKeys(m map[string]object.Hash) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
