package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Reset unstages paths by restoring their index entries to HEAD.
//
//   - A path present in HEAD gets HEAD's blob and mode back.
//   - A path absent from HEAD is removed from the index.
//   - With no paths, the whole index is reset to HEAD.
//
// Reset never touches the working tree. It returns the paths it changed.
func (r *Repo) Reset(paths []string) ([]string, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	head, err := r.HeadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	all := make(map[string]struct{}, ix.Len()+len(head))
	for p := range ix.Entries {
		all[p] = struct{}{}
	}
	for p := range head {
		all[p] = struct{}{}
	}
	targets, err := r.resolveResetTargets(paths, all)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	var changed []string
	for _, p := range targets {
		staged, isStaged := ix.Get(p)
		committed, inHead := head[p]
		switch {
		case inHead && isStaged && staged.Hash == committed.Hash && staged.Mode == committed.Mode:
			continue
		case inHead:
			// Stat fields are zeroed so a later add rehashes the file.
			staged.Path, staged.Hash, staged.Mode = p, committed.Hash, committed.Mode
			staged.Size, staged.MTime, staged.CTime = -1, 0, 0
			ix.Add(staged)
		case isStaged:
			ix.Remove(p)
		default:
			continue
		}
		changed = append(changed, p)
	}

	if err := r.WriteIndex(ix); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return changed, nil
}

func (r *Repo) resolveResetTargets(paths []string, all map[string]struct{}) ([]string, error) {
	if len(paths) == 0 {
		return sortedPathSet(all), nil
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, err
	}

	targets := make(map[string]struct{})
	for _, raw := range paths {
		rel, err := r.relPath(wt, raw)
		if err != nil {
			return nil, err
		}
		rel = path.Clean(strings.TrimSpace(rel))

		matched := false
		for p := range all {
			if underPath(p, rel) {
				targets[p] = struct{}{}
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("path %q did not match staged or HEAD entries", raw)
		}
	}
	return sortedPathSet(targets), nil
}

func sortedPathSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
