package repo

import (
	"fmt"

	"github.com/odvcencio/minigit/pkg/object"
)

// CommitReader loads commits by hash.
type CommitReader interface {
	ReadCommit(h object.Hash) (*object.CommitObj, error)
}

// LogEntry is one commit in a history walk.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// LogResult is a history walk, newest first. HasMore is true when the walk
// stopped at its limit while older commits remained.
type LogResult struct {
	Entries []LogEntry
	HasMore bool
}

// WalkFirstParent follows first-parent links from start, collecting at most
// maxCount commits (all of them when maxCount <= 0). Merge parents beyond
// the first are never visited. An object on the chain that is not a
// commit fails the walk.
func WalkFirstParent(commits CommitReader, start object.Hash, maxCount int) (*LogResult, error) {
	res := &LogResult{}
	cur := start
	for cur != "" {
		if maxCount > 0 && len(res.Entries) >= maxCount {
			res.HasMore = true
			break
		}
		c, err := commits.ReadCommit(cur)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		res.Entries = append(res.Entries, LogEntry{Hash: cur, Commit: c})
		if len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	return res, nil
}

// Log walks the first-parent history from HEAD. An unborn branch has an
// empty history.
func (r *Repo) Log(maxCount int) (*LogResult, error) {
	head, ok, err := r.Refs.ResolveHead()
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	if !ok {
		return &LogResult{}, nil
	}
	return WalkFirstParent(r.Store, head, maxCount)
}
