// Package diff compares two snapshots of the tracked file set and produces
// per-file classifications with line-level chunks.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/minigit/pkg/object"
)

// ChangeType classifies what happened to a path between two snapshots.
type ChangeType int

const (
	Added ChangeType = iota
	Modified
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// LineKind tags one line of a chunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Line is one line of a chunk, without its terminator.
type Line struct {
	Kind    LineKind
	Content string
}

// Chunk is a contiguous run of lines. Starts are 1-based. Counts include
// context lines on both sides.
type Chunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the comparison result for one path. OldHash is empty for
// added paths and NewHash is empty for deleted ones.
type FileDiff struct {
	Path      string
	Change    ChangeType
	OldHash   object.Hash
	NewHash   object.Hash
	Mode      object.FileMode
	Chunks    []Chunk
	Binary    bool
	Untracked bool
}

// Result aggregates the file diffs of one comparison.
type Result struct {
	Files        []FileDiff
	LinesAdded   int
	LinesRemoved int
}

// FilesChanged returns the number of paths that differ.
func (r *Result) FilesChanged() int {
	return len(r.Files)
}

// Summary renders a one-line description such as
// "2 files changed, 3 insertions, 1 deletion".
func (r *Result) Summary() string {
	if r.FilesChanged() == 0 {
		return "No changes"
	}
	parts := []string{plural(r.FilesChanged(), "file") + " changed"}
	if r.LinesAdded > 0 {
		parts = append(parts, plural(r.LinesAdded, "insertion"))
	}
	if r.LinesRemoved > 0 {
		parts = append(parts, plural(r.LinesRemoved, "deletion"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Classify reports which paths differ between from and to without reading
// any content. Paths are compared by hash only and returned sorted.
func Classify(from, to Snapshot) []FileDiff {
	paths := make(map[string]struct{}, len(from)+len(to))
	for p := range from {
		paths[p] = struct{}{}
	}
	for p := range to {
		paths[p] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var out []FileDiff
	for _, p := range sorted {
		oldEntry, inOld := from[p]
		newEntry, inNew := to[p]

		fd := FileDiff{Path: p}
		switch {
		case inNew && !inOld:
			fd.Change = Added
			fd.NewHash = newEntry.Hash
			fd.Mode = newEntry.Mode
		case inOld && !inNew:
			fd.Change = Deleted
			fd.OldHash = oldEntry.Hash
			fd.Mode = oldEntry.Mode
		case oldEntry.Hash != newEntry.Hash:
			fd.Change = Modified
			fd.OldHash = oldEntry.Hash
			fd.NewHash = newEntry.Hash
			fd.Mode = newEntry.Mode
		default:
			continue
		}
		out = append(out, fd)
	}
	return out
}

// Compare classifies every path in from and to and line-diffs the ones that
// changed.
func Compare(from, to Snapshot) (*Result, error) {
	res := &Result{Files: Classify(from, to)}
	for i := range res.Files {
		fd := &res.Files[i]

		var before, after []byte
		var err error
		if fd.Change != Added {
			if before, err = from[fd.Path].Content(); err != nil {
				return nil, fmt.Errorf("diff %s: %w", fd.Path, err)
			}
		}
		if fd.Change != Deleted {
			if after, err = to[fd.Path].Content(); err != nil {
				return nil, fmt.Errorf("diff %s: %w", fd.Path, err)
			}
		}

		if IsBinary(before) || IsBinary(after) {
			fd.Binary = true
			continue
		}
		fd.Chunks = LineDiff(string(before), string(after))
		for _, c := range fd.Chunks {
			for _, l := range c.Lines {
				switch l.Kind {
				case LineAdded:
					res.LinesAdded++
				case LineRemoved:
					res.LinesRemoved++
				}
			}
		}
	}
	return res, nil
}

// CompareWorking diffs the working tree against the staged snapshot and
// flags added paths that are unknown to the committed snapshot as
// untracked.
func CompareWorking(staged, committed, working Snapshot) (*Result, error) {
	res, err := Compare(staged, working)
	if err != nil {
		return nil, err
	}
	for i := range res.Files {
		fd := &res.Files[i]
		if fd.Change != Added {
			continue
		}
		if _, ok := committed[fd.Path]; !ok {
			fd.Untracked = true
		}
	}
	return res, nil
}

// binaryProbe is how many leading bytes IsBinary inspects.
const binaryProbe = 8192

// IsBinary reports whether data contains a NUL byte in its first 8192 bytes.
func IsBinary(data []byte) bool {
	if len(data) > binaryProbe {
		data = data[:binaryProbe]
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}
