// Package index holds the staging snapshot that becomes the next commit.
package index

import (
	"fmt"
	"os"
	"sort"

	"github.com/odvcencio/minigit/pkg/object"
)

// Version is the snapshot format version written for new indexes.
const Version uint32 = 2

// Stage identifies which side of a conflict an entry records.
type Stage uint8

const (
	StageNormal Stage = iota
	StageBase
	StageOurs
	StageTheirs
)

// Entry is one staged path. UID, GID, Dev and Ino are best-effort and may
// be zero on platforms that do not expose them.
type Entry struct {
	Path  string          `cbor:"path"`
	Hash  object.Hash     `cbor:"hash"`
	Size  int64           `cbor:"size"`
	Mode  object.FileMode `cbor:"mode"`
	UID   uint32          `cbor:"uid,omitempty"`
	GID   uint32          `cbor:"gid,omitempty"`
	Dev   uint64          `cbor:"dev,omitempty"`
	Ino   uint64          `cbor:"ino,omitempty"`
	CTime int64           `cbor:"ctime"`
	MTime int64           `cbor:"mtime"`
	Stage Stage           `cbor:"stage,omitempty"`
}

// Index maps repository-relative slash paths to staged entries.
type Index struct {
	Version uint32
	Entries map[string]Entry
}

// New returns an empty index at the current format version.
func New() *Index {
	return &Index{Version: Version, Entries: make(map[string]Entry)}
}

// Add inserts or replaces the entry for e.Path.
func (ix *Index) Add(e Entry) {
	if ix.Entries == nil {
		ix.Entries = make(map[string]Entry)
	}
	ix.Entries[e.Path] = e
}

// Remove deletes path and reports whether it was staged.
func (ix *Index) Remove(path string) bool {
	_, ok := ix.Entries[path]
	delete(ix.Entries, path)
	return ok
}

// Get returns the entry for path.
func (ix *Index) Get(path string) (Entry, bool) {
	e, ok := ix.Entries[path]
	return e, ok
}

// Len returns the number of staged paths.
func (ix *Index) Len() int { return len(ix.Entries) }

// IsEmpty reports whether nothing is staged.
func (ix *Index) IsEmpty() bool { return len(ix.Entries) == 0 }

// Sorted returns the entries ordered by path.
func (ix *Index) Sorted() []Entry {
	out := make([]Entry, 0, len(ix.Entries))
	for _, e := range ix.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Tree projects the index into a flat tree whose entry names are the full
// staged paths.
func (ix *Index) Tree() *object.TreeObj {
	sorted := ix.Sorted()
	tr := &object.TreeObj{Entries: make([]object.TreeEntry, 0, len(sorted))}
	for _, e := range sorted {
		tr.Entries = append(tr.Entries, object.TreeEntry{Mode: e.Mode, Name: e.Path, Hash: e.Hash})
	}
	return tr
}

// EntryFromFileInfo builds an entry for content already stored under hash.
func EntryFromFileInfo(path string, hash object.Hash, info os.FileInfo) Entry {
	e := Entry{
		Path:  path,
		Hash:  hash,
		Size:  info.Size(),
		Mode:  ModeFromFileInfo(info),
		MTime: info.ModTime().Unix(),
		CTime: info.ModTime().Unix(),
	}
	fillStat(&e, info)
	return e
}

// ModeFromFileInfo maps filesystem permissions onto tree entry modes.
func ModeFromFileInfo(info os.FileInfo) object.FileMode {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return object.ModeSymlink
	case info.Mode().Perm()&0o111 != 0:
		return object.ModeExecutable
	default:
		return object.ModeRegular
	}
}

func (e Entry) String() string {
	return fmt.Sprintf("%06o %s %d\t%s", uint32(e.Mode), e.Hash, e.Stage, e.Path)
}
