package diff

import (
	"fmt"
	"path"

	"github.com/odvcencio/minigit/pkg/index"
	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/worktree"
)

// Entry is one path in a Snapshot. Content is loaded on demand so paths
// whose hashes match are never read.
type Entry struct {
	Hash object.Hash
	Mode object.FileMode
	load func() ([]byte, error)
}

// Content returns the entry's bytes.
func (e Entry) Content() ([]byte, error) {
	if e.load == nil {
		return nil, nil
	}
	return e.load()
}

// Snapshot maps slash paths to entries. Only regular and executable files
// take part in comparisons.
type Snapshot map[string]Entry

// BlobReader loads blob content by hash.
type BlobReader interface {
	ReadBlob(h object.Hash) (*object.Blob, error)
}

// TreeReader loads trees and blobs by hash.
type TreeReader interface {
	BlobReader
	ReadTree(h object.Hash) (*object.TreeObj, error)
}

func blobLoader(blobs BlobReader, h object.Hash) func() ([]byte, error) {
	return func() ([]byte, error) {
		b, err := blobs.ReadBlob(h)
		if err != nil {
			return nil, err
		}
		return b.Data, nil
	}
}

// FromIndex builds a snapshot of the staged entries.
func FromIndex(ix *index.Index, blobs BlobReader) Snapshot {
	snap := make(Snapshot, ix.Len())
	for p, e := range ix.Entries {
		if !e.Mode.IsFile() {
			continue
		}
		snap[p] = Entry{Hash: e.Hash, Mode: e.Mode, load: blobLoader(blobs, e.Hash)}
	}
	return snap
}

// FromTree flattens the tree at root into a snapshot. Directory entries are
// descended; symlinks are ignored.
func FromTree(store TreeReader, root object.Hash) (Snapshot, error) {
	snap := make(Snapshot)
	if err := flattenTree(store, root, "", snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func flattenTree(store TreeReader, h object.Hash, prefix string, snap Snapshot) error {
	tr, err := store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("flatten tree %s: %w", h, err)
	}
	for _, e := range tr.Entries {
		full := e.Name
		if prefix != "" {
			full = path.Join(prefix, e.Name)
		}
		switch {
		case e.Mode == object.ModeDir:
			if err := flattenTree(store, e.Hash, full, snap); err != nil {
				return err
			}
		case e.Mode.IsFile():
			snap[full] = Entry{Hash: e.Hash, Mode: e.Mode, load: blobLoader(store, e.Hash)}
		}
	}
	return nil
}

// FromFiles builds a snapshot of working-tree files, hashing each as a
// blob.
func FromFiles(files map[string]worktree.File) Snapshot {
	snap := make(Snapshot, len(files))
	for p, f := range files {
		if !f.Mode.IsFile() {
			continue
		}
		data := f.Data
		snap[p] = Entry{
			Hash: object.HashObject(object.TypeBlob, data),
			Mode: f.Mode,
			load: func() ([]byte, error) { return data, nil },
		}
	}
	return snap
}

// FromContent builds a snapshot from in-memory content.
func FromContent(files map[string][]byte) Snapshot {
	snap := make(Snapshot, len(files))
	for p, data := range files {
		snap[p] = Entry{
			Hash: object.HashObject(object.TypeBlob, data),
			Mode: object.ModeRegular,
			load: func() ([]byte, error) { return data, nil },
		}
	}
	return snap
}
