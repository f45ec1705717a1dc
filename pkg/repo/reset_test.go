package repo

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/odvcencio/minigit/pkg/object"
)

func TestReset_RestoresHeadEntry(t *testing.T) {
	r := initRepo(t)
	commitFile(t, r, "a.txt", "a\n", "first")
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), []byte("changed\n"))
	if _, err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	changed, err := r.Reset([]string{"a.txt"})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !reflect.DeepEqual(changed, []string{"a.txt"}) {
		t.Errorf("changed = %v, want [a.txt]", changed)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	entry, _ := ix.Get("a.txt")
	if want := object.HashObject(object.TypeBlob, []byte("a\n")); entry.Hash != want {
		t.Errorf("index hash = %s, want HEAD blob %s", entry.Hash, want)
	}
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.StagedModified) != 0 || !reflect.DeepEqual(st.Modified, []string{"a.txt"}) {
		t.Errorf("status after reset = %+v", st)
	}
}

func TestReset_DropsNewPath(t *testing.T) {
	r := initRepo(t)
	commitFile(t, r, "a.txt", "a\n", "first")
	writeFile(t, filepath.Join(r.RootDir, "dir", "new.txt"), []byte("new\n"))
	if _, err := r.Add([]string{"dir"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	changed, err := r.Reset([]string{"dir"})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !reflect.DeepEqual(changed, []string{"dir/new.txt"}) {
		t.Errorf("changed = %v", changed)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if _, ok := ix.Get("dir/new.txt"); ok {
		t.Error("dir/new.txt still staged")
	}
}

func TestReset_AllAndUnmatched(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", []byte("a\n"))
	if _, err := r.Reset([]string{"zzz"}); err == nil {
		t.Error("Reset(zzz) succeeded")
	}
	if _, err := r.Reset(nil); err != nil {
		t.Fatalf("Reset(nil): %v", err)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if !ix.IsEmpty() {
		t.Errorf("index has %d entries after full reset on unborn branch", ix.Len())
	}
}
