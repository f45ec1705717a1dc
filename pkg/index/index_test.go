package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/odvcencio/minigit/pkg/object"
)

func sampleIndex() *Index {
	ix := New()
	ix.Add(Entry{
		Path: "src/main.go", Hash: object.HashObject(object.TypeBlob, []byte("main")),
		Size: 4, Mode: object.ModeRegular, UID: 1000, GID: 1000, Dev: 64769, Ino: 123456,
		CTime: 1700000000, MTime: 1700000001,
	})
	ix.Add(Entry{
		Path: "run.sh", Hash: object.HashObject(object.TypeBlob, []byte("#!/bin/sh")),
		Size: 9, Mode: object.ModeExecutable, MTime: 5,
	})
	for _, st := range []Stage{StageBase, StageOurs, StageTheirs} {
		ix.Add(Entry{
			Path: "conflict-" + string(rune('0'+st)), Hash: object.HashObject(object.TypeBlob, []byte{byte(st)}),
			Mode: object.ModeRegular, Stage: st,
		})
	}
	return ix
}

func TestMarshalRoundTrip(t *testing.T) {
	ix := sampleIndex()
	data, err := Marshal(ix)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, ix) {
		t.Errorf("round trip:\n got %#v\nwant %#v", got, ix)
	}

	again, err := Marshal(got)
	if err != nil {
		t.Fatalf("Marshal again: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-marshal produced different bytes")
	}
}

func TestMarshalHeader(t *testing.T) {
	ix := sampleIndex()
	ix.Version = 3
	data, err := Marshal(ix)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data[:4]) != "DIRC" {
		t.Errorf("signature: got %q", data[:4])
	}
	if v := binary.BigEndian.Uint32(data[4:8]); v != 3 {
		t.Errorf("version: got %d, want 3", v)
	}
	if n := binary.BigEndian.Uint32(data[8:12]); n != uint32(ix.Len()) {
		t.Errorf("count: got %d, want %d", n, ix.Len())
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Version != 3 {
		t.Errorf("version after round trip: got %d", got.Version)
	}
}

func TestMarshalKeepsZeroVersion(t *testing.T) {
	ix := &Index{Entries: map[string]Entry{}}
	ix.Add(Entry{Path: "a.txt", Hash: object.HashObject(object.TypeBlob, []byte("a")), Mode: object.ModeRegular})
	data, err := Marshal(ix)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, ix) {
		t.Errorf("round trip:\n got %#v\nwant %#v", got, ix)
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	good, err := Marshal(sampleIndex())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	cases := map[string][]byte{
		"short header":  good[:8],
		"bad signature": append([]byte("XXXX"), good[4:]...),
		"truncated":     good[:len(good)-3],
		"trailing":      append(append([]byte(nil), good...), 0xff),
	}
	for name, data := range cases {
		if _, err := Unmarshal(data); !errors.Is(err, object.ErrMalformed) {
			t.Errorf("%s: got %v, want ErrMalformed", name, err)
		}
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	ix, err := Load(filepath.Join(t.TempDir(), "index"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ix.IsEmpty() || ix.Version != Version {
		t.Errorf("Load missing: got %#v", ix)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ix := sampleIndex()
	if err := Save(path, ix); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock left behind: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, ix) {
		t.Errorf("Save/Load mismatch")
	}
}

func TestAddReplacesAndRemove(t *testing.T) {
	ix := New()
	ix.Add(Entry{Path: "a", Size: 1})
	ix.Add(Entry{Path: "a", Size: 2})
	if ix.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", ix.Len())
	}
	if e, _ := ix.Get("a"); e.Size != 2 {
		t.Errorf("last write should win: size %d", e.Size)
	}
	if !ix.Remove("a") || ix.Remove("a") {
		t.Error("Remove: unexpected result")
	}
	if !ix.IsEmpty() {
		t.Error("IsEmpty: want true")
	}
}

func TestTreeProjectionSorted(t *testing.T) {
	ix := New()
	h := object.HashObject(object.TypeBlob, []byte("x"))
	for _, p := range []string{"z.txt", "dir/b.txt", "a.txt"} {
		ix.Add(Entry{Path: p, Hash: h, Mode: object.ModeRegular})
	}
	tr := ix.Tree()
	want := []string{"a.txt", "dir/b.txt", "z.txt"}
	if len(tr.Entries) != len(want) {
		t.Fatalf("entries: got %d", len(tr.Entries))
	}
	for i, e := range tr.Entries {
		if e.Name != want[i] || e.Hash != h || e.Mode != object.ModeRegular {
			t.Errorf("entry %d: got %+v", i, e)
		}
	}
}

func TestEntryFromFileInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tool.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	info, err := os.Lstat(path)
	if err != nil {
		t.Fatal(err)
	}
	e := EntryFromFileInfo("tool.sh", object.HashObject(object.TypeBlob, []byte("#!/bin/sh\n")), info)
	if e.Size != 10 || e.Mode != object.ModeExecutable || e.MTime == 0 {
		t.Errorf("EntryFromFileInfo: got %+v", e)
	}
}
