package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/minigit/pkg/refs"
)

func TestCreateBranch_AtHead(t *testing.T) {
	r := initRepo(t)
	head := commitFile(t, r, "a.txt", "a\n", "first")

	if err := r.CreateBranch("feature", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	got, err := r.Refs.ReadRef(refs.Branch, "feature")
	if err != nil {
		t.Fatalf("ReadRef(feature): %v", err)
	}
	if got != head {
		t.Errorf("feature = %s, want %s", got, head)
	}

	if err := r.CreateBranch("feature", ""); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate CreateBranch error = %v, want already exists", err)
	}

	branches, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	var names []string
	for _, b := range branches {
		names = append(names, b.Name)
	}
	if strings.Join(names, ",") != "feature,main" {
		t.Errorf("branches = %v, want [feature main]", names)
	}
}

func TestCreateBranch_UnbornHead(t *testing.T) {
	r := initRepo(t)
	if err := r.CreateBranch("feature", ""); err == nil {
		t.Fatal("CreateBranch on unborn HEAD succeeded")
	}
}

func TestCreateBranch_RejectsInvalidName(t *testing.T) {
	r := initRepo(t)
	commitFile(t, r, "a.txt", "a\n", "first")
	if err := r.CreateBranch("feature/..", ""); err == nil {
		t.Error("CreateBranch accepted an invalid name")
	}
}

func TestDeleteBranch(t *testing.T) {
	r := initRepo(t)
	commitFile(t, r, "a.txt", "a\n", "first")
	if err := r.CreateBranch("feature", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	if err := r.DeleteBranch("main"); err == nil {
		t.Error("deleting the current branch succeeded")
	}
	if err := r.DeleteBranch("feature"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.MetaDir, "refs", "heads", "feature")); !os.IsNotExist(err) {
		t.Errorf("feature ref still present: %v", err)
	}
}

func TestSwitchBranch_MovesHeadOnly(t *testing.T) {
	r := initRepo(t)
	commitFile(t, r, "a.txt", "a\n", "first")
	if err := r.CreateBranch("feature", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.SwitchBranch("feature"); err != nil {
		t.Fatalf("SwitchBranch: %v", err)
	}
	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "feature" {
		t.Errorf("CurrentBranch = %q, want feature", branch)
	}
	if err := r.SwitchBranch("missing"); err == nil {
		t.Error("SwitchBranch(missing) succeeded")
	}
}

func TestCommit_DoubledPrefixHead(t *testing.T) {
	r := initRepo(t)
	first := commitFile(t, r, "a.txt", "a\n", "first")
	if err := os.WriteFile(filepath.Join(r.MetaDir, "HEAD"), []byte("ref: refs/heads/refs/heads/main\n"), 0o644); err != nil {
		t.Fatalf("WriteFile(HEAD): %v", err)
	}

	if got := mustHead(t, r); got != first {
		t.Errorf("HEAD = %s, want %s", got, first)
	}
	second := commitFile(t, r, "a.txt", "b\n", "second")
	main, err := r.Refs.ReadRef(refs.Branch, "main")
	if err != nil {
		t.Fatalf("ReadRef(main): %v", err)
	}
	if main != second {
		t.Errorf("main = %s, want %s", main, second)
	}
}

func TestCreateTag(t *testing.T) {
	r := initRepo(t)
	first := commitFile(t, r, "a.txt", "a\n", "first")
	second := commitFile(t, r, "a.txt", "b\n", "second")

	if err := r.CreateTag("v1.0", first, false); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := r.CreateTag("v1.0", second, false); err == nil {
		t.Error("CreateTag overwrote an existing tag without force")
	}
	if err := r.CreateTag("v1.0", second, true); err != nil {
		t.Fatalf("CreateTag(force): %v", err)
	}
	if err := r.CreateTag("latest", "", false); err != nil {
		t.Fatalf("CreateTag(HEAD): %v", err)
	}

	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %+v, want 2", tags)
	}
	for _, tag := range tags {
		if tag.Hash != second {
			t.Errorf("tag %s = %s, want %s", tag.Name, tag.Hash, second)
		}
	}
}

func TestCreateTag_MissingObject(t *testing.T) {
	r := initRepo(t)
	commitFile(t, r, "a.txt", "a\n", "first")
	if err := r.CreateTag("ghost", "0123456789abcdef0123456789abcdef01234567", false); err == nil {
		t.Fatal("CreateTag accepted a missing object")
	}
}
