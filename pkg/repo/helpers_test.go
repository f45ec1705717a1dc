package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/minigit/pkg/object"
)

var testAuthor = object.Signature{Name: "Test Author", Email: "test@example.com", Timestamp: 1700000000}

func initRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

// initRepoWithFile creates a repository with name written and staged.
func initRepoWithFile(t *testing.T, name string, content []byte) *Repo {
	t.Helper()
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, name), content)
	if _, err := r.Add([]string{name}); err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return r
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file %q to exist: %v", path, err)
		return
	}
	if info.IsDir() {
		t.Errorf("%q exists but is a directory, expected file", path)
	}
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory %q to exist: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("%q exists but is not a directory", path)
	}
}

// commitFile writes, stages and commits name with a fixed author.
func commitFile(t *testing.T, r *Repo, name, content, message string) object.Hash {
	t.Helper()
	writeFile(t, filepath.Join(r.RootDir, name), []byte(content))
	if _, err := r.Add([]string{name}); err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return mustCommit(t, r, message)
}

func mustCommit(t *testing.T, r *Repo, message string) object.Hash {
	t.Helper()
	author := testAuthor
	res, err := r.Commit(message, CommitOptions{Author: &author})
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return res.Hash
}

func mustHead(t *testing.T, r *Repo) object.Hash {
	t.Helper()
	h, ok, err := r.Refs.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	if !ok {
		t.Fatal("HEAD is unborn")
	}
	return h
}
