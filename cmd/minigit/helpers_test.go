package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/repo"
	"github.com/spf13/cobra"
)

func chdirForTest(t *testing.T, dir string) func() {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	return func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore cwd %s: %v", wd, err)
		}
	}
}

// runCmd executes cmd with args and returns what it wrote to stdout.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// setupRepo initializes a repository with a configured identity in a temp
// dir and makes it the working directory for the rest of the test.
func setupRepo(t *testing.T) *repo.Repo {
	t.Helper()
	dir := t.TempDir()
	r, err := repo.Init(dir, repo.InitOptions{})
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}
	if err := r.SetUser("Tess Ter", "tess@example.com"); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	t.Cleanup(chdirForTest(t, dir))
	return r
}

func writeCmdFile(t *testing.T, r *repo.Repo, name, content string) {
	t.Helper()
	path := filepath.Join(r.RootDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// commitCmdFile writes, stages and commits one file through the repo API.
func commitCmdFile(t *testing.T, r *repo.Repo, name, content, message string) object.Hash {
	t.Helper()
	writeCmdFile(t, r, name, content)
	if _, err := r.Add([]string{name}); err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	res, err := r.Commit(message, repo.CommitOptions{})
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return res.Hash
}
