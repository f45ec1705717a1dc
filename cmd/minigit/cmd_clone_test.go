package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/minigit/pkg/repo"
)

// serveRepo exposes src over dumb HTTP: a plain-text ref listing at
// info/refs and the loose object directory under objects/.
func serveRepo(t *testing.T, src *repo.Repo, refLines string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/src/info/refs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("service"); got != "git-upload-pack" {
			http.Error(w, "bad service "+got, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, refLines)
	})
	mux.Handle("/src/objects/", http.StripPrefix("/src/", http.FileServer(http.Dir(src.MetaDir))))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCloneCmdChecksOutDefaultBranch(t *testing.T) {
	src := setupRepo(t)
	commitCmdFile(t, src, "README.md", "hello\n", "first")
	head := commitCmdFile(t, src, "pkg/lib.go", "package lib\n", "second")
	srv := serveRepo(t, src, fmt.Sprintf("%s\trefs/heads/main\n%s\trefs/tags/v1\n", head, head))

	dest := filepath.Join(t.TempDir(), "clone")
	out, err := runCmd(t, newCloneCmd(), srv.URL+"/src", dest)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if !strings.Contains(out, "on branch 'main'") {
		t.Fatalf("clone output = %q", out)
	}

	for name, want := range map[string]string{"README.md": "hello\n", "pkg/lib.go": "package lib\n"} {
		data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if string(data) != want {
			t.Fatalf("%s = %q, want %q", name, data, want)
		}
	}

	r, err := repo.Open(dest)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	log, err := r.Log(0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(log.Entries) != 2 || log.Entries[0].Hash != head {
		t.Fatalf("cloned log = %+v", log.Entries)
	}
	url, err := r.RemoteURL("origin")
	if err != nil {
		t.Fatalf("RemoteURL: %v", err)
	}
	if url != srv.URL+"/src" {
		t.Fatalf("origin url = %q", url)
	}
	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "v1" {
		t.Fatalf("tags = %+v", tags)
	}
}

func TestCloneCmdUnknownBranch(t *testing.T) {
	src := setupRepo(t)
	head := commitCmdFile(t, src, "a.txt", "a\n", "first")
	srv := serveRepo(t, src, fmt.Sprintf("%s\trefs/heads/main\n", head))

	dest := filepath.Join(t.TempDir(), "clone")
	if _, err := runCmd(t, newCloneCmd(), "-b", "nope", srv.URL+"/src", dest); err == nil {
		t.Fatalf("expected error for a missing remote branch")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("destination created on failure: %v", err)
	}
}

func TestCloneCmdRefusesNonEmptyDestination(t *testing.T) {
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "x"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := runCmd(t, newCloneCmd(), "http://127.0.0.1:1/src", dest); err == nil {
		t.Fatalf("expected error for non-empty destination")
	}
}

func TestCloneDirName(t *testing.T) {
	tests := map[string]string{
		"https://example.com/team/project.git": "project",
		"https://example.com/team/project/":    "project",
		"https://example.com":                  "",
	}
	for in, want := range tests {
		if got := cloneDirName(in); got != want {
			t.Errorf("cloneDirName(%q) = %q, want %q", in, got, want)
		}
	}
}
