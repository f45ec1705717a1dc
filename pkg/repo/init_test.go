package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_CreatesLayout(t *testing.T) {
	r := initRepo(t)

	assertFile(t, filepath.Join(r.MetaDir, "HEAD"))
	assertFile(t, filepath.Join(r.MetaDir, configFile))
	for _, dir := range []string{"objects", "objects/info", "objects/pack", "refs/heads", "refs/tags"} {
		assertDir(t, filepath.Join(r.MetaDir, filepath.FromSlash(dir)))
	}

	data, err := os.ReadFile(filepath.Join(r.MetaDir, "HEAD"))
	if err != nil {
		t.Fatalf("ReadFile(HEAD): %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "ref: refs/heads/main" {
		t.Errorf("HEAD = %q, want %q", got, "ref: refs/heads/main")
	}
}

func TestInit_CustomBranch(t *testing.T) {
	r, err := Init(t.TempDir(), InitOptions{Branch: "trunk"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "trunk" {
		t.Errorf("CurrentBranch = %q, want trunk", branch)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Core.DefaultBranch != "trunk" {
		t.Errorf("core.default_branch = %q, want trunk", cfg.Core.DefaultBranch)
	}
}

func TestInit_RefusesExisting(t *testing.T) {
	r := initRepo(t)
	if _, err := Init(r.RootDir, InitOptions{}); err == nil {
		t.Fatal("second Init succeeded, want error")
	}
}

func TestOpen_SearchesParents(t *testing.T) {
	r := initRepo(t)
	sub := filepath.Join(r.RootDir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	opened, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.RootDir != r.RootDir {
		t.Errorf("RootDir = %q, want %q", opened.RootDir, r.RootDir)
	}
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Fatalf("Open error = %v, want ErrNotARepository", err)
	}
}

func TestConfig_UserAndRemote(t *testing.T) {
	r := initRepo(t)
	if err := r.SetUser(" Ada Lovelace ", "ada@example.com"); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if err := r.SetRemote("origin", "https://example.com/repo"); err != nil {
		t.Fatalf("SetRemote: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.User.Name != "Ada Lovelace" || cfg.User.Email != "ada@example.com" {
		t.Errorf("user = %+v", cfg.User)
	}
	url, err := r.RemoteURL("origin")
	if err != nil {
		t.Fatalf("RemoteURL: %v", err)
	}
	if url != "https://example.com/repo" {
		t.Errorf("RemoteURL = %q", url)
	}
	if _, err := r.RemoteURL("upstream"); err == nil {
		t.Error("RemoteURL(upstream) succeeded, want error")
	}
}

func TestConfig_RejectsInvalidTOML(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.MetaDir, configFile), []byte("[user\nname = "))
	if _, err := r.ReadConfig(); err == nil {
		t.Fatal("ReadConfig succeeded on invalid TOML")
	}
}
