// Package worktree enumerates the live files under a repository root.
package worktree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/minigit/pkg/object"
)

// IgnoreFile is read from the repository root when present.
const IgnoreFile = ".gitignore"

// editorTemp lists scratch-file patterns that are never tracked.
var editorTemp = []string{"*~", "*.tmp", "*.swp", "*.swo"}

// File is one working-tree file.
type File struct {
	Path string
	Data []byte
	Mode object.FileMode
	Info fs.FileInfo
}

// Dir is a working tree rooted at Root.
type Dir struct {
	Root    string
	matcher *Matcher
}

// Open prepares a working tree rooted at root. metaDir is the name of the
// repository metadata directory, which is always skipped along with .git.
func Open(root, metaDir string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	m := NewMatcher(metaDir, ".git")
	for _, p := range editorTemp {
		m.AddPattern(p)
	}
	f, err := os.Open(filepath.Join(abs, IgnoreFile))
	switch {
	case err == nil:
		defer f.Close()
		if err := m.AddPatterns(f); err != nil {
			return nil, fmt.Errorf("worktree: read %s: %w", IgnoreFile, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("worktree: %w", err)
	}
	return &Dir{Root: abs, matcher: m}, nil
}

// Excluded reports whether the slash path is ignored.
func (d *Dir) Excluded(p string, isDir bool) bool {
	return d.matcher.Excluded(p, isDir)
}

// Paths returns every non-ignored file path under the root, sorted.
func (d *Dir) Paths() ([]string, error) {
	return d.walk(".")
}

func (d *Dir) walk(start string) ([]string, error) {
	var out []string
	base := filepath.Join(d.Root, filepath.FromSlash(start))
	err := filepath.WalkDir(base, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(d.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.matcher.Excluded(rel, entry.IsDir()) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if entry.Type().IsRegular() || entry.Type()&fs.ModeSymlink != 0 {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("worktree walk %s: %w", start, err)
	}
	sort.Strings(out)
	return out, nil
}

// Read loads one file. Symlinks yield their target as content.
func (d *Dir) Read(p string) (File, error) {
	full := filepath.Join(d.Root, filepath.FromSlash(p))
	info, err := os.Lstat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("worktree %s: %w", p, object.ErrNotFound)
		}
		return File{}, fmt.Errorf("worktree %s: %w", p, err)
	}
	f := File{Path: p, Info: info}
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(full)
		if err != nil {
			return File{}, fmt.Errorf("worktree %s: %w", p, err)
		}
		f.Data = []byte(target)
		f.Mode = object.ModeSymlink
	case info.Mode().IsRegular():
		data, err := os.ReadFile(full)
		if err != nil {
			return File{}, fmt.Errorf("worktree %s: %w", p, err)
		}
		f.Data = data
		f.Mode = object.ModeRegular
		if info.Mode().Perm()&0o111 != 0 {
			f.Mode = object.ModeExecutable
		}
	default:
		return File{}, fmt.Errorf("worktree %s: unsupported file type %s", p, info.Mode().Type())
	}
	return f, nil
}

// Files reads every non-ignored file.
func (d *Dir) Files() (map[string]File, error) {
	paths, err := d.Paths()
	if err != nil {
		return nil, err
	}
	out := make(map[string]File, len(paths))
	for _, p := range paths {
		f, err := d.Read(p)
		if err != nil {
			return nil, err
		}
		out[p] = f
	}
	return out, nil
}

// RelPath converts p, absolute or relative to the process working
// directory, into a clean slash path relative to the root. "." is the
// root itself.
func (d *Dir) RelPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(d.Root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside repository at %s", p, d.Root)
	}
	return path.Clean(rel), nil
}

// Resolve expands root-relative pathspecs into file paths: files are
// returned as-is and directories recursively. A pathspec that names
// nothing on disk is object.ErrNotFound; naming an ignored file is an
// error.
func (d *Dir) Resolve(specs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, spec := range specs {
		spec = path.Clean(filepath.ToSlash(spec))
		info, err := os.Lstat(filepath.Join(d.Root, filepath.FromSlash(spec)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("pathspec %q did not match any files: %w", spec, object.ErrNotFound)
			}
			return nil, fmt.Errorf("pathspec %q: %w", spec, err)
		}
		var matched []string
		if info.IsDir() {
			if spec != "." && d.matcher.Excluded(spec, true) {
				return nil, fmt.Errorf("pathspec %q is ignored", spec)
			}
			matched, err = d.walk(spec)
			if err != nil {
				return nil, err
			}
		} else {
			if d.matcher.Excluded(spec, false) {
				return nil, fmt.Errorf("pathspec %q is ignored", spec)
			}
			matched = []string{spec}
		}
		for _, p := range matched {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
