// Package refs persists named pointers into the commit graph and the HEAD
// pointer that selects the current one.
package refs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/minigit/pkg/object"
)

var (
	// ErrNotARepository is returned when the refs directory or HEAD is absent.
	ErrNotARepository = errors.New("not a repository")
	// ErrRefCASMismatch is returned when a ref changed under a
	// compare-and-swap update.
	ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")
)

const headsPrefix = "refs/heads/"

// RefType selects the namespace a ref lives in.
type RefType int

const (
	Branch RefType = iota
	Tag
	RemoteBranch
)

// Dir returns the namespace directory relative to the metadata root.
func (t RefType) Dir() string {
	switch t {
	case Tag:
		return "refs/tags"
	case RemoteBranch:
		return "refs/remotes"
	default:
		return "refs/heads"
	}
}

func (t RefType) String() string {
	switch t {
	case Tag:
		return "tag"
	case RemoteBranch:
		return "remote branch"
	default:
		return "branch"
	}
}

// Ref is a named pointer to an object.
type Ref struct {
	Name string
	Hash object.Hash
	Type RefType
}

// FullName returns the ref path, e.g. refs/heads/main.
func (r Ref) FullName() string {
	return r.Type.Dir() + "/" + r.Name
}

// Head is either a SymbolicHead or a DetachedHead.
type Head interface {
	fmt.Stringer
	isHead()
}

// SymbolicHead tracks a branch by its full ref path.
type SymbolicHead struct {
	Target string
}

// DetachedHead pins a specific commit.
type DetachedHead struct {
	Hash object.Hash
}

func (h SymbolicHead) String() string { return "ref: " + h.Target }
func (h DetachedHead) String() string { return string(h.Hash) }

func (SymbolicHead) isHead() {}
func (DetachedHead) isHead() {}

// BranchHead returns a SymbolicHead tracking the named branch. The name must
// be a short branch name; a name that already carries the refs/heads/
// prefix is rejected instead of producing a doubled target.
func BranchHead(name string) (SymbolicHead, error) {
	if strings.HasPrefix(name, headsPrefix) {
		return SymbolicHead{}, fmt.Errorf("branch head %q: %w: name already includes %s", name, object.ErrMalformed, headsPrefix)
	}
	if err := ValidateName(name); err != nil {
		return SymbolicHead{}, err
	}
	return SymbolicHead{Target: headsPrefix + name}, nil
}

// ValidateName rejects names that cannot be stored as a ref file path.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("ref name: %w: empty", object.ErrMalformed)
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("ref name %q: %w: leading or trailing slash", name, object.ErrMalformed)
	}
	if strings.ContainsAny(name, " \t\n\\:?*[~^") {
		return fmt.Errorf("ref name %q: %w: invalid character", name, object.ErrMalformed)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." || strings.HasSuffix(part, ".lock") {
			return fmt.Errorf("ref name %q: %w: invalid component %q", name, object.ErrMalformed, part)
		}
	}
	return nil
}
