package repo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/refs"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitOptions configures Commit.
type CommitOptions struct {
	// Author overrides the configured identity. A zero Timestamp means now.
	Author *object.Signature
	// AllowEmpty permits a commit whose tree matches its parent's.
	AllowEmpty bool
	Signer     CommitSigner
	// Now replaces time.Now for timestamps.
	Now func() time.Time
}

// CommitResult describes a created commit.
type CommitResult struct {
	Hash   object.Hash
	Tree   object.Hash
	Branch string // empty when HEAD is detached
	Files  int
	Root   bool
}

// Commit records the staged index as a new commit on top of HEAD.
//
//  1. Reject blank messages
//  2. Read the index and build its tree
//  3. Resolve HEAD for the parent, refusing a commit that changes nothing
//  4. Write the commit and advance the branch HEAD tracks (or HEAD itself
//     when detached)
func (r *Repo) Commit(message string, opts CommitOptions) (*CommitResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("commit: %w", ErrEmptyMessage)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if ix.IsEmpty() && !opts.AllowEmpty {
		return nil, fmt.Errorf("commit: %w: index is empty", ErrConflict)
	}

	treeHash, err := r.Store.WriteTree(ix.Tree())
	if err != nil {
		return nil, fmt.Errorf("commit: write tree: %w", err)
	}

	parentHash, hasParent, err := r.Refs.ResolveHead()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	var parents []object.Hash
	if hasParent {
		parent, err := r.Store.ReadCommit(parentHash)
		if err != nil {
			return nil, fmt.Errorf("commit: read parent: %w", err)
		}
		if parent.TreeHash == treeHash && !opts.AllowEmpty {
			return nil, fmt.Errorf("commit: %w: tree matches parent %s", ErrConflict, parentHash.Short())
		}
		parents = append(parents, parentHash)
	}

	author, err := r.resolveAuthor(opts)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Committer: author,
		Message:   message,
	}
	if opts.Signer != nil {
		signature, err := opts.Signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return nil, fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return nil, fmt.Errorf("commit: write commit: %w", err)
	}

	branch, onBranch, err := r.Refs.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if onBranch {
		ref := refs.Ref{Name: branch, Hash: commitHash, Type: refs.Branch}
		if err := r.Refs.CompareAndSwap(ref, parentHash); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	} else {
		if err := r.Refs.WriteHead(refs.DetachedHead{Hash: commitHash}); err != nil {
			return nil, fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	reason := "commit: "
	if !hasParent {
		reason = "commit (initial): "
	}
	reason += firstLine(message)
	if onBranch {
		r.appendReflog(refs.Ref{Name: branch, Type: refs.Branch}.FullName(), parentHash, commitHash, reason)
	}
	r.appendReflog("HEAD", parentHash, commitHash, reason)

	r.logger.Debug("created commit", "hash", string(commitHash), "tree", string(treeHash), "branch", branch)
	return &CommitResult{
		Hash:   commitHash,
		Tree:   treeHash,
		Branch: branch,
		Files:  ix.Len(),
		Root:   !hasParent,
	}, nil
}

// resolveAuthor picks the commit identity: explicit option, then config,
// then MINIGIT_AUTHOR_NAME / MINIGIT_AUTHOR_EMAIL, then $USER.
func (r *Repo) resolveAuthor(opts CommitOptions) (object.Signature, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if opts.Author != nil {
		sig := *opts.Author
		if sig.Timestamp == 0 {
			sig.Timestamp = now().Unix()
		}
		return sig, nil
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return object.Signature{}, err
	}
	name := firstNonEmpty(cfg.User.Name, os.Getenv("MINIGIT_AUTHOR_NAME"), os.Getenv("USER"), "unknown")
	email := firstNonEmpty(cfg.User.Email, os.Getenv("MINIGIT_AUTHOR_EMAIL"))
	if email == "" {
		email = strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@example.com"
	}
	return object.Signature{Name: name, Email: email, Timestamp: now().Unix()}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return line
}
