package object

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// CorruptObject records an object that failed verification.
type CorruptObject struct {
	Hash Hash
	Err  error
}

// VerifyReport summarizes a full scan of the store.
type VerifyReport struct {
	Checked int
	Corrupt []CorruptObject
}

// OK reports whether every scanned object verified.
func (r *VerifyReport) OK() bool {
	return len(r.Corrupt) == 0
}

// Verify loads every object, checks that its canonical bytes hash to its
// storage key and that its payload decodes. Failures are logged and
// collected; the scan continues past them.
func (s *Store) Verify() (*VerifyReport, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{}
	for _, h := range hashes {
		report.Checked++
		if err := s.verifyOne(h); err != nil {
			s.logger.Warn("corrupt object", "hash", string(h), "error", err)
			report.Corrupt = append(report.Corrupt, CorruptObject{Hash: h, Err: err})
		}
	}
	return report, nil
}

func (s *Store) verifyOne(h Hash) error {
	objType, data, err := s.Read(h)
	if err != nil {
		return err
	}
	if got := HashObject(objType, data); got != h {
		return fmt.Errorf("%w: content hashes to %s", ErrMalformed, got)
	}
	obj, err := UnmarshalPayload(objType, data)
	if err != nil {
		return err
	}
	// Canonical objects re-encode to the same bytes.
	if tr, ok := obj.(*TreeObj); ok {
		again, err := MarshalTree(tr)
		if err != nil {
			return err
		}
		if !bytes.Equal(again, data) {
			return fmt.Errorf("%w: tree entries are not in canonical order", ErrMalformed)
		}
	}
	return nil
}

// ReachableSet returns all object hashes reachable from roots by following
// commit and tree links, together with the referenced hashes that are
// missing from the store. Objects that exist but cannot be read or parsed
// are counted as reachable, logged, and not descended into; Verify reports
// them.
func (s *Store) ReachableSet(roots []Hash) (map[Hash]struct{}, []Hash, error) {
	roots = uniqueNormalizedHashes(roots)
	out := make(map[Hash]struct{}, len(roots))
	missing := make(map[Hash]struct{})

	stack := append([]Hash(nil), roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := out[h]; ok {
			continue
		}
		if !s.Has(h) {
			missing[h] = struct{}{}
			continue
		}
		out[h] = struct{}{}

		objType, data, err := s.Read(h)
		if err != nil {
			s.logger.Warn("reachable set: unreadable object", "hash", string(h), "error", err)
			continue
		}
		refs, err := referencedHashes(objType, data)
		if err != nil {
			s.logger.Warn("reachable set: unparsable object", "hash", string(h), "type", string(objType), "error", err)
			continue
		}
		stack = append(stack, refs...)
	}

	missingList := make([]Hash, 0, len(missing))
	for h := range missing {
		missingList = append(missingList, h)
	}
	sort.Slice(missingList, func(i, j int) bool { return missingList[i] < missingList[j] })
	return out, missingList, nil
}

func referencedHashes(objType ObjectType, data []byte) ([]Hash, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeCommit:
		commit, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, 1+len(commit.Parents))
		refs = append(refs, commit.TreeHash)
		refs = append(refs, commit.Parents...)
		return refs, nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			// Symlink targets are stored as blobs too.
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.TrimSpace(string(h)))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
