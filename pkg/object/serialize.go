package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Encode returns the canonical "type len\0payload" bytes of obj.
func Encode(obj Object) ([]byte, error) {
	payload, err := MarshalPayload(obj)
	if err != nil {
		return nil, err
	}
	return append(envelopeHeader(obj.Type(), len(payload)), payload...), nil
}

// Decode parses canonical object bytes produced by Encode.
func Decode(raw []byte) (Object, error) {
	objType, payload, err := SplitEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return UnmarshalPayload(objType, payload)
}

// MarshalPayload serializes obj without its envelope header.
func MarshalPayload(obj Object) ([]byte, error) {
	switch o := obj.(type) {
	case *Blob:
		return MarshalBlob(o), nil
	case *TreeObj:
		return MarshalTree(o)
	case *CommitObj:
		return MarshalCommit(o), nil
	default:
		return nil, fmt.Errorf("marshal: unsupported object %T", obj)
	}
}

// UnmarshalPayload dispatches payload decoding on the type tag.
func UnmarshalPayload(objType ObjectType, payload []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return UnmarshalBlob(payload)
	case TypeTree:
		return UnmarshalTree(payload)
	case TypeCommit:
		return UnmarshalCommit(payload)
	default:
		return nil, fmt.Errorf("%w: unknown object type %q", ErrMalformed, objType)
	}
}

// SplitEnvelope validates the "{type} {len}\x00" header of canonical
// object bytes and returns the type and payload.
func SplitEnvelope(raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("%w: missing header terminator", ErrMalformed)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typ, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("%w: invalid header %q", ErrMalformed, header)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil || length < 0 {
		return "", nil, fmt.Errorf("%w: invalid length %q", ErrMalformed, lenStr)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrMalformed, length, len(content))
	}
	switch t := ObjectType(typ); t {
	case TypeBlob, TypeTree, TypeCommit:
		return t, content, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown object type %q", ErrMalformed, typ)
	}
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name, and each is
// written as
//
//	<octal mode> <name>\0<20 raw hash bytes>
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := SortedEntries(tr.Entries)

	var buf bytes.Buffer
	for _, e := range sorted {
		raw, err := hex.DecodeString(string(e.Hash))
		if err != nil || len(raw) != HashSize {
			return nil, fmt.Errorf("marshal tree: entry %q: %w: bad hash %q", e.Name, ErrMalformed, e.Hash)
		}
		if e.Name == "" || strings.IndexByte(e.Name, 0) >= 0 {
			return nil, fmt.Errorf("marshal tree: %w: invalid entry name %q", ErrMalformed, e.Name)
		}
		buf.WriteString(strconv.FormatUint(uint64(e.Mode), 8))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from its serialized form. The returned
// entries are sorted by Name.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: missing mode separator", ErrMalformed)
		}
		mode, err := parseTreeMode(string(data[:sp]))
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: missing name terminator", ErrMalformed)
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < HashSize {
			return nil, fmt.Errorf("unmarshal tree: %w: truncated hash for %q", ErrMalformed, name)
		}
		tr.Entries = append(tr.Entries, TreeEntry{
			Mode: mode,
			Name: name,
			Hash: Hash(hex.EncodeToString(data[:HashSize])),
		})
		data = data[HashSize:]
	}
	tr.Entries = SortedEntries(tr.Entries)
	return tr, nil
}

// SortedEntries returns a copy of entries ordered by Name.
func SortedEntries(entries []TreeEntry) []TreeEntry {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

func parseTreeMode(s string) (FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid mode %q", ErrMalformed, s)
	}
	switch m := FileMode(v); m {
	case ModeRegular, ModeExecutable, ModeSymlink, ModeDir:
		return m, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrMalformed, s)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (zero or more)
//	author NAME <EMAIL> TS
//	committer NAME <EMAIL> TS
//	signature S  (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", formatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(c.Committer))
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form. Unknown
// header keys are ignored.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: %w: missing header/message separator", ErrMalformed)
	}
	header := string(data[:idx])

	c := &CommitObj{Message: string(data[idx+2:])}
	var haveTree, haveAuthor, haveCommitter bool
	for _, line := range strings.Split(header, "\n") {
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "tree":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: tree: %w", err)
			}
			c.TreeHash = h
			haveTree = true
		case "parent":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: parent: %w", err)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = sig
			haveAuthor = true
		case "committer":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = sig
			haveCommitter = true
		case "signature":
			c.Signature = val
		}
	}

	switch {
	case !haveTree:
		return nil, fmt.Errorf("unmarshal commit: %w: missing tree", ErrMalformed)
	case !haveAuthor:
		return nil, fmt.Errorf("unmarshal commit: %w: missing author", ErrMalformed)
	case !haveCommitter:
		return nil, fmt.Errorf("unmarshal commit: %w: missing committer", ErrMalformed)
	}
	return c, nil
}

func formatSignature(s Signature) string {
	return fmt.Sprintf("%s <%s> %d", s.Name, s.Email, s.Timestamp)
}

// parseSignature reads "name <email> timestamp". The timestamp follows the
// last space and the email sits inside the last angle-bracket pair.
func parseSignature(s string) (Signature, error) {
	sp := strings.LastIndexByte(s, ' ')
	if sp < 0 {
		return Signature{}, fmt.Errorf("%w: signature %q", ErrMalformed, s)
	}
	ts, err := strconv.ParseInt(s[sp+1:], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: signature timestamp %q", ErrMalformed, s[sp+1:])
	}
	rest := s[:sp]
	lt := strings.LastIndex(rest, "<")
	if lt < 0 || !strings.HasSuffix(rest, ">") {
		return Signature{}, fmt.Errorf("%w: signature email in %q", ErrMalformed, s)
	}
	return Signature{
		Name:      strings.TrimSuffix(rest[:lt], " "),
		Email:     rest[lt+1 : len(rest)-1],
		Timestamp: ts,
	}, nil
}
