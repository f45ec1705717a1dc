package object

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// FileMode is the octal mode recorded for a tree entry.
type FileMode uint32

const (
	ModeRegular    FileMode = 0o100644
	ModeExecutable FileMode = 0o100755
	ModeSymlink    FileMode = 0o120000
	ModeDir        FileMode = 0o040000
)

// Object is one of *Blob, *TreeObj or *CommitObj.
type Object interface {
	Type() ObjectType
	isObject()
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode FileMode
	Name string
	Hash Hash
}

// TreeObj holds a list of tree entries sorted by Name.
type TreeObj struct {
	Entries []TreeEntry
}

// Signature identifies who made a commit and when.
type Signature struct {
	Name      string
	Email     string
	Timestamp int64
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	// Signature is an optional detached signature over CommitSigningPayload.
	Signature string
	Message   string
}

func (*Blob) Type() ObjectType      { return TypeBlob }
func (*TreeObj) Type() ObjectType   { return TypeTree }
func (*CommitObj) Type() ObjectType { return TypeCommit }

func (*Blob) isObject()      {}
func (*TreeObj) isObject()   {}
func (*CommitObj) isObject() {}

// IsFile reports whether entries with this mode carry blob content that
// participates in diffs.
func (m FileMode) IsFile() bool {
	return m == ModeRegular || m == ModeExecutable
}
