package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/odvcencio/minigit/pkg/lockfile"
	"github.com/odvcencio/minigit/pkg/object"
)

// signature opens every index file.
var signature = [4]byte{'D', 'I', 'R', 'C'}

// maxRecordSize bounds a single entry record when decoding.
const maxRecordSize = 1 << 20

// encMode uses Core Deterministic Encoding so an unchanged index
// serializes to identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("index: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: 16, MaxMapPairs: 32}.DecMode()
	if err != nil {
		panic("index: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes ix as
//
//	"DIRC" | version u32 | count u32 | (len u32 | CBOR entry)*
//
// with big-endian integers and entries sorted by path. The version is
// written as given; New sets it to the current format.
func Marshal(ix *Index) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(signature[:])
	binary.Write(&buf, binary.BigEndian, ix.Version)
	binary.Write(&buf, binary.BigEndian, uint32(len(ix.Entries)))
	for _, e := range ix.Sorted() {
		rec, err := encMode.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal index entry %q: %w", e.Path, err)
		}
		binary.Write(&buf, binary.BigEndian, uint32(len(rec)))
		buf.Write(rec)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes bytes produced by Marshal. Empty input yields an empty
// index at the current version.
func Unmarshal(data []byte) (*Index, error) {
	if len(data) == 0 {
		return New(), nil
	}
	if len(data) < 12 {
		return nil, fmt.Errorf("unmarshal index: %w: truncated header", object.ErrMalformed)
	}
	if !bytes.Equal(data[:4], signature[:]) {
		return nil, fmt.Errorf("unmarshal index: %w: bad signature %q", object.ErrMalformed, data[:4])
	}
	ix := &Index{
		Version: binary.BigEndian.Uint32(data[4:8]),
		Entries: make(map[string]Entry),
	}
	count := binary.BigEndian.Uint32(data[8:12])
	rest := data[12:]
	for i := uint32(0); i < count; i++ {
		if len(rest) < 4 {
			return nil, fmt.Errorf("unmarshal index: %w: entry %d: truncated length", object.ErrMalformed, i)
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if n > maxRecordSize || uint32(len(rest)) < n {
			return nil, fmt.Errorf("unmarshal index: %w: entry %d: record length %d", object.ErrMalformed, i, n)
		}
		var e Entry
		if err := decMode.Unmarshal(rest[:n], &e); err != nil {
			return nil, fmt.Errorf("unmarshal index: %w: entry %d: %v", object.ErrMalformed, i, err)
		}
		rest = rest[n:]
		if e.Path == "" {
			return nil, fmt.Errorf("unmarshal index: %w: entry %d: empty path", object.ErrMalformed, i)
		}
		if e.Stage > StageTheirs {
			return nil, fmt.Errorf("unmarshal index: %w: entry %q: stage %d", object.ErrMalformed, e.Path, e.Stage)
		}
		ix.Entries[e.Path] = e
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("unmarshal index: %w: %d trailing bytes", object.ErrMalformed, len(rest))
	}
	return ix, nil
}

// Load reads the index file at path. A missing file is an empty index.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("load index: %w", err)
	}
	ix, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	return ix, nil
}

// Save writes ix to path through path.lock and an atomic rename.
func Save(path string, ix *Index) error {
	data, err := Marshal(ix)
	if err != nil {
		return err
	}
	if err := lockfile.WriteFile(path, data); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}
