package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/odvcencio/minigit/pkg/object"
)

// ObjectRecord is one decoded object received from a remote.
type ObjectRecord struct {
	Hash object.Hash
	Type object.ObjectType
	Data []byte
}

// Fetcher retrieves the objects reachable from wants. have reports objects
// the caller already stores; the walk does not descend into them.
type Fetcher interface {
	Fetch(ctx context.Context, remoteURL string, wants []object.Hash, have func(object.Hash) bool) ([]ObjectRecord, error)
}

// LooseFetcher fetches objects one at a time from a dumb-HTTP remote that
// serves its object directory as objects/<xx>/<38 hex>.
type LooseFetcher struct {
	Client *Client
	// MaxObjects bounds a single fetch (default 100000).
	MaxObjects int
}

// Fetch walks commits, trees and blobs from wants, downloading each
// missing object and checking that it hashes to its name.
func (f *LooseFetcher) Fetch(ctx context.Context, remoteURL string, wants []object.Hash, have func(object.Hash) bool) ([]ObjectRecord, error) {
	base, err := normalizeURL(remoteURL)
	if err != nil {
		return nil, err
	}
	if have == nil {
		have = func(object.Hash) bool { return false }
	}
	limit := f.MaxObjects
	if limit <= 0 {
		limit = 100000
	}

	var out []ObjectRecord
	seen := make(map[object.Hash]bool)
	queue := append([]object.Hash(nil), wants...)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if seen[h] || have(h) {
			continue
		}
		seen[h] = true
		if len(out) >= limit {
			return nil, fmt.Errorf("fetch: more than %d objects", limit)
		}

		rec, err := f.fetchOne(ctx, base, h)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)

		next, err := links(rec)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", h, err)
		}
		queue = append(queue, next...)
	}
	f.Client.logger.Debug("fetched loose objects", "url", remoteURL, "objects", len(out))
	return out, nil
}

func (f *LooseFetcher) fetchOne(ctx context.Context, base string, h object.Hash) (ObjectRecord, error) {
	if _, err := object.ParseHash(string(h)); err != nil {
		return ObjectRecord{}, fmt.Errorf("fetch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"objects/"+string(h[:2])+"/"+string(h[2:]), nil)
	if err != nil {
		return ObjectRecord{}, err
	}
	body, err := f.Client.get(req, responseLimitObject)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return ObjectRecord{}, fmt.Errorf("fetch %s: %w", h, object.ErrNotFound)
		}
		return ObjectRecord{}, fmt.Errorf("fetch %s: %w", h, err)
	}
	raw, err := inflateLoose(body, responseLimitObject)
	if err != nil {
		return ObjectRecord{}, fmt.Errorf("fetch %s: inflate: %w", h, err)
	}
	objType, payload, err := object.SplitEnvelope(raw)
	if err != nil {
		return ObjectRecord{}, fmt.Errorf("fetch %s: %w", h, err)
	}
	if got := object.HashObject(objType, payload); got != h {
		return ObjectRecord{}, fmt.Errorf("fetch %s: %w: content hashes to %s", h, object.ErrMalformed, got)
	}
	return ObjectRecord{Hash: h, Type: objType, Data: payload}, nil
}

// links returns the hashes an object refers to.
func links(rec ObjectRecord) ([]object.Hash, error) {
	obj, err := object.UnmarshalPayload(rec.Type, rec.Data)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *object.CommitObj:
		return append([]object.Hash{o.TreeHash}, o.Parents...), nil
	case *object.TreeObj:
		out := make([]object.Hash, 0, len(o.Entries))
		for _, e := range o.Entries {
			out = append(out, e.Hash)
		}
		return out, nil
	default:
		return nil, nil
	}
}

// ObjectWriter stores hash-verified objects.
type ObjectWriter interface {
	WriteRaw(objType object.ObjectType, data []byte, expected object.Hash) (object.Hash, error)
}

// StoreObjects writes every record through store, which rejects any
// record whose content does not hash to its name.
func StoreObjects(store ObjectWriter, records []ObjectRecord) (int, error) {
	for i, rec := range records {
		if _, err := store.WriteRaw(rec.Type, rec.Data, rec.Hash); err != nil {
			return i, fmt.Errorf("store fetched object %s: %w", rec.Hash, err)
		}
	}
	return len(records), nil
}
