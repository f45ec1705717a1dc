package remote

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/minigit/pkg/object"
)

func init() {
	retryBackoff = time.Millisecond
}

func TestDiscoverRefs_SendsProtocolHeaders(t *testing.T) {
	body := pktLines("# service=git-upload-pack\n", "", hashA+" refs/heads/main\x00agent=x\n", "")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repo.git/info/refs", r.URL.Path)
		assert.Equal(t, "git-upload-pack", r.URL.Query().Get("service"))
		assert.Equal(t, "version=2", r.Header.Get("Git-Protocol"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	adv, err := NewClient(ClientOptions{}).DiscoverRefs(context.Background(), ts.URL+"/repo.git")
	require.NoError(t, err)
	assert.Equal(t, map[string]object.Hash{"main": hashA}, adv.Branches())
}

func TestDiscoverRefs_DecodesZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(hashB+" refs/heads/main\n"), nil)
	require.NoError(t, enc.Close())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "zstd")
		_, _ = w.Write(compressed)
	}))
	defer ts.Close()

	adv, err := NewClient(ClientOptions{}).DiscoverRefs(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, object.Hash(hashB), adv.Refs["refs/heads/main"])
}

func TestDiscoverRefs_NonSuccessStatus(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "repository not found", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewClient(ClientOptions{}).DiscoverRefs(context.Background(), ts.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Message, "repository not found")
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestDiscoverRefs_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(hashA + " refs/heads/main\n"))
	}))
	defer ts.Close()

	adv, err := NewClient(ClientOptions{MaxAttempts: 3}).DiscoverRefs(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Len(t, adv.Refs, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDiscoverRefs_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := NewClient(ClientOptions{MaxAttempts: 2}).DiscoverRefs(context.Background(), ts.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDiscoverRefs_StopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewClient(ClientOptions{MaxAttempts: 5}).DiscoverRefs(ctx, ts.URL)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDiscoverRefs_BasicAuthFromURL(t *testing.T) {
	t.Setenv("MINIGIT_TOKEN", "")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "s3cret", pass)
		_, _ = w.Write([]byte(hashA + " refs/heads/main\n"))
	}))
	defer ts.Close()

	u := "http://alice:s3cret@" + ts.Listener.Addr().String()
	_, err := NewClient(ClientOptions{}).DiscoverRefs(context.Background(), u)
	require.NoError(t, err)
}

func TestDiscoverRefs_RejectsBadURL(t *testing.T) {
	c := NewClient(ClientOptions{})
	for _, u := range []string{"", "ftp://example.com/repo", "https://"} {
		_, err := c.DiscoverRefs(context.Background(), u)
		assert.Error(t, err, u)
	}
}

// looseServer serves objects/<xx>/<rest> from an in-memory object set.
func looseServer(t *testing.T, objects map[object.Hash][]byte) *httptest.Server {
	t.Helper()
	files := make(map[string][]byte, len(objects))
	for h, raw := range objects {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, err := zw.Write(raw)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		files["/objects/"+string(h[:2])+"/"+string(h[2:])] = buf.Bytes()
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
}

func encoded(t *testing.T, obj object.Object) (object.Hash, []byte) {
	t.Helper()
	raw, err := object.Encode(obj)
	require.NoError(t, err)
	payload, err := object.MarshalPayload(obj)
	require.NoError(t, err)
	return object.HashObject(obj.Type(), payload), raw
}

func TestLooseFetcher_FetchesGraph(t *testing.T) {
	blobHash, blobRaw := encoded(t, &object.Blob{Data: []byte("hello\n")})
	treeHash, treeRaw := encoded(t, &object.TreeObj{Entries: []object.TreeEntry{
		{Mode: object.ModeRegular, Name: "hello.txt", Hash: blobHash},
	}})
	sig := object.Signature{Name: "A", Email: "a@example.com", Timestamp: 1}
	rootHash, rootRaw := encoded(t, &object.CommitObj{TreeHash: treeHash, Author: sig, Committer: sig, Message: "root"})
	tipHash, tipRaw := encoded(t, &object.CommitObj{TreeHash: treeHash, Parents: []object.Hash{rootHash}, Author: sig, Committer: sig, Message: "tip"})

	ts := looseServer(t, map[object.Hash][]byte{
		blobHash: blobRaw, treeHash: treeRaw, rootHash: rootRaw, tipHash: tipRaw,
	})
	defer ts.Close()

	f := &LooseFetcher{Client: NewClient(ClientOptions{})}
	records, err := f.Fetch(context.Background(), ts.URL, []object.Hash{tipHash}, nil)
	require.NoError(t, err)

	got := make(map[object.Hash]object.ObjectType)
	for _, r := range records {
		got[r.Hash] = r.Type
	}
	assert.Equal(t, map[object.Hash]object.ObjectType{
		tipHash:  object.TypeCommit,
		rootHash: object.TypeCommit,
		treeHash: object.TypeTree,
		blobHash: object.TypeBlob,
	}, got)

	// Objects already present are neither fetched nor walked.
	records, err = f.Fetch(context.Background(), ts.URL, []object.Hash{tipHash}, func(h object.Hash) bool { return h == rootHash || h == treeHash })
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tipHash, records[0].Hash)
}

func TestLooseFetcher_MissingObject(t *testing.T) {
	ts := looseServer(t, nil)
	defer ts.Close()

	f := &LooseFetcher{Client: NewClient(ClientOptions{})}
	_, err := f.Fetch(context.Background(), ts.URL, []object.Hash{hashA}, nil)
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestLooseFetcher_RejectsCorruptObject(t *testing.T) {
	_, raw := encoded(t, &object.Blob{Data: []byte("actual")})
	ts := looseServer(t, map[object.Hash][]byte{hashA: raw})
	defer ts.Close()

	f := &LooseFetcher{Client: NewClient(ClientOptions{})}
	_, err := f.Fetch(context.Background(), ts.URL, []object.Hash{hashA}, nil)
	assert.ErrorIs(t, err, object.ErrMalformed)
}

func TestStoreObjects_VerifiesHashes(t *testing.T) {
	store := object.NewStore(t.TempDir())
	require.NoError(t, store.Init())

	good := ObjectRecord{Type: object.TypeBlob, Data: []byte("ok")}
	good.Hash = object.HashObject(good.Type, good.Data)
	n, err := StoreObjects(store, []ObjectRecord{good})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, store.Has(good.Hash))

	bad := ObjectRecord{Hash: hashA, Type: object.TypeBlob, Data: []byte("ok")}
	_, err = StoreObjects(store, []ObjectRecord{bad})
	assert.ErrorIs(t, err, object.ErrMalformed)
}
