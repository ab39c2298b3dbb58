package core

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/slobbe/fruit-jam-store/internal/cache"
	"github.com/slobbe/fruit-jam-store/internal/remote"
)

// fakeGitHub serves canned documents by path and counts requests per path.
type fakeGitHub struct {
	server *httptest.Server

	mu    sync.Mutex
	docs  map[string][]byte
	calls map[string]*atomic.Int32
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		docs:  map[string][]byte{},
		calls: map[string]*atomic.Int32{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.counter(r.URL.Path).Add(1)
		f.mu.Lock()
		body, ok := f.docs[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGitHub) counter(path string) *atomic.Int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.calls[path]
	if !ok {
		c = &atomic.Int32{}
		f.calls[path] = c
	}
	return c
}

func (f *fakeGitHub) set(path string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[path] = body
}

func (f *fakeGitHub) url(path string) string {
	return f.server.URL + path
}

func (f *fakeGitHub) endpoints() Endpoints {
	return Endpoints{
		Repo:     f.server.URL + "/repos/%s",
		Metadata: f.server.URL + "/raw/%s/%s/metadata.json",
		Icon:     f.server.URL + "/raw/%s/%s/%s",
		Release:  f.server.URL + "/repos/%s/releases/latest",
	}
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	return cache.New(t.TempDir(), remote.New(remote.Options{}, nil))
}

// buildZip returns an archive holding the given files. A name ending in "/"
// becomes a directory entry.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
