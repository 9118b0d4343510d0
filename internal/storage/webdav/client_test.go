package webdav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldlog/internal/common"
	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/pathx"
)

type davRecorder struct {
	mu       sync.Mutex
	mkcols   []string
	puts     map[string][]byte
	propfind int
}

func newDAVServer(t *testing.T, mkcolStatus int) (*httptest.Server, *davRecorder) {
	t.Helper()

	rec := &davRecorder{puts: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()

		switch r.Method {
		case "PROPFIND":
			rec.propfind++
			w.WriteHeader(http.StatusMultiStatus)
		case "MKCOL":
			rec.mkcols = append(rec.mkcols, r.URL.Path)
			w.WriteHeader(mkcolStatus)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			rec.puts[r.URL.Path] = body
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func davConfig(url string) *config.WebDAVConfig {
	return &config.WebDAVConfig{
		URL:      url,
		Username: "field",
		Password: "secret",
		BasePath: "photos",
	}
}

func testKey() pathx.Key {
	return pathx.Synthesize(pathx.Input{
		ProjectName: "Shoot A",
		RecordKind:  pathx.KindPersonal,
		PersonName:  "Chen",
		PhotoRole:   pathx.RoleDeparture,
		CapturedAt:  time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
	})
}

func TestCheck(t *testing.T) {
	srv, rec := newDAVServer(t, http.StatusCreated)
	c := NewClient(davConfig(srv.URL), logging.Discard())

	assert.True(t, c.Check(context.Background()))
	assert.Equal(t, 1, rec.propfind)
}

func TestCheck_ServerDown(t *testing.T) {
	srv, _ := newDAVServer(t, http.StatusCreated)
	srv.Close()

	c := NewClient(davConfig(srv.URL), logging.Discard())
	assert.False(t, c.Check(context.Background()))
}

func TestCheck_HungServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := NewClient(davConfig(srv.URL), logging.Discard())

	start := time.Now()
	assert.False(t, c.Check(context.Background()))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestUpload_CreatesDirectoryChain(t *testing.T) {
	srv, rec := newDAVServer(t, http.StatusCreated)
	c := NewClient(davConfig(srv.URL), logging.Discard())

	ref, err := c.Upload(context.Background(), []byte("jpeg-bytes"), testKey())
	require.NoError(t, err)

	// one MKCOL per hierarchy level under the base path
	assert.Equal(t, []string{
		"/photos/Shoot A",
		"/photos/Shoot A/personal",
		"/photos/Shoot A/personal/Chen",
		"/photos/Shoot A/personal/Chen/2024-01-10",
	}, rec.mkcols)

	wantPath := "/photos/Shoot A/personal/Chen/2024-01-10/2024-01-10_09-30-00_Chen_departure-mileage.jpg"
	assert.Equal(t, []byte("jpeg-bytes"), rec.puts[wantPath])
	assert.Contains(t, ref, srv.URL)
}

func TestUpload_ExistingDirsAreFine(t *testing.T) {
	// 405 from MKCOL means the collection already exists
	srv, rec := newDAVServer(t, http.StatusMethodNotAllowed)
	c := NewClient(davConfig(srv.URL), logging.Discard())

	_, err := c.Upload(context.Background(), []byte("x"), testKey())
	require.NoError(t, err)
	assert.Len(t, rec.puts, 1)
}

func TestUpload_MkcolFailureDoesNotAbort(t *testing.T) {
	srv, rec := newDAVServer(t, http.StatusForbidden)
	c := NewClient(davConfig(srv.URL), logging.Discard())

	_, err := c.Upload(context.Background(), []byte("x"), testKey())
	require.NoError(t, err)
	assert.Len(t, rec.puts, 1)
}

func TestUpload_PutFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusInsufficientStorage)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(davConfig(srv.URL), logging.Discard())
	_, err := c.Upload(context.Background(), []byte("x"), testKey())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "507")
	assert.ErrorIs(t, err, common.ErrUnavailable)
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "PROPFIND", r.Method)
		if r.URL.Path == "/photos/a/kept.jpg" {
			w.WriteHeader(http.StatusMultiStatus)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(davConfig(srv.URL), logging.Discard())

	found, err := c.Exists(context.Background(), "a/kept.jpg")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = c.Exists(context.Background(), "a/gone.jpg")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExists_ServerDown(t *testing.T) {
	srv, _ := newDAVServer(t, http.StatusCreated)
	srv.Close()

	c := NewClient(davConfig(srv.URL), logging.Discard())
	_, err := c.Exists(context.Background(), "a/b.jpg")
	require.Error(t, err)
}

func TestKeyFromURL(t *testing.T) {
	srv, _ := newDAVServer(t, http.StatusCreated)
	c := NewClient(davConfig(srv.URL), logging.Discard())

	ref, err := c.Upload(context.Background(), []byte("x"), testKey())
	require.NoError(t, err)

	key, ok := c.KeyFromURL(ref)
	require.True(t, ok)
	assert.Equal(t, testKey().Path(), key)

	_, ok = c.KeyFromURL("https://elsewhere.invalid/photos/a.jpg")
	assert.False(t, ok)
}

func TestUpload_SendsBasicAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			gotAuth = r.Header.Get("Authorization")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(davConfig(srv.URL), logging.Discard())
	_, err := c.Upload(context.Background(), []byte("x"), testKey())
	require.NoError(t, err)

	user, pass, ok := parseBasic(t, gotAuth)
	require.True(t, ok)
	assert.Equal(t, "field", user)
	assert.Equal(t, "secret", pass)
}

func parseBasic(t *testing.T, header string) (string, string, bool) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://x/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", header)
	return req.BasicAuth()
}
