package imagepipe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scraper-llm/internal/logging"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		page, ref, want string
	}{
		{"https://example.com/shop/list", "/img/a.jpg", "https://example.com/img/a.jpg"},
		{"https://example.com/shop/list", "a.jpg", "https://example.com/shop/a.jpg"},
		{"https://example.com/", "https://cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"https://example.com/", "//cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"https://example.com/", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.page, tt.ref))
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		url, contentType, want string
	}{
		{"https://x.com/a/photo.jpeg", "image/webp", "photo.webp"},
		{"https://x.com/a/photo", "image/avif", "photo.avif"},
		{"https://x.com/a/photo.PNG", "image/jpeg; charset=binary", "photo.jpg"},
		{"https://x.com/a/photo.gif", "application/octet-stream", "photo.gif"},
		{"https://x.com/a/photo", "text/plain", "photo"},
		{"https://x.com/", "image/png", "image.png"},
		{"https://x.com/a/..%2F..%2Fetc%2Fpasswd", "", "passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.url, tt.contentType))
		})
	}
}

func newTestPipeline(t *testing.T, dir string) (*Pipeline, *[]time.Duration) {
	t.Helper()
	p := New(Options{Dir: dir, Pause: 400 * time.Millisecond, Logger: logging.Discard()})
	var pauses []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) { pauses = append(pauses, d) }
	return p, &pauses
}

func TestDownload(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch r.URL.Path {
		case "/img/shoe.jpeg":
			w.Header().Set("Content-Type", "image/webp")
			w.Write([]byte("webp-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	p, pauses := newTestPipeline(t, dir)
	ctx := context.Background()

	ref := p.Download(ctx, srv.URL+"/img/shoe.jpeg")
	assert.Equal(t, "/images/shoe.webp", ref)
	data, err := os.ReadFile(filepath.Join(dir, "shoe.webp"))
	require.NoError(t, err)
	assert.Equal(t, "webp-bytes", string(data))
	assert.Equal(t, []time.Duration{400 * time.Millisecond}, *pauses)

	// Existing files are not rewritten and do not pause again
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shoe.webp"), []byte("original"), 0o644))
	assert.Equal(t, "/images/shoe.webp", p.Download(ctx, srv.URL+"/img/shoe.jpeg"))
	data, err = os.ReadFile(filepath.Join(dir, "shoe.webp"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	assert.Len(t, *pauses, 1)

	missing := srv.URL + "/img/missing.png"
	assert.Equal(t, missing, p.Download(ctx, missing))
	assert.Equal(t, 3, hits)

	assert.Equal(t, "not a url", p.Download(ctx, "not a url"))
}

func TestDownloadRejectsOversizedImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 5000))
	}))
	defer srv.Close()

	dir := t.TempDir()
	p := New(Options{Dir: dir, MaxSize: 1000, Logger: logging.Discard()})
	p.sleep = func(context.Context, time.Duration) {}

	remote := srv.URL + "/big.png"
	assert.Equal(t, remote, p.Download(context.Background(), remote))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	exact := New(Options{Dir: dir, MaxSize: 5000, Logger: logging.Discard()})
	exact.sleep = func(context.Context, time.Duration) {}
	assert.Equal(t, "/images/big.png", exact.Download(context.Background(), remote))
}
