package imagepipe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"scraper-llm/internal/logging"
)

// contentTypeExt maps image content types to the extension used on disk
var contentTypeExt = map[string]string{
	"image/webp": ".webp",
	"image/avif": ".avif",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Options configures a Pipeline
type Options struct {
	Dir       string
	URLPrefix string
	Pause     time.Duration
	MaxSize   int64
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *log.Logger
}

// Pipeline downloads remote images into a local directory and rewrites
// their references. Downloads are sequential and paced by Pause.
type Pipeline struct {
	dir       string
	urlPrefix string
	pause     time.Duration
	maxSize   int64
	userAgent string
	client    *http.Client
	logger    *log.Logger
	sleep     func(ctx context.Context, d time.Duration)
}

// New creates an image pipeline
func New(opts Options) *Pipeline {
	if opts.URLPrefix == "" {
		opts.URLPrefix = "/images/"
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 10 * 1024 * 1024
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("images")
	}
	return &Pipeline{
		dir:       opts.Dir,
		urlPrefix: opts.URLPrefix,
		pause:     opts.Pause,
		maxSize:   opts.MaxSize,
		userAgent: opts.UserAgent,
		client:    opts.Client,
		logger:    opts.Logger,
		sleep:     sleepContext,
	}
}

// Resolve makes ref absolute against pageURL; absolute refs are returned unchanged
func Resolve(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// Filename derives the local file name for rawURL: the last path segment,
// with its extension replaced according to contentType when known.
func Filename(rawURL, contentType string) string {
	name := "image"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "_"))

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem = "image"
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mapped, ok := contentTypeExt[mediaType]; ok {
		return stem + mapped
	}
	return stem + strings.ToLower(ext)
}

// Download fetches absoluteURL into the image directory and returns its local
// reference. Any failure yields the original URL unchanged.
func (p *Pipeline) Download(ctx context.Context, absoluteURL string) string {
	local, err := p.download(ctx, absoluteURL)
	if err != nil {
		p.logger.Warn("image download failed", "url", absoluteURL, "err", err)
		return absoluteURL
	}
	return local
}

func (p *Pipeline) download(ctx context.Context, absoluteURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(absoluteURL))
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid image URL: %q", absoluteURL)
	}
	cleanURL := parsed.String()

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cleanURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	name := Filename(cleanURL, resp.Header.Get("Content-Type"))
	imagePath := filepath.Join(p.dir, name)
	ref := p.urlPrefix + name

	if _, err := os.Stat(imagePath); err == nil {
		p.logger.Debug("image already exists", "path", imagePath)
		return ref, nil
	}

	tempPath := imagePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(file, io.LimitReader(resp.Body, p.maxSize+1))
	file.Close()
	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	if n > p.maxSize {
		os.Remove(tempPath)
		return "", fmt.Errorf("image exceeds %d bytes", p.maxSize)
	}
	if err := os.Rename(tempPath, imagePath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename image: %w", err)
	}

	p.logger.Debug("downloaded image", "url", cleanURL, "path", imagePath)
	p.sleep(ctx, p.pause)
	return ref, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
