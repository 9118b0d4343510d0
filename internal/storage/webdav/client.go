// Package webdav implements a photo uploader speaking plain WebDAV over
// HTTP. It covers generic DAV servers and doubles as the transport for NAS
// devices configured in webdav mode.
package webdav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fieldops/fieldlog/internal/common"
	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/httpx"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/pathx"
	"github.com/fieldops/fieldlog/internal/storage"
)

const checkTimeout = 3 * time.Second

// Client is a PhotoUploader for a WebDAV share.
type Client struct {
	http     *http.Client
	baseURL  string
	basePath string
	auth     string
	name     string
	log      logging.Logger
}

// NewClient builds a WebDAV uploader from cfg.
func NewClient(cfg *config.WebDAVConfig, log logging.Logger) *Client {
	return &Client{
		http:     httpx.NewClient(httpx.DefaultTimeout),
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		basePath: strings.Trim(cfg.BasePath, "/"),
		auth:     httpx.BasicAuth(cfg.Username, cfg.Password),
		name:     storage.BackendWebDAV,
		log:      log,
	}
}

// NewNASClient is NewClient for a NAS in webdav mode; only the reported
// backend name differs.
func NewNASClient(cfg *config.WebDAVConfig, log logging.Logger) *Client {
	c := NewClient(cfg, log)
	c.name = storage.BackendNAS
	return c
}

// Name reports the backend name used in metadata and diagnostics.
func (c *Client) Name() string {
	return c.name
}

// Check issues a PROPFIND with Depth 0 against the base path. 200 and 207
// both count as healthy; anything else, including a timeout, does not.
func (c *Client) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "PROPFIND", c.collectionURL(nil), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Depth", "0")

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusMultiStatus
}

// Upload ensures the key's directory chain exists, then PUTs data. The
// returned reference is the file's full URL.
func (c *Client) Upload(ctx context.Context, data []byte, key pathx.Key) (string, error) {
	c.ensureDirs(ctx, key.Segments())

	fileURL := c.fileURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fileURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("put %s: %w: %w", key.Path(), common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("put %s: unexpected status %d: %w", key.Path(), resp.StatusCode, common.ErrUnavailable)
	}

	return fileURL, nil
}

// Exists reports whether a file is still present on the share, using a
// PROPFIND with Depth 0 under the check deadline. A 404 means the file is
// gone; transport failures and unexpected statuses come back as errors so a
// scan can mark the share unreachable instead of flagging every reference.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "PROPFIND", c.objectURL(key), nil)
	if err != nil {
		return false, fmt.Errorf("build propfind request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Depth", "0")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("propfind %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMultiStatus:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("propfind %s: unexpected status %d", key, resp.StatusCode)
	}
}

// KeyFromURL reverses an upload reference back into its key. ok=false means
// the reference lives outside this share's base URL and path.
func (c *Client) KeyFromURL(ref string) (string, bool) {
	prefix := c.baseURL + "/"
	if c.basePath != "" {
		prefix += c.basePath + "/"
	}
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}

	segments := strings.Split(strings.TrimPrefix(ref, prefix), "/")
	for i, seg := range segments {
		unescaped, err := url.PathUnescape(seg)
		if err != nil {
			return "", false
		}
		segments[i] = unescaped
	}
	return strings.Join(segments, "/"), true
}

// ensureDirs walks the directory chain issuing MKCOL per level. 201 means
// created, 405 means it already existed; other failures are logged and
// skipped, since many servers create intermediate collections on PUT anyway.
func (c *Client) ensureDirs(ctx context.Context, segments []string) {
	for i := range segments {
		dirURL := c.collectionURL(segments[:i+1])

		req, err := http.NewRequestWithContext(ctx, "MKCOL", dirURL, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Authorization", c.auth)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Debug(ctx, "mkcol failed, continuing", "url", dirURL, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusMethodNotAllowed {
			c.log.Debug(ctx, "mkcol unexpected status, continuing", "url", dirURL, "status", resp.StatusCode)
		}
	}
}

// collectionURL joins base URL, base path and the given directory segments,
// escaping each segment.
func (c *Client) collectionURL(segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	if c.basePath != "" {
		parts = append(parts, c.basePath)
	}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	if len(parts) == 0 {
		return c.baseURL + "/"
	}
	return c.baseURL + "/" + strings.Join(parts, "/")
}

func (c *Client) fileURL(key pathx.Key) string {
	return c.collectionURL(key.Segments()) + "/" + url.PathEscape(key.FileName)
}

// objectURL is fileURL for a key already flattened to a slash-joined string.
func (c *Client) objectURL(key string) string {
	parts := make([]string, 0, 8)
	if c.basePath != "" {
		parts = append(parts, c.basePath)
	}
	for _, seg := range strings.Split(key, "/") {
		parts = append(parts, url.PathEscape(seg))
	}
	return c.baseURL + "/" + strings.Join(parts, "/")
}
