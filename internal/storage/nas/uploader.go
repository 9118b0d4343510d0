// Package nas implements the NAS photo backend. A NAS can be reached three
// ways: as a plain WebDAV share, through a custom HTTP upload endpoint, or
// through the Synology File Station API. The method is chosen by
// configuration; all three place files under the same synthesized hierarchy.
package nas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/fieldops/fieldlog/internal/common"
	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/httpx"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/pathx"
	"github.com/fieldops/fieldlog/internal/storage"
	"github.com/fieldops/fieldlog/internal/storage/webdav"
)

const checkTimeout = 5 * time.Second

// Uploader is a PhotoUploader for a NAS device.
type Uploader struct {
	http         *http.Client
	baseURL      string
	method       string
	httpEndpoint string
	httpToken    string
	apiUser      string
	apiPass      string
	targetFolder string
	dav          *webdav.Client
	log          logging.Logger
}

// NewUploader builds a NAS uploader from cfg. In webdav mode uploads and
// checks delegate to a WebDAV client rooted at the target folder.
func NewUploader(cfg *config.NASConfig, log logging.Logger) *Uploader {
	u := &Uploader{
		http:         httpx.NewClient(httpx.DefaultTimeout),
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		method:       cfg.Method,
		httpEndpoint: cfg.HTTPEndpoint,
		httpToken:    cfg.HTTPToken,
		apiUser:      cfg.APIUser,
		apiPass:      cfg.APIPass,
		targetFolder: "/" + strings.Trim(cfg.TargetFolder, "/"),
		log:          log,
	}

	if cfg.Method == config.NASMethodWebDAV {
		u.dav = webdav.NewNASClient(&config.WebDAVConfig{
			URL:      cfg.URL,
			Username: cfg.APIUser,
			Password: cfg.APIPass,
			BasePath: cfg.TargetFolder,
		}, log)
	}

	return u
}

// Name reports the backend name used in metadata and diagnostics.
func (u *Uploader) Name() string {
	return storage.BackendNAS
}

// Upload dispatches to the configured method.
func (u *Uploader) Upload(ctx context.Context, data []byte, key pathx.Key) (string, error) {
	switch u.method {
	case config.NASMethodWebDAV:
		return u.dav.Upload(ctx, data, key)
	case config.NASMethodHTTP:
		return u.uploadHTTP(ctx, data, key)
	case config.NASMethodFileStation:
		return u.uploadFileStation(ctx, data, key)
	default:
		return "", fmt.Errorf("unsupported nas upload method %q: %w", u.method, common.ErrNotConfigured)
	}
}

// KeyFromURL reverses an upload reference back into its key. References
// outside the device's target folder, including server-provided CDN URLs
// from http mode, report ok=false.
func (u *Uploader) KeyFromURL(ref string) (string, bool) {
	if u.method == config.NASMethodWebDAV {
		return u.dav.KeyFromURL(ref)
	}

	prefix := u.baseURL + u.targetFolder + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, prefix), true
}

// Exists reports whether a file is still present on the device, via a
// bounded HEAD against its URL. WebDAV mode uses the share's own check.
func (u *Uploader) Exists(ctx context.Context, key string) (bool, error) {
	if u.method == config.NASMethodWebDAV {
		return u.dav.Exists(ctx, key)
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.baseURL+u.targetFolder+"/"+key, nil)
	if err != nil {
		return false, fmt.Errorf("build head request: %w", err)
	}
	if u.httpToken != "" {
		req.Header.Set("Authorization", "Bearer "+u.httpToken)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("head %s: unexpected status %d", key, resp.StatusCode)
	}
}

// Check probes the device within a short deadline. WebDAV mode uses the
// share's own liveness check; the other modes hit the management API's
// info endpoint, which answers without authentication.
func (u *Uploader) Check(ctx context.Context) bool {
	if u.method == config.NASMethodWebDAV {
		return u.dav.Check(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	infoURL := u.baseURL + "/webapi/query.cgi?api=SYNO.API.Info&version=1&method=query&query=SYNO.API.Auth"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return false
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// uploadHTTP posts a multipart form to the custom endpoint. A JSON body
// with a url field overrides the synthesized reference.
func (u *Uploader) uploadHTTP(ctx context.Context, data []byte, key pathx.Key) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("path", key.Dir); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.WriteField("filename", key.FileName); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", key.FileName)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+u.httpEndpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.httpToken != "" {
		req.Header.Set("Authorization", "Bearer "+u.httpToken)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("nas upload %s: %w: %w", key.Path(), common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("nas upload %s: unexpected status %d: %w", key.Path(), resp.StatusCode, common.ErrUnavailable)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.URL != "" {
		return result.URL, nil
	}
	return u.fileURL(key), nil
}

type synoResponse struct {
	Success bool `json:"success"`
	Data    struct {
		SID string `json:"sid"`
	} `json:"data"`
	Error struct {
		Code int `json:"code"`
	} `json:"error"`
}

// uploadFileStation logs in for a session id, then uploads through the
// File Station API. Sessions are not cached; a field crew uploads rarely
// enough that a login per photo is simpler than tracking expiry.
func (u *Uploader) uploadFileStation(ctx context.Context, data []byte, key pathx.Key) (string, error) {
	sid, err := u.fileStationLogin(ctx)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"api", "SYNO.FileStation.Upload"},
		{"version", "2"},
		{"method", "upload"},
		{"_sid", sid},
		{"path", u.targetFolder + "/" + key.Dir},
		{"create_parents", "true"},
		{"overwrite", "true"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("build file station form: %w", err)
		}
	}
	// file part must come after the parameter fields
	fw, err := mw.CreateFormFile("file", key.FileName)
	if err != nil {
		return "", fmt.Errorf("build file station form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("build file station form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build file station form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/webapi/entry.cgi", &body)
	if err != nil {
		return "", fmt.Errorf("build file station request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("file station upload %s: %w: %w", key.Path(), common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var result synoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("file station upload %s: decode response: %w", key.Path(), err)
	}
	if !result.Success {
		return "", fmt.Errorf("file station upload %s: error code %d", key.Path(), result.Error.Code)
	}

	return u.fileURL(key), nil
}

func (u *Uploader) fileStationLogin(ctx context.Context) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"api", "SYNO.API.Auth"},
		{"version", "3"},
		{"method", "login"},
		{"account", u.apiUser},
		{"passwd", u.apiPass},
		{"session", "FileStation"},
		{"format", "sid"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("build login form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build login form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/webapi/auth.cgi", &body)
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("file station login: %w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("file station login: read response: %w", err)
	}

	var result synoResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("file station login: decode response: %w", err)
	}
	if !result.Success {
		return "", fmt.Errorf("file station login: error code %d", result.Error.Code)
	}
	return result.Data.SID, nil
}

func (u *Uploader) fileURL(key pathx.Key) string {
	return u.baseURL + u.targetFolder + "/" + key.Path()
}
