package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldlog/internal/adapter"
	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/diagnostics"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/storage/local"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Local.DataDir = t.TempDir()

	store, err := local.NewStore(cfg.Local.DataDir)
	require.NoError(t, err)

	a := adapter.New(cfg, logging.Discard(), nil, store, nil)
	scanner := diagnostics.NewScanner(store, nil, logging.Discard())
	return NewRouter(a, scanner, logging.Discard())
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (json.RawMessage, string, bool) {
	t.Helper()

	var envelope struct {
		Data     json.RawMessage `json:"data"`
		Backend  string          `json:"backend"`
		Degraded bool            `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data, envelope.Backend, envelope.Degraded
}

func TestProjectAndPersonalRecordFlow(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name":      "Shoot-A",
		"location":  "Taipei",
		"startDate": "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data, backend, degraded := decodeEnvelope(t, w)
	assert.Equal(t, "local", backend)
	assert.False(t, degraded)

	var project struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		CreatedAt string `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal(data, &project))
	require.NotEmpty(t, project.ID)
	assert.Equal(t, "planning", project.Status)
	assert.NotEmpty(t, project.CreatedAt)

	w = doJSON(t, r, http.MethodPost, "/api/v1/personal-records", map[string]string{
		"name":      "Chen",
		"mileage":   "42.5",
		"projectId": project.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/personal-records?projectId="+project.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data, _, _ = decodeEnvelope(t, w)
	var records []struct {
		ID        string `json:"id"`
		Mileage   string `json:"mileage"`
		CreatedAt string `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "42.5", records[0].Mileage)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEmpty(t, records[0].CreatedAt)
}

func TestCoordinatorAggregation(t *testing.T) {
	r := newTestRouter(t)

	for _, usage := range []string{"10.0", "15.5"} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/coordinator-records", map[string]string{
			"coordinatorName":  "Mia",
			"electricityUsage": usage,
			"projectId":        "p1",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/coordinator-records?projectId=p1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data, _, _ := decodeEnvelope(t, w)
	var records []struct {
		ElectricityUsage string `json:"electricityUsage"`
	}
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)

	var sum float64
	for _, rec := range records {
		v, err := strconv.ParseFloat(rec.ElectricityUsage, 64)
		require.NoError(t, err)
		sum += v
	}
	assert.InDelta(t, 25.5, sum, 1e-9)
}

func TestUpdateProject(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{"name": "Shoot-A"})
	require.Equal(t, http.StatusCreated, w.Code)
	data, _, _ := decodeEnvelope(t, w)
	var project struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &project))

	w = doJSON(t, r, http.MethodPatch, "/api/v1/projects/"+project.ID, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/v1/projects/missing", map[string]string{"status": "active"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMissingRecordIsOK(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/personal-records/nope", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data, _, _ := decodeEnvelope(t, w)
	var result struct {
		Deleted bool `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.False(t, result.Deleted)
}

func TestCreateProjectValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{"location": "Taipei"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadRequest(t *testing.T, fields map[string]string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", "capture.jpg")
	require.NoError(t, err)
	_, err = fw.Write(fileData)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func smallJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{200, 80, 30, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestUploadPhoto_InlineWithoutBackends(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := uploadRequest(t, map[string]string{
		"projectName": "Shoot-A",
		"recordType":  "personal",
		"personName":  "Chen",
		"photoType":   "departure",
	}, smallJPEG(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data []struct {
			URL  string `json:"url"`
			Meta struct {
				Backend string `json:"backend"`
			} `json:"meta"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.True(t, strings.HasPrefix(envelope.Data[0].URL, "data:image/jpeg;base64,"))
	assert.Equal(t, "inline", envelope.Data[0].Meta.Backend)
}

func TestUploadPhoto_RejectsUnknownRecordType(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := uploadRequest(t, map[string]string{
		"projectName": "Shoot-A",
		"recordType":  "mystery",
	}, smallJPEG(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorageStatus(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/storage/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			ActiveRecordBackend string `json:"activeRecordBackend"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "local", envelope.Data.ActiveRecordBackend)
}

func TestStorageInfo(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/storage/info", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Mode        string `json:"mode"`
			Description string `json:"description"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "local", envelope.Data.Mode)
	assert.NotEmpty(t, envelope.Data.Description)
}

func TestDiagnosticsCleanupRequiresConfirmation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/diagnostics/cleanup", map[string]bool{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/diagnostics/cleanup", map[string]bool{"confirm": true})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDiagnosticsScan(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/diagnostics/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			TotalReferencedPhotos int `json:"totalReferencedPhotos"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Zero(t, envelope.Data.TotalReferencedPhotos)
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/projects", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-Id"))
}
