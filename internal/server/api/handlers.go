package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldlog/internal/adapter"
	"github.com/fieldops/fieldlog/internal/common"
	"github.com/fieldops/fieldlog/internal/models"
	"github.com/fieldops/fieldlog/internal/pathx"
)

// maxPhotoBytes bounds one uploaded file in memory.
const maxPhotoBytes = 32 << 20

func respond(c *gin.Context, status int, data any, meta adapter.Meta) {
	c.JSON(status, gin.H{
		"data":     data,
		"backend":  meta.Backend,
		"degraded": meta.Degraded,
	})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func (h *Handlers) createProject(c *gin.Context) {
	var p models.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		respondError(c, http.StatusBadRequest, "invalid project payload: "+err.Error())
		return
	}
	if p.Name == "" {
		respondError(c, http.StatusBadRequest, "project name is required")
		return
	}
	if p.Status == "" {
		p.Status = models.StatusPlanning
	}

	_, meta, err := h.adapter.CreateProject(c.Request.Context(), &p)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusCreated, p, meta)
}

func (h *Handlers) listProjects(c *gin.Context) {
	projects, meta, err := h.adapter.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusOK, projects, meta)
}

func (h *Handlers) updateProject(c *gin.Context) {
	var patch models.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "invalid patch payload: "+err.Error())
		return
	}

	found, meta, err := h.adapter.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(c, http.StatusNotFound, "project not found")
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": true}, meta)
}

func (h *Handlers) deleteProject(c *gin.Context) {
	found, meta, err := h.adapter.DeleteProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": found}, meta)
}

func (h *Handlers) createPersonalRecord(c *gin.Context) {
	var r models.PersonalRecord
	if err := c.ShouldBindJSON(&r); err != nil {
		respondError(c, http.StatusBadRequest, "invalid record payload: "+err.Error())
		return
	}

	_, meta, err := h.adapter.CreatePersonalRecord(c.Request.Context(), &r)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusCreated, r, meta)
}

func (h *Handlers) listPersonalRecords(c *gin.Context) {
	records, meta, err := h.adapter.ListPersonalRecords(c.Request.Context(), c.Query("projectId"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusOK, records, meta)
}

func (h *Handlers) deletePersonalRecord(c *gin.Context) {
	found, meta, err := h.adapter.DeletePersonalRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": found}, meta)
}

type personalPhotosRequest struct {
	DeparturePhotoURL *string `json:"departurePhotoUrl"`
	ReturnPhotoURL    *string `json:"returnPhotoUrl"`
}

func (h *Handlers) setPersonalPhotos(c *gin.Context) {
	var req personalPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid photos payload: "+err.Error())
		return
	}

	found, meta, err := h.adapter.SetPersonalPhotos(c.Request.Context(), c.Param("id"), req.DeparturePhotoURL, req.ReturnPhotoURL)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(c, http.StatusNotFound, "record not found")
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": true}, meta)
}

func (h *Handlers) createCoordinatorRecord(c *gin.Context) {
	var r models.CoordinatorRecord
	if err := c.ShouldBindJSON(&r); err != nil {
		respondError(c, http.StatusBadRequest, "invalid record payload: "+err.Error())
		return
	}

	_, meta, err := h.adapter.CreateCoordinatorRecord(c.Request.Context(), &r)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusCreated, r, meta)
}

func (h *Handlers) listCoordinatorRecords(c *gin.Context) {
	records, meta, err := h.adapter.ListCoordinatorRecords(c.Request.Context(), c.Query("projectId"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusOK, records, meta)
}

func (h *Handlers) deleteCoordinatorRecord(c *gin.Context) {
	found, meta, err := h.adapter.DeleteCoordinatorRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": found}, meta)
}

type coordinatorPhotosRequest struct {
	PhotoURLs []string `json:"photoUrls"`
}

func (h *Handlers) setCoordinatorPhotos(c *gin.Context) {
	var req coordinatorPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid photos payload: "+err.Error())
		return
	}

	found, meta, err := h.adapter.SetCoordinatorPhotos(c.Request.Context(), c.Param("id"), req.PhotoURLs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(c, http.StatusNotFound, "record not found")
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": true}, meta)
}

// uploadPhotos accepts a multipart form with one or more files under the
// "file" field plus the naming inputs, and returns one result per file in
// submission order.
func (h *Handlers) uploadPhotos(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, "at least one file is required")
		return
	}

	input := pathx.Input{
		ProjectName: c.PostForm("projectName"),
		RecordKind:  pathx.RecordKind(c.PostForm("recordType")),
		PersonName:  c.PostForm("personName"),
		PhotoRole:   c.PostForm("photoType"),
		Category:    c.PostForm("category"),
		Date:        c.PostForm("date"),
		CapturedAt:  time.Now(),
	}
	if input.RecordKind != pathx.KindPersonal && input.RecordKind != pathx.KindCoordinator {
		respondError(c, http.StatusBadRequest, "recordType must be personal or coordinator")
		return
	}

	items := make([]adapter.PhotoItem, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxPhotoBytes {
			respondError(c, http.StatusRequestEntityTooLarge, "file "+fh.Filename+" is too large")
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "cannot read file "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(c, http.StatusBadRequest, "cannot read file "+fh.Filename)
			return
		}

		in := input
		in.OriginalName = fh.Filename
		items = append(items, adapter.PhotoItem{Data: data, Input: in})
	}

	results, err := h.adapter.UploadPhotos(c.Request.Context(), items, nil)
	if err != nil {
		if errors.Is(err, common.ErrPhotoTooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "photo exceeds the inline size budget, choose a smaller image")
			return
		}
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": results})
}

func (h *Handlers) storageStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.adapter.Status(c.Request.Context())})
}

func (h *Handlers) storageInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.adapter.Info()})
}

func (h *Handlers) diagnosticsScan(c *gin.Context) {
	report, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

type cleanupRequest struct {
	Confirm bool `json:"confirm"`
}

// diagnosticsCleanup re-scans and removes dangling references. The confirm
// flag is mandatory; cleanup mutates records and must never run by accident.
func (h *Handlers) diagnosticsCleanup(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		respondError(c, http.StatusBadRequest, "cleanup requires explicit confirmation")
		return
	}

	report, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	cleaned, err := h.scanner.Cleanup(c.Request.Context(), report)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cleaned": cleaned}})
}
