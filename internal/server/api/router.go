// Package api exposes the storage adapter over REST. Every data response
// carries the backend that served it and whether the operation was degraded,
// so clients can tell a cloud-backed success from a local-fallback one.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldlog/internal/adapter"
	"github.com/fieldops/fieldlog/internal/diagnostics"
	"github.com/fieldops/fieldlog/internal/logging"
)

// Handlers bundles the dependencies the route handlers share.
type Handlers struct {
	adapter *adapter.Adapter
	scanner *diagnostics.Scanner
	log     logging.Logger
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(a *adapter.Adapter, scanner *diagnostics.Scanner, log logging.Logger) *gin.Engine {
	h := &Handlers{adapter: a, scanner: scanner, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(log))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/projects", h.listProjects)
		v1.POST("/projects", h.createProject)
		v1.PATCH("/projects/:id", h.updateProject)
		v1.DELETE("/projects/:id", h.deleteProject)

		v1.GET("/personal-records", h.listPersonalRecords)
		v1.POST("/personal-records", h.createPersonalRecord)
		v1.DELETE("/personal-records/:id", h.deletePersonalRecord)
		v1.PUT("/personal-records/:id/photos", h.setPersonalPhotos)

		v1.GET("/coordinator-records", h.listCoordinatorRecords)
		v1.POST("/coordinator-records", h.createCoordinatorRecord)
		v1.DELETE("/coordinator-records/:id", h.deleteCoordinatorRecord)
		v1.PUT("/coordinator-records/:id/photos", h.setCoordinatorPhotos)

		v1.POST("/photos", h.uploadPhotos)

		v1.GET("/storage/status", h.storageStatus)
		v1.GET("/storage/info", h.storageInfo)

		v1.GET("/diagnostics/scan", h.diagnosticsScan)
		v1.POST("/diagnostics/cleanup", h.diagnosticsCleanup)
	}

	return r
}
