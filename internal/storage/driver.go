// Package storage defines the contracts every backend driver implements.
// Record stores persist structured submissions; photo uploaders place image
// bytes under a synthesized key and hand back a stable URL.
//
// Drivers report failure through ordinary errors. The adapter, not the
// driver, decides whether a failure triggers fallback; drivers signal the
// broad class with the sentinels in internal/common.
package storage

import (
	"context"

	"github.com/fieldops/fieldlog/internal/models"
	"github.com/fieldops/fieldlog/internal/pathx"
)

// Backend names as reported in operation metadata and status output.
const (
	BackendFirestore = "firestore"
	BackendLocal     = "local"
	BackendS3        = "s3"
	BackendNAS       = "nas"
	BackendWebDAV    = "webdav"
	BackendInline    = "inline"
)

// RecordStore is the structured-data contract. Lists return records in
// descending creation order; a projectID filter of "" means no filter.
// Update and delete operations report found=false, err=nil when the target
// does not exist, so callers can treat a missing record as a no-op.
type RecordStore interface {
	CreateProject(ctx context.Context, p *models.Project) (string, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (bool, error)
	DeleteProject(ctx context.Context, id string) (bool, error)

	CreatePersonalRecord(ctx context.Context, r *models.PersonalRecord) (string, error)
	ListPersonalRecords(ctx context.Context, projectID string) ([]models.PersonalRecord, error)
	DeletePersonalRecord(ctx context.Context, id string) (bool, error)
	// SetPersonalPhotos replaces photo references on an existing record.
	// Nil pointers leave the corresponding field untouched.
	SetPersonalPhotos(ctx context.Context, id string, departure, ret *string) (bool, error)

	CreateCoordinatorRecord(ctx context.Context, r *models.CoordinatorRecord) (string, error)
	ListCoordinatorRecords(ctx context.Context, projectID string) ([]models.CoordinatorRecord, error)
	DeleteCoordinatorRecord(ctx context.Context, id string) (bool, error)
	SetCoordinatorPhotos(ctx context.Context, id string, urls []string) (bool, error)
}

// PhotoUploader is the binary-data contract. Upload places data at the
// synthesized key and returns the reference to persist on the record.
// Check is a cheap liveness probe used before committing to a backend.
type PhotoUploader interface {
	Name() string
	Upload(ctx context.Context, data []byte, key pathx.Key) (string, error)
	Check(ctx context.Context) bool
}
