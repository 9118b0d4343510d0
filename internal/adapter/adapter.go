// Package adapter is the storage facade the HTTP layer talks to. It owns
// backend selection: structured records go to the primary document store
// when one is configured and fall back to the local JSON store when the
// primary fails; photos walk a chain of uploaders and degrade to an inline
// data URI when no remote backend takes them.
//
// Fallback is silent. A submission in the field must never be lost to a
// dead uplink, so operations succeed on the fallback and report what
// happened through Meta instead of an error.
package adapter

import (
	"context"

	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/models"
	"github.com/fieldops/fieldlog/internal/storage"
)

// Meta describes how an operation was actually served.
type Meta struct {
	// Backend that handled the operation.
	Backend string `json:"backend"`
	// Degraded is true when a configured primary was bypassed because it
	// failed, meaning the result lives somewhere the operator did not
	// primarily intend.
	Degraded bool `json:"degraded"`
}

// Adapter routes record and photo operations across backends.
type Adapter struct {
	cfg       *config.Config
	log       logging.Logger
	primary   storage.RecordStore // nil when the document store is not usable
	local     storage.RecordStore
	uploaders []storage.PhotoUploader // preference order
}

// New assembles an Adapter from already-constructed drivers. primary may be
// nil; uploaders may be empty. local is mandatory, it is the floor every
// operation can fall back to.
func New(cfg *config.Config, log logging.Logger, primary, local storage.RecordStore, uploaders []storage.PhotoUploader) *Adapter {
	return &Adapter{
		cfg:       cfg,
		log:       log,
		primary:   primary,
		local:     local,
		uploaders: uploaders,
	}
}

// IsCloudMode reports whether records are served by the cloud document
// store rather than the local fallback.
func (a *Adapter) IsCloudMode() bool {
	return a.primary != nil
}

// Uploaders exposes the photo backend chain in preference order.
func (a *Adapter) Uploaders() []storage.PhotoUploader {
	return a.uploaders
}

// ActiveStore returns the record store currently serving reads: the primary
// when attached, the local store otherwise. Diagnostics scan through it.
func (a *Adapter) ActiveStore() storage.RecordStore {
	if a.primary != nil {
		return a.primary
	}
	return a.local
}

// run executes op against the primary store, falling back to the local
// store if the primary is absent or fails. The fallback result is reported
// as degraded only when a configured primary was bypassed.
func run[T any](ctx context.Context, a *Adapter, op string, fn func(storage.RecordStore) (T, error)) (T, Meta, error) {
	if a.primary != nil {
		result, err := fn(a.primary)
		if err == nil {
			return result, Meta{Backend: storage.BackendFirestore}, nil
		}
		a.log.Warn(ctx, "primary store failed, falling back to local", "op", op, "error", err)

		result, localErr := fn(a.local)
		if localErr != nil {
			return result, Meta{Backend: storage.BackendLocal, Degraded: true}, localErr
		}
		return result, Meta{Backend: storage.BackendLocal, Degraded: true}, nil
	}

	result, err := fn(a.local)
	return result, Meta{Backend: storage.BackendLocal}, err
}

// CreateProject persists a new project.
func (a *Adapter) CreateProject(ctx context.Context, p *models.Project) (string, Meta, error) {
	return run(ctx, a, "createProject", func(s storage.RecordStore) (string, error) {
		return s.CreateProject(ctx, p)
	})
}

// ListProjects returns all projects, newest first.
func (a *Adapter) ListProjects(ctx context.Context) ([]models.Project, Meta, error) {
	return run(ctx, a, "listProjects", func(s storage.RecordStore) ([]models.Project, error) {
		return s.ListProjects(ctx)
	})
}

// UpdateProject applies patch to a project. found=false means the project
// does not exist on the serving backend; that is not an error.
func (a *Adapter) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (bool, Meta, error) {
	return run(ctx, a, "updateProject", func(s storage.RecordStore) (bool, error) {
		return s.UpdateProject(ctx, id, patch)
	})
}

// DeleteProject removes a project. Deleting an absent project is a no-op.
func (a *Adapter) DeleteProject(ctx context.Context, id string) (bool, Meta, error) {
	return run(ctx, a, "deleteProject", func(s storage.RecordStore) (bool, error) {
		return s.DeleteProject(ctx, id)
	})
}

// CreatePersonalRecord persists a new mileage record.
func (a *Adapter) CreatePersonalRecord(ctx context.Context, r *models.PersonalRecord) (string, Meta, error) {
	return run(ctx, a, "createPersonalRecord", func(s storage.RecordStore) (string, error) {
		return s.CreatePersonalRecord(ctx, r)
	})
}

// ListPersonalRecords returns mileage records, newest first, optionally
// filtered by project.
func (a *Adapter) ListPersonalRecords(ctx context.Context, projectID string) ([]models.PersonalRecord, Meta, error) {
	return run(ctx, a, "listPersonalRecords", func(s storage.RecordStore) ([]models.PersonalRecord, error) {
		return s.ListPersonalRecords(ctx, projectID)
	})
}

// DeletePersonalRecord removes a mileage record.
func (a *Adapter) DeletePersonalRecord(ctx context.Context, id string) (bool, Meta, error) {
	return run(ctx, a, "deletePersonalRecord", func(s storage.RecordStore) (bool, error) {
		return s.DeletePersonalRecord(ctx, id)
	})
}

// SetPersonalPhotos replaces the photo references on a mileage record.
func (a *Adapter) SetPersonalPhotos(ctx context.Context, id string, departure, ret *string) (bool, Meta, error) {
	return run(ctx, a, "setPersonalPhotos", func(s storage.RecordStore) (bool, error) {
		return s.SetPersonalPhotos(ctx, id, departure, ret)
	})
}

// CreateCoordinatorRecord persists a new site record.
func (a *Adapter) CreateCoordinatorRecord(ctx context.Context, r *models.CoordinatorRecord) (string, Meta, error) {
	return run(ctx, a, "createCoordinatorRecord", func(s storage.RecordStore) (string, error) {
		return s.CreateCoordinatorRecord(ctx, r)
	})
}

// ListCoordinatorRecords returns site records, newest first, optionally
// filtered by project.
func (a *Adapter) ListCoordinatorRecords(ctx context.Context, projectID string) ([]models.CoordinatorRecord, Meta, error) {
	return run(ctx, a, "listCoordinatorRecords", func(s storage.RecordStore) ([]models.CoordinatorRecord, error) {
		return s.ListCoordinatorRecords(ctx, projectID)
	})
}

// DeleteCoordinatorRecord removes a site record.
func (a *Adapter) DeleteCoordinatorRecord(ctx context.Context, id string) (bool, Meta, error) {
	return run(ctx, a, "deleteCoordinatorRecord", func(s storage.RecordStore) (bool, error) {
		return s.DeleteCoordinatorRecord(ctx, id)
	})
}

// SetCoordinatorPhotos replaces the photo reference list on a site record.
func (a *Adapter) SetCoordinatorPhotos(ctx context.Context, id string, urls []string) (bool, Meta, error) {
	return run(ctx, a, "setCoordinatorPhotos", func(s storage.RecordStore) (bool, error) {
		return s.SetCoordinatorPhotos(ctx, id, urls)
	})
}
