// Package firestoredb implements the primary record store on Google Cloud
// Firestore. List operations fail closed: a backend error yields an empty
// slice and a warning instead of an error, so a flaky uplink never blanks
// the app's read path while the fallback store handles writes.
package firestoredb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/models"
)

const (
	projectsCollection    = "projects"
	personalCollection    = "personalRecords"
	coordinatorCollection = "coordinatorRecords"
)

// Store is a RecordStore backed by Firestore.
type Store struct {
	client *firestore.Client
	log    logging.Logger
	now    func() time.Time
}

// NewStore connects to Firestore for the configured project. A credentials
// file is optional; without one the ambient application-default credentials
// are used.
func NewStore(ctx context.Context, cfg *config.FirestoreConfig, log logging.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	return &Store{client: client, log: log, now: time.Now}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// CreateProject adds p to the projects collection.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) (string, error) {
	p.CreatedAt = s.now().UTC()
	ref, _, err := s.client.Collection(projectsCollection).Add(ctx, p)
	if err != nil {
		return "", fmt.Errorf("create project: %w", err)
	}
	p.ID = ref.ID
	return ref.ID, nil
}

// ListProjects returns all projects, newest first. Backend failures yield
// an empty list.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	docs, err := s.readAll(ctx, projectsCollection, "")
	if err != nil {
		s.log.Warn(ctx, "project list failed, returning empty", "error", err)
		return []models.Project{}, nil
	}

	projects := make([]models.Project, 0, len(docs))
	for _, doc := range docs {
		var p models.Project
		if err := doc.DataTo(&p); err != nil {
			s.log.Warn(ctx, "skipping malformed project document", "id", doc.Ref.ID, "error", err)
			continue
		}
		p.ID = doc.Ref.ID
		projects = append(projects, p)
	}
	return projects, nil
}

// UpdateProject overlays the non-nil patch fields onto the stored document.
func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (bool, error) {
	updates := projectUpdates(patch)
	if len(updates) == 0 {
		return s.exists(ctx, projectsCollection, id)
	}

	_, err := s.client.Collection(projectsCollection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update project %s: %w", id, err)
	}
	return true, nil
}

// DeleteProject removes the project document. Deleting an absent document
// reports found=false.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	return s.deleteDoc(ctx, projectsCollection, id)
}

// CreatePersonalRecord adds r to the personal records collection.
func (s *Store) CreatePersonalRecord(ctx context.Context, r *models.PersonalRecord) (string, error) {
	r.CreatedAt = s.now().UTC()
	ref, _, err := s.client.Collection(personalCollection).Add(ctx, r)
	if err != nil {
		return "", fmt.Errorf("create personal record: %w", err)
	}
	r.ID = ref.ID
	return ref.ID, nil
}

// ListPersonalRecords returns records newest first, optionally filtered by
// project. Backend failures yield an empty list.
func (s *Store) ListPersonalRecords(ctx context.Context, projectID string) ([]models.PersonalRecord, error) {
	docs, err := s.readAll(ctx, personalCollection, projectID)
	if err != nil {
		s.log.Warn(ctx, "personal record list failed, returning empty", "error", err)
		return []models.PersonalRecord{}, nil
	}

	records := make([]models.PersonalRecord, 0, len(docs))
	for _, doc := range docs {
		var r models.PersonalRecord
		if err := doc.DataTo(&r); err != nil {
			s.log.Warn(ctx, "skipping malformed personal record", "id", doc.Ref.ID, "error", err)
			continue
		}
		r.ID = doc.Ref.ID
		records = append(records, r)
	}
	if projectID != "" {
		sortByCreatedAtDesc(records, func(r models.PersonalRecord) time.Time { return r.CreatedAt })
	}
	return records, nil
}

// DeletePersonalRecord removes the record document.
func (s *Store) DeletePersonalRecord(ctx context.Context, id string) (bool, error) {
	return s.deleteDoc(ctx, personalCollection, id)
}

// SetPersonalPhotos replaces photo references on an existing record.
func (s *Store) SetPersonalPhotos(ctx context.Context, id string, departure, ret *string) (bool, error) {
	var updates []firestore.Update
	if departure != nil {
		updates = append(updates, firestore.Update{Path: "departurePhotoUrl", Value: *departure})
	}
	if ret != nil {
		updates = append(updates, firestore.Update{Path: "returnPhotoUrl", Value: *ret})
	}
	if len(updates) == 0 {
		return s.exists(ctx, personalCollection, id)
	}

	_, err := s.client.Collection(personalCollection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set personal photos %s: %w", id, err)
	}
	return true, nil
}

// CreateCoordinatorRecord adds r to the coordinator records collection.
func (s *Store) CreateCoordinatorRecord(ctx context.Context, r *models.CoordinatorRecord) (string, error) {
	r.CreatedAt = s.now().UTC()
	ref, _, err := s.client.Collection(coordinatorCollection).Add(ctx, r)
	if err != nil {
		return "", fmt.Errorf("create coordinator record: %w", err)
	}
	r.ID = ref.ID
	return ref.ID, nil
}

// ListCoordinatorRecords returns records newest first, optionally filtered
// by project. Backend failures yield an empty list.
func (s *Store) ListCoordinatorRecords(ctx context.Context, projectID string) ([]models.CoordinatorRecord, error) {
	docs, err := s.readAll(ctx, coordinatorCollection, projectID)
	if err != nil {
		s.log.Warn(ctx, "coordinator record list failed, returning empty", "error", err)
		return []models.CoordinatorRecord{}, nil
	}

	records := make([]models.CoordinatorRecord, 0, len(docs))
	for _, doc := range docs {
		var r models.CoordinatorRecord
		if err := doc.DataTo(&r); err != nil {
			s.log.Warn(ctx, "skipping malformed coordinator record", "id", doc.Ref.ID, "error", err)
			continue
		}
		r.ID = doc.Ref.ID
		records = append(records, r)
	}
	if projectID != "" {
		sortByCreatedAtDesc(records, func(r models.CoordinatorRecord) time.Time { return r.CreatedAt })
	}
	return records, nil
}

// DeleteCoordinatorRecord removes the record document.
func (s *Store) DeleteCoordinatorRecord(ctx context.Context, id string) (bool, error) {
	return s.deleteDoc(ctx, coordinatorCollection, id)
}

// SetCoordinatorPhotos replaces the photo reference list on an existing
// record.
func (s *Store) SetCoordinatorPhotos(ctx context.Context, id string, urls []string) (bool, error) {
	_, err := s.client.Collection(coordinatorCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "photoUrls", Value: urls},
	})
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set coordinator photos %s: %w", id, err)
	}
	return true, nil
}

// readAll collects every document of a collection, optionally filtered by
// project id. Unfiltered reads use the backend's native createdAt ordering;
// filtered reads leave ordering to the caller, since combining the filter
// with OrderBy would require a composite index.
func (s *Store) readAll(ctx context.Context, collection, projectID string) ([]*firestore.DocumentSnapshot, error) {
	query := s.client.Collection(collection).Query
	if projectID != "" {
		query = query.Where("projectId", "==", projectID)
	} else {
		query = query.OrderBy("createdAt", firestore.Desc)
	}

	var docs []*firestore.DocumentSnapshot
	it := query.Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// deleteDoc checks existence before deleting, since Firestore deletes are
// otherwise silent no-ops for absent documents.
func (s *Store) deleteDoc(ctx context.Context, collection, id string) (bool, error) {
	found, err := s.exists(ctx, collection, id)
	if err != nil || !found {
		return found, err
	}
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *Store) exists(ctx context.Context, collection, id string) (bool, error) {
	_, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func projectUpdates(patch models.ProjectPatch) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, v *string) {
		if v != nil {
			updates = append(updates, firestore.Update{Path: path, Value: *v})
		}
	}
	add("name", patch.Name)
	add("description", patch.Description)
	add("location", patch.Location)
	add("startDate", patch.StartDate)
	add("endDate", patch.EndDate)
	add("director", patch.Director)
	add("budget", patch.Budget)
	add("notes", patch.Notes)
	if patch.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*patch.Status)})
	}
	return updates
}

func sortByCreatedAtDesc[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
