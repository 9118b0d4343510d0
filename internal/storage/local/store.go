// Package local implements the always-available fallback record store on
// plain JSON collection files under a data directory. It exists so that a
// field crew with zero cloud configuration still gets a working app; it is
// not tuned for large datasets and rewrites a whole collection per mutation.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fieldops/fieldlog/internal/filex"
	"github.com/fieldops/fieldlog/internal/models"
)

const (
	projectsFile    = "projects.json"
	personalFile    = "personal_records.json"
	coordinatorFile = "coordinator_records.json"
)

// Store persists collections as JSON files under DataDir. A single mutex
// covers all collections; contention is negligible at the sizes involved.
type Store struct {
	dataDir string
	mu      sync.Mutex
	now     func() time.Time
	lastID  int64
}

// NewStore creates the data directory if needed and returns a Store.
func NewStore(dataDir string) (*Store, error) {
	if err := filex.EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("init local store: %w", err)
	}
	return &Store{dataDir: dataDir, now: time.Now}, nil
}

// newID returns the wall-clock milliseconds as a decimal string, bumped past
// the previous id so two creations in the same millisecond stay distinct.
// Callers must hold s.mu.
func (s *Store) newID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func readCollection[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return items, nil
}

func writeCollection[T any](path string, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := filex.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

func sortByCreatedAtDesc[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

// CreateProject appends p with a fresh id and timestamp.
func (s *Store) CreateProject(_ context.Context, p *models.Project) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := readCollection[models.Project](s.path(projectsFile))
	if err != nil {
		return "", err
	}

	p.ID = s.newID()
	p.CreatedAt = s.now().UTC().Truncate(time.Second)
	projects = append(projects, *p)

	if err := writeCollection(s.path(projectsFile), projects); err != nil {
		return "", err
	}
	return p.ID, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(_ context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := readCollection[models.Project](s.path(projectsFile))
	if err != nil {
		return nil, err
	}
	sortByCreatedAtDesc(projects, func(p models.Project) time.Time { return p.CreatedAt })
	return projects, nil
}

// UpdateProject applies patch to the project with the given id. A missing
// project reports found=false without error.
func (s *Store) UpdateProject(_ context.Context, id string, patch models.ProjectPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := readCollection[models.Project](s.path(projectsFile))
	if err != nil {
		return false, err
	}

	for i := range projects {
		if projects[i].ID == id {
			patch.Apply(&projects[i])
			return true, writeCollection(s.path(projectsFile), projects)
		}
	}
	return false, nil
}

// DeleteProject removes the project with the given id. Records referencing
// it are left alone.
func (s *Store) DeleteProject(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := readCollection[models.Project](s.path(projectsFile))
	if err != nil {
		return false, err
	}

	for i := range projects {
		if projects[i].ID == id {
			projects = append(projects[:i], projects[i+1:]...)
			return true, writeCollection(s.path(projectsFile), projects)
		}
	}
	return false, nil
}

// CreatePersonalRecord appends r with a fresh id and timestamp.
func (s *Store) CreatePersonalRecord(_ context.Context, r *models.PersonalRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.PersonalRecord](s.path(personalFile))
	if err != nil {
		return "", err
	}

	r.ID = s.newID()
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	records = append(records, *r)

	if err := writeCollection(s.path(personalFile), records); err != nil {
		return "", err
	}
	return r.ID, nil
}

// ListPersonalRecords returns records newest first, optionally filtered by
// project.
func (s *Store) ListPersonalRecords(_ context.Context, projectID string) ([]models.PersonalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.PersonalRecord](s.path(personalFile))
	if err != nil {
		return nil, err
	}
	records = filterByProject(records, projectID, func(r models.PersonalRecord) string { return r.ProjectID })
	sortByCreatedAtDesc(records, func(r models.PersonalRecord) time.Time { return r.CreatedAt })
	return records, nil
}

// DeletePersonalRecord removes the record with the given id.
func (s *Store) DeletePersonalRecord(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.PersonalRecord](s.path(personalFile))
	if err != nil {
		return false, err
	}

	for i := range records {
		if records[i].ID == id {
			records = append(records[:i], records[i+1:]...)
			return true, writeCollection(s.path(personalFile), records)
		}
	}
	return false, nil
}

// SetPersonalPhotos replaces photo references on an existing record.
func (s *Store) SetPersonalPhotos(_ context.Context, id string, departure, ret *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.PersonalRecord](s.path(personalFile))
	if err != nil {
		return false, err
	}

	for i := range records {
		if records[i].ID == id {
			if departure != nil {
				records[i].DeparturePhotoURL = *departure
			}
			if ret != nil {
				records[i].ReturnPhotoURL = *ret
			}
			return true, writeCollection(s.path(personalFile), records)
		}
	}
	return false, nil
}

// CreateCoordinatorRecord appends r with a fresh id and timestamp.
func (s *Store) CreateCoordinatorRecord(_ context.Context, r *models.CoordinatorRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.CoordinatorRecord](s.path(coordinatorFile))
	if err != nil {
		return "", err
	}

	r.ID = s.newID()
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	records = append(records, *r)

	if err := writeCollection(s.path(coordinatorFile), records); err != nil {
		return "", err
	}
	return r.ID, nil
}

// ListCoordinatorRecords returns records newest first, optionally filtered
// by project.
func (s *Store) ListCoordinatorRecords(_ context.Context, projectID string) ([]models.CoordinatorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.CoordinatorRecord](s.path(coordinatorFile))
	if err != nil {
		return nil, err
	}
	records = filterByProject(records, projectID, func(r models.CoordinatorRecord) string { return r.ProjectID })
	sortByCreatedAtDesc(records, func(r models.CoordinatorRecord) time.Time { return r.CreatedAt })
	return records, nil
}

// DeleteCoordinatorRecord removes the record with the given id.
func (s *Store) DeleteCoordinatorRecord(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.CoordinatorRecord](s.path(coordinatorFile))
	if err != nil {
		return false, err
	}

	for i := range records {
		if records[i].ID == id {
			records = append(records[:i], records[i+1:]...)
			return true, writeCollection(s.path(coordinatorFile), records)
		}
	}
	return false, nil
}

// SetCoordinatorPhotos replaces the photo reference list on an existing
// record.
func (s *Store) SetCoordinatorPhotos(_ context.Context, id string, urls []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCollection[models.CoordinatorRecord](s.path(coordinatorFile))
	if err != nil {
		return false, err
	}

	for i := range records {
		if records[i].ID == id {
			records[i].PhotoURLs = urls
			return true, writeCollection(s.path(coordinatorFile), records)
		}
	}
	return false, nil
}

func filterByProject[T any](items []T, projectID string, key func(T) string) []T {
	if projectID == "" {
		return items
	}
	filtered := items[:0:0]
	for _, item := range items {
		if key(item) == projectID {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
