package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldlog/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// stepped clock so ids and timestamps are distinct and ordered
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return s
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id1, err := s.CreateProject(ctx, &models.Project{Name: "Shoot A", Status: models.StatusPlanning})
	require.NoError(t, err)
	id2, err := s.CreateProject(ctx, &models.Project{Name: "Shoot B", Status: models.StatusActive})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	// newest first
	assert.Equal(t, "Shoot B", projects[0].Name)
	assert.Equal(t, "Shoot A", projects[1].Name)

	name := "Shoot A2"
	status := models.StatusCompleted
	found, err := s.UpdateProject(ctx, id1, models.ProjectPatch{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.True(t, found)

	projects, err = s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Shoot A2", projects[1].Name)
	assert.Equal(t, models.StatusCompleted, projects[1].Status)
	// untouched fields survive the patch
	assert.False(t, projects[1].CreatedAt.IsZero())

	found, err = s.UpdateProject(ctx, "missing", models.ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.False(t, found)

	found, err = s.DeleteProject(ctx, id2)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.DeleteProject(ctx, id2)
	require.NoError(t, err)
	assert.False(t, found)

	projects, err = s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestPersonalRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r1 := &models.PersonalRecord{Name: "Chen", Mileage: "42.5", ProjectID: "p1"}
	id1, err := s.CreatePersonalRecord(ctx, r1)
	require.NoError(t, err)

	_, err = s.CreatePersonalRecord(ctx, &models.PersonalRecord{Name: "Ravi", ProjectID: "p2"})
	require.NoError(t, err)

	all, err := s.ListPersonalRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Ravi", all[0].Name)

	byProject, err := s.ListPersonalRecords(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, "Chen", byProject[0].Name)

	dep := "https://minio.local/photos/a.jpg"
	found, err := s.SetPersonalPhotos(ctx, id1, &dep, nil)
	require.NoError(t, err)
	assert.True(t, found)

	byProject, err = s.ListPersonalRecords(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, dep, byProject[0].DeparturePhotoURL)
	assert.Empty(t, byProject[0].ReturnPhotoURL)

	found, err = s.DeletePersonalRecord(ctx, id1)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.DeletePersonalRecord(ctx, id1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCoordinatorRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := &models.CoordinatorRecord{
		CoordinatorName:  "Mia",
		ElectricityUsage: "120",
		RecycleTypes:     []string{"plastic", "glass"},
		ProjectID:        "p1",
	}
	id, err := s.CreateCoordinatorRecord(ctx, r)
	require.NoError(t, err)

	urls := []string{"data:image/jpeg;base64,AAAA", "https://nas.local/b.jpg"}
	found, err := s.SetCoordinatorPhotos(ctx, id, urls)
	require.NoError(t, err)
	assert.True(t, found)

	records, err := s.ListCoordinatorRecords(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, urls, records[0].PhotoURLs)
	assert.Equal(t, []string{"plastic", "glass"}, records[0].RecycleTypes)

	found, err = s.DeleteCoordinatorRecord(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)

	records, err = s.ListCoordinatorRecords(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCollectionsPersistAcrossStores(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewStore(dir)
	require.NoError(t, err)
	_, err = s1.CreateProject(ctx, &models.Project{Name: "Persisted"})
	require.NoError(t, err)

	s2, err := NewStore(dir)
	require.NoError(t, err)
	projects, err := s2.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Persisted", projects[0].Name)
}

func TestCollectionFileIsValidJSON(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStore(dir)
	require.NoError(t, err)
	_, err = s.CreateProject(ctx, &models.Project{Name: "Shoot A"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, projectsFile))
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "Shoot A", raw[0]["name"])
	assert.NotEmpty(t, raw[0]["id"])
	assert.NotEmpty(t, raw[0]["createdAt"])
}
