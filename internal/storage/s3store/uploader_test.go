package s3store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	u := &Uploader{bucket: "photos", endpoint: "http://minio.local:9000"}

	got := u.ObjectURL("Shoot-A/personal/Chen/2024-01-10/2024-01-10_09-30-00_Chen_departure-mileage.jpg")
	assert.Equal(t,
		"http://minio.local:9000/photos/Shoot-A/personal/Chen/2024-01-10/2024-01-10_09-30-00_Chen_departure-mileage.jpg",
		got)
}

func TestObjectURL_EscapesSegments(t *testing.T) {
	u := &Uploader{bucket: "photos", endpoint: "http://minio.local:9000"}

	got := u.ObjectURL("Shoot A/coordinator/2024-01-10")
	assert.Equal(t, "http://minio.local:9000/photos/Shoot%20A/coordinator/2024-01-10", got)
}

func TestKeyFromURL(t *testing.T) {
	u := &Uploader{bucket: "photos", endpoint: "http://minio.local:9000"}

	t.Run("round trip", func(t *testing.T) {
		key := "Shoot A/coordinator/2024-01-10/electricity/a b.jpg"
		got, ok := u.KeyFromURL(u.ObjectURL(key))
		assert.True(t, ok)
		assert.Equal(t, key, got)
	})

	t.Run("foreign url", func(t *testing.T) {
		_, ok := u.KeyFromURL("https://dav.example.com/photos/a.jpg")
		assert.False(t, ok)
	})

	t.Run("other bucket", func(t *testing.T) {
		_, ok := u.KeyFromURL("http://minio.local:9000/backups/a.jpg")
		assert.False(t, ok)
	})
}
