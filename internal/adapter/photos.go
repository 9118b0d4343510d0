package adapter

import (
	"context"
	"fmt"

	"github.com/fieldops/fieldlog/internal/imagex"
	"github.com/fieldops/fieldlog/internal/pathx"
	"github.com/fieldops/fieldlog/internal/storage"
)

// PhotoItem is one photo to place: raw bytes plus the inputs that determine
// where it lives.
type PhotoItem struct {
	Data  []byte
	Input pathx.Input
}

// PhotoResult pairs the persisted reference with how it was obtained.
type PhotoResult struct {
	Ref  string `json:"url"`
	Meta Meta   `json:"meta"`
}

// ProgressFunc receives monotonic progress while a batch uploads.
type ProgressFunc func(done, total int)

// UploadPhoto places one photo on the first available backend in the chain
// and returns the reference to persist. When every remote backend is
// unavailable the photo is normalized into an inline data URI; the only
// error surfaced from that path is common.ErrPhotoTooLarge.
func (a *Adapter) UploadPhoto(ctx context.Context, data []byte, in pathx.Input) (string, Meta, error) {
	key := pathx.Synthesize(in)

	degraded := false
	for _, u := range a.uploaders {
		if !u.Check(ctx) {
			a.log.Warn(ctx, "photo backend unavailable, trying next", "backend", u.Name(), "key", key.Path())
			degraded = true
			continue
		}

		ref, err := u.Upload(ctx, data, key)
		if err != nil {
			a.log.Warn(ctx, "photo upload failed, trying next backend", "backend", u.Name(), "key", key.Path(), "error", err)
			degraded = true
			continue
		}

		a.log.Info(ctx, "photo uploaded", "backend", u.Name(), "key", key.Path())
		return ref, Meta{Backend: u.Name(), Degraded: degraded}, nil
	}

	uri, err := imagex.NormalizeWithBudget(data)
	if err != nil {
		return "", Meta{Backend: storage.BackendInline, Degraded: degraded}, fmt.Errorf("inline fallback for %s: %w", key.Path(), err)
	}

	if len(a.uploaders) > 0 {
		a.log.Warn(ctx, "all photo backends unavailable, stored inline", "key", key.Path())
	}
	return uri, Meta{Backend: storage.BackendInline, Degraded: degraded}, nil
}

// UploadPhotos places a batch sequentially, reporting monotonic progress
// after each photo. It stops at the first photo that cannot be stored at
// all; references gathered so far are returned alongside the error so the
// caller can still persist the partial batch.
func (a *Adapter) UploadPhotos(ctx context.Context, items []PhotoItem, progress ProgressFunc) ([]PhotoResult, error) {
	results := make([]PhotoResult, 0, len(items))

	for i, item := range items {
		ref, meta, err := a.UploadPhoto(ctx, item.Data, item.Input)
		if err != nil {
			return results, fmt.Errorf("photo %d of %d: %w", i+1, len(items), err)
		}
		results = append(results, PhotoResult{Ref: ref, Meta: meta})
		if progress != nil {
			progress(i+1, len(items))
		}
	}

	return results, nil
}
