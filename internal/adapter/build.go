package adapter

import (
	"context"
	"fmt"

	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/storage"
	"github.com/fieldops/fieldlog/internal/storage/firestoredb"
	"github.com/fieldops/fieldlog/internal/storage/local"
	"github.com/fieldops/fieldlog/internal/storage/nas"
	"github.com/fieldops/fieldlog/internal/storage/s3store"
	"github.com/fieldops/fieldlog/internal/storage/webdav"
)

// Build constructs the adapter from configuration: the local store always,
// the primary document store and each photo backend only when its section
// probes Ready. A backend whose driver fails to construct is skipped with a
// warning rather than aborting startup; the app must come up on whatever is
// left. The returned closer releases backend clients.
func Build(ctx context.Context, cfg *config.Config, log logging.Logger) (*Adapter, func() error, error) {
	localStore, err := local.NewStore(cfg.Local.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("local store: %w", err)
	}

	var primary storage.RecordStore
	closer := func() error { return nil }

	if p := cfg.Firestore.Probe(); p.Ready() {
		fs, err := firestoredb.NewStore(ctx, &cfg.Firestore, log)
		if err != nil {
			log.Warn(ctx, "document store unavailable, records go to local store", "error", err)
		} else {
			primary = fs
			closer = fs.Close
		}
	} else if p.State == config.StateInvalid {
		log.Warn(ctx, "document store misconfigured, records go to local store", "reason", p.Reason)
	}

	var uploaders []storage.PhotoUploader

	if p := cfg.S3.Probe(); p.Ready() {
		s3u, err := s3store.NewUploader(ctx, &cfg.S3)
		if err != nil {
			log.Warn(ctx, "object store unavailable, skipping", "error", err)
		} else {
			uploaders = append(uploaders, s3u)
		}
	} else if p.State == config.StateInvalid {
		log.Warn(ctx, "object store misconfigured, skipping", "reason", p.Reason)
	}

	if p := cfg.NAS.Probe(); p.Ready() {
		uploaders = append(uploaders, nas.NewUploader(&cfg.NAS, log))
	} else if p.State == config.StateInvalid {
		log.Warn(ctx, "nas misconfigured, skipping", "reason", p.Reason)
	}

	if p := cfg.WebDAV.Probe(); p.Ready() {
		uploaders = append(uploaders, webdav.NewClient(&cfg.WebDAV, log))
	} else if p.State == config.StateInvalid {
		log.Warn(ctx, "webdav misconfigured, skipping", "reason", p.Reason)
	}

	return New(cfg, log, primary, localStore, uploaders), closer, nil
}
