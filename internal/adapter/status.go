package adapter

import (
	"context"

	"github.com/fieldops/fieldlog/internal/storage"
)

// BackendStatus describes one backend for the status endpoint. Healthy is
// nil when the backend was not live-probed, either because its settings are
// not ready or because it has no cheap liveness check.
type BackendStatus struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
	Healthy *bool  `json:"healthy,omitempty"`
}

// Info is the one-line serving-mode summary for clients that only need to
// show a storage banner, without the per-backend detail of Status.
type Info struct {
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

// Info classifies the current serving mode: cloud when both records and
// photos have remote backends, hybrid when only records do, local otherwise.
func (a *Adapter) Info() Info {
	switch {
	case a.primary != nil && len(a.uploaders) > 0:
		return Info{
			Mode:        "cloud",
			Description: "records in the document store, photos uploaded to remote storage",
		}
	case a.primary != nil:
		return Info{
			Mode:        "hybrid",
			Description: "records in the document store, photos inlined as data URIs",
		}
	default:
		return Info{
			Mode:        "local",
			Description: "records and photos in the local data directory",
		}
	}
}

// Status is the full backend overview.
type Status struct {
	Records      []BackendStatus `json:"records"`
	Photos       []BackendStatus `json:"photos"`
	ActiveRecord string          `json:"activeRecordBackend"`
}

// Status inspects every configured backend. Photo backends that probe
// Ready are additionally live-checked, so the endpoint doubles as a
// connectivity test from the field.
func (a *Adapter) Status(ctx context.Context) Status {
	st := Status{ActiveRecord: storage.BackendLocal}

	fsProbe := a.cfg.Firestore.Probe()
	fs := BackendStatus{
		Name:   storage.BackendFirestore,
		State:  fsProbe.State.String(),
		Reason: fsProbe.Reason,
	}
	if a.primary != nil {
		st.ActiveRecord = storage.BackendFirestore
	}
	st.Records = append(st.Records, fs)
	st.Records = append(st.Records, BackendStatus{
		Name:  storage.BackendLocal,
		State: "ready",
	})

	for _, u := range a.uploaders {
		healthy := u.Check(ctx)
		st.Photos = append(st.Photos, BackendStatus{
			Name:    u.Name(),
			State:   "ready",
			Healthy: &healthy,
		})
	}
	st.Photos = append(st.Photos, a.skippedPhotoBackends()...)
	st.Photos = append(st.Photos, BackendStatus{
		Name:  storage.BackendInline,
		State: "ready",
	})

	return st
}

// skippedPhotoBackends reports the photo backends that never made it into
// the chain, with the probe reason so the operator can see what to fix.
func (a *Adapter) skippedPhotoBackends() []BackendStatus {
	attached := make(map[string]bool, len(a.uploaders))
	for _, u := range a.uploaders {
		attached[u.Name()] = true
	}

	var out []BackendStatus
	if !attached[storage.BackendS3] {
		p := a.cfg.S3.Probe()
		out = append(out, BackendStatus{Name: storage.BackendS3, State: p.State.String(), Reason: p.Reason})
	}
	if !attached[storage.BackendNAS] {
		p := a.cfg.NAS.Probe()
		out = append(out, BackendStatus{Name: storage.BackendNAS, State: p.State.String(), Reason: p.Reason})
	}
	if !attached[storage.BackendWebDAV] {
		p := a.cfg.WebDAV.Probe()
		out = append(out, BackendStatus{Name: storage.BackendWebDAV, State: p.State.String(), Reason: p.Reason})
	}
	return out
}
