// Package diagnostics cross-checks persisted photo references against what
// the backends actually hold. A scan is read-only; the paired cleanup is a
// separate, explicitly invoked operation that strips dangling references
// from records without touching the records themselves.
package diagnostics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/fieldops/fieldlog/internal/httpx"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/models"
	"github.com/fieldops/fieldlog/internal/storage"
)

// probeTimeout bounds the HEAD request a scan issues for references no
// configured backend owns.
const probeTimeout = 5 * time.Second

// RecordSource is the slice of the record-store contract a scan needs.
// The active RecordStore satisfies it.
type RecordSource interface {
	ListPersonalRecords(ctx context.Context, projectID string) ([]models.PersonalRecord, error)
	ListCoordinatorRecords(ctx context.Context, projectID string) ([]models.CoordinatorRecord, error)
	SetPersonalPhotos(ctx context.Context, id string, departure, ret *string) (bool, error)
	SetCoordinatorPhotos(ctx context.Context, id string, urls []string) (bool, error)
}

// RemoteProber verifies that a reference's target still exists on a remote
// backend. KeyFromURL reports ok=false for references the backend does not
// own, which excludes them from probing.
type RemoteProber interface {
	Name() string
	KeyFromURL(ref string) (string, bool)
	Exists(ctx context.Context, key string) (bool, error)
}

// Ref locates one inconsistent photo reference in human-readable terms.
type Ref struct {
	RecordType string `json:"recordType"` // personal or coordinator
	RecordID   string `json:"recordId"`
	Owner      string `json:"owner"`
	Field      string `json:"field"`
	Index      int    `json:"index"` // position within photoUrls, -1 otherwise
	Reference  string `json:"reference"`
	Reason     string `json:"reason"`
}

// Report is the outcome of one scan.
type Report struct {
	CountsByBackend       map[string]int `json:"countsByBackend"`
	TotalReferencedPhotos int            `json:"totalReferencedPhotos"`
	Inconsistent          []Ref          `json:"inconsistentReferences"`
	// Degraded lists backends and hosts that could not be reached during
	// the scan. Their references are counted but not verified.
	Degraded []string `json:"degraded,omitempty"`
}

// Scanner walks records and classifies their photo references.
type Scanner struct {
	source  RecordSource
	probers []RemoteProber
	http    *http.Client
	log     logging.Logger
}

// NewScanner builds a Scanner over the given record source and probers.
func NewScanner(source RecordSource, probers []RemoteProber, log logging.Logger) *Scanner {
	return &Scanner{
		source:  source,
		probers: probers,
		http:    httpx.NewClient(probeTimeout),
		log:     log,
	}
}

// Scan classifies every photo reference and verifies the remote ones:
// references owned by a configured backend go through its Exists check,
// any other http(s) reference gets a bounded HEAD. An unreachable backend
// or host degrades its slice of the report instead of aborting the scan.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	report := &Report{CountsByBackend: map[string]int{}}
	degraded := map[string]bool{}

	personal, err := s.source.ListPersonalRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("scan personal records: %w", err)
	}
	for _, r := range personal {
		s.inspect(ctx, report, degraded, Ref{
			RecordType: "personal",
			RecordID:   r.ID,
			Owner:      r.Name,
			Field:      "departurePhotoUrl",
			Index:      -1,
			Reference:  r.DeparturePhotoURL,
		})
		s.inspect(ctx, report, degraded, Ref{
			RecordType: "personal",
			RecordID:   r.ID,
			Owner:      r.Name,
			Field:      "returnPhotoUrl",
			Index:      -1,
			Reference:  r.ReturnPhotoURL,
		})
	}

	coordinator, err := s.source.ListCoordinatorRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("scan coordinator records: %w", err)
	}
	for _, r := range coordinator {
		for i, ref := range r.PhotoURLs {
			s.inspect(ctx, report, degraded, Ref{
				RecordType: "coordinator",
				RecordID:   r.ID,
				Owner:      r.CoordinatorName,
				Field:      "photoUrls",
				Index:      i,
				Reference:  ref,
			})
		}
	}

	for name := range degraded {
		report.Degraded = append(report.Degraded, name)
	}
	sort.Strings(report.Degraded)
	return report, nil
}

// inspect classifies one reference and, when a prober owns it, verifies the
// target still exists.
func (s *Scanner) inspect(ctx context.Context, report *Report, degraded map[string]bool, ref Ref) {
	if ref.Reference == "" {
		return
	}
	report.TotalReferencedPhotos++

	if strings.HasPrefix(ref.Reference, "data:") {
		report.CountsByBackend[storage.BackendInline]++
		return
	}

	for _, p := range s.probers {
		key, ok := p.KeyFromURL(ref.Reference)
		if !ok {
			continue
		}
		report.CountsByBackend[p.Name()]++

		if degraded[p.Name()] {
			return
		}
		exists, err := p.Exists(ctx, key)
		if err != nil {
			s.log.Warn(ctx, "backend unreachable during scan, references unverified", "backend", p.Name(), "error", err)
			degraded[p.Name()] = true
			return
		}
		if !exists {
			ref.Reason = fmt.Sprintf("object %s missing on %s", key, p.Name())
			report.Inconsistent = append(report.Inconsistent, ref)
		}
		return
	}

	report.CountsByBackend["other"]++
	s.checkUnowned(ctx, report, degraded, ref)
}

// checkUnowned issues a bounded HEAD for a reference no configured backend
// owns. Only a definite 404 or 410 marks the reference dangling; a host that
// does not answer is recorded as degraded and skipped for the rest of the
// scan.
func (s *Scanner) checkUnowned(ctx context.Context, report *Report, degraded map[string]bool, ref Ref) {
	parsed, err := url.Parse(ref.Reference)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return
	}
	if degraded[parsed.Host] {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref.Reference, nil)
	if err != nil {
		return
	}
	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Warn(ctx, "host unreachable during scan, references unverified", "host", parsed.Host, "error", err)
		degraded[parsed.Host] = true
		return
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		ref.Reason = fmt.Sprintf("%s answered %d", parsed.Host, resp.StatusCode)
		report.Inconsistent = append(report.Inconsistent, ref)
	}
}

// Cleanup removes the dangling references named by report from their
// records. Records themselves are never deleted. Cleanup is idempotent: a
// reference already gone, or a record already deleted, is skipped silently.
func (s *Scanner) Cleanup(ctx context.Context, report *Report) (int, error) {
	cleaned := 0

	dangling := map[string]map[string]bool{} // record id -> references
	for _, ref := range report.Inconsistent {
		if dangling[ref.RecordID] == nil {
			dangling[ref.RecordID] = map[string]bool{}
		}
		dangling[ref.RecordID][ref.Reference] = true
	}
	if len(dangling) == 0 {
		return 0, nil
	}

	personal, err := s.source.ListPersonalRecords(ctx, "")
	if err != nil {
		return cleaned, fmt.Errorf("cleanup personal records: %w", err)
	}
	for _, r := range personal {
		refs := dangling[r.ID]
		if refs == nil {
			continue
		}

		var departure, ret *string
		empty := ""
		if refs[r.DeparturePhotoURL] && r.DeparturePhotoURL != "" {
			departure = &empty
		}
		if refs[r.ReturnPhotoURL] && r.ReturnPhotoURL != "" {
			ret = &empty
		}
		if departure == nil && ret == nil {
			continue
		}

		if _, err := s.source.SetPersonalPhotos(ctx, r.ID, departure, ret); err != nil {
			return cleaned, fmt.Errorf("cleanup personal record %s: %w", r.ID, err)
		}
		if departure != nil {
			cleaned++
		}
		if ret != nil {
			cleaned++
		}
	}

	coordinator, err := s.source.ListCoordinatorRecords(ctx, "")
	if err != nil {
		return cleaned, fmt.Errorf("cleanup coordinator records: %w", err)
	}
	for _, r := range coordinator {
		refs := dangling[r.ID]
		if refs == nil {
			continue
		}

		kept := make([]string, 0, len(r.PhotoURLs))
		for _, ref := range r.PhotoURLs {
			if refs[ref] {
				cleaned++
				continue
			}
			kept = append(kept, ref)
		}
		if len(kept) == len(r.PhotoURLs) {
			continue
		}

		if _, err := s.source.SetCoordinatorPhotos(ctx, r.ID, kept); err != nil {
			return cleaned, fmt.Errorf("cleanup coordinator record %s: %w", r.ID, err)
		}
	}

	return cleaned, nil
}
