// Package pathx synthesizes the storage key and filename every
// upload-capable driver shares. The same inputs always yield the same
// output, which keeps directory creation idempotent and lets diagnostics
// re-derive where a photo should live.
//
// The hierarchy is slash-delimited only; each driver escapes or encodes
// segments per its own protocol.
package pathx

import (
	"fmt"
	"strings"
	"time"
)

// RecordKind selects the personal or coordinator layout.
type RecordKind string

const (
	KindPersonal    RecordKind = "personal"
	KindCoordinator RecordKind = "coordinator"
)

// Photo roles for personal records.
const (
	RoleDeparture = "departure"
	RoleReturn    = "return"
	RoleSite      = "site"
)

// Reading categories for coordinator records.
const (
	CategoryElectricity = "electricity"
	CategoryWater       = "water"
	CategoryMeal        = "meal"
	CategoryRecycle     = "recycle"
)

// roleLabels and categoryLabels are closed mappings; anything outside them
// becomes "unspecified" rather than leaking raw input into filenames.
var roleLabels = map[string]string{
	RoleDeparture: "departure-mileage",
	RoleReturn:    "return-mileage",
	RoleSite:      "site-record",
}

var categoryLabels = map[string]string{
	CategoryElectricity: "electricity-record",
	CategoryWater:       "water-record",
	CategoryMeal:        "meal-record",
	CategoryRecycle:     "recycle-record",
}

const unspecifiedLabel = "unspecified"

// Input describes one photo to be placed.
type Input struct {
	ProjectName string
	RecordKind  RecordKind
	PersonName  string // personal records only
	Category    string // coordinator records only
	PhotoRole   string // personal records only
	Date        string // YYYY-MM-DD; defaults to CapturedAt's date
	CapturedAt  time.Time
	// OriginalName supplies the extension; defaults to jpg.
	OriginalName string
}

// Key is a synthesized storage location.
type Key struct {
	Dir      string // e.g. "Shoot-A/personal/Chen/2024-01-10"
	FileName string // e.g. "2024-01-10_09-30-00_Chen_departure-mileage.jpg"
}

// Path joins Dir and FileName with "/".
func (k Key) Path() string {
	return k.Dir + "/" + k.FileName
}

// Segments returns Dir split into its path segments.
func (k Key) Segments() []string {
	return strings.Split(k.Dir, "/")
}

// Synthesize computes the storage key and filename for in.
func Synthesize(in Input) Key {
	project := fallback(sanitizeSegment(in.ProjectName), "unknown-project")
	date := in.Date
	if date == "" {
		date = in.CapturedAt.Format("2006-01-02")
	}
	timeStr := in.CapturedAt.Format("15-04-05")
	ext := extension(in.OriginalName)

	var dir, discriminator, label string
	switch in.RecordKind {
	case KindCoordinator:
		dir = fmt.Sprintf("%s/coordinator/%s", project, date)
		if in.Category != "" {
			dir += "/" + sanitizeSegment(in.Category)
		}
		discriminator = "coordinator"
		label = lookupLabel(categoryLabels, in.Category)
	default:
		person := fallback(sanitizeSegment(in.PersonName), "unknown-person")
		dir = fmt.Sprintf("%s/personal/%s/%s", project, person, date)
		discriminator = person
		label = lookupLabel(roleLabels, in.PhotoRole)
	}

	return Key{
		Dir:      dir,
		FileName: fmt.Sprintf("%s_%s_%s_%s.%s", date, timeStr, discriminator, label, ext),
	}
}

func lookupLabel(m map[string]string, key string) string {
	if label, ok := m[key]; ok {
		return label
	}
	return unspecifiedLabel
}

// sanitizeSegment strips characters that would alter the hierarchy or break
// a filename: path separators and control characters.
func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 {
		return strings.ToLower(name[i+1:])
	}
	return "jpg"
}
