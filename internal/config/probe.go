package config

import (
	"net/url"
	"strings"
)

// State classifies a backend section after probing its settings.
type State int

const (
	// StateUnconfigured means the section was never filled in: every value
	// is empty or still carries a template placeholder. The backend is
	// skipped without being treated as an error.
	StateUnconfigured State = iota
	// StateInvalid means the operator started configuring the section but
	// the result cannot be used as-is.
	StateInvalid
	// StateReady means the section has everything a driver needs to try.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateInvalid:
		return "invalid"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Probe is the result of statically inspecting a backend section. Reason is
// set only for StateInvalid.
type Probe struct {
	State  State
	Reason string
}

// Ready reports whether the section can be handed to a driver.
func (p Probe) Ready() bool {
	return p.State == StateReady
}

func invalid(reason string) Probe {
	return Probe{State: StateInvalid, Reason: reason}
}

// placeholder reports whether v is empty or still holds a template value
// such as "your_project_id" copied from a sample configuration.
func placeholder(v string) bool {
	return v == "" || strings.Contains(v, "your_")
}

// Probe inspects the document-store settings. The project id is the only
// hard requirement; credentials may come from the ambient environment.
func (c *FirestoreConfig) Probe() Probe {
	if placeholder(c.ProjectID) && placeholder(c.CredentialsFile) && placeholder(c.APIKey) {
		return Probe{State: StateUnconfigured}
	}
	if placeholder(c.ProjectID) {
		return invalid("missing project id")
	}
	return Probe{State: StateReady}
}

// Probe inspects the object-store settings.
func (c *S3Config) Probe() Probe {
	if placeholder(c.User) && placeholder(c.Password) && placeholder(c.Bucket) && placeholder(c.BaseEndpoint) {
		return Probe{State: StateUnconfigured}
	}
	switch {
	case placeholder(c.BaseEndpoint):
		return invalid("missing endpoint")
	case placeholder(c.Bucket):
		return invalid("missing bucket")
	case placeholder(c.User) || placeholder(c.Password):
		return invalid("missing credentials")
	}
	if _, err := url.ParseRequestURI(c.BaseEndpoint); err != nil {
		return invalid("endpoint is not a valid URL")
	}
	return Probe{State: StateReady}
}

// Probe inspects the WebDAV settings.
func (c *WebDAVConfig) Probe() Probe {
	if placeholder(c.URL) && placeholder(c.Username) && placeholder(c.Password) {
		return Probe{State: StateUnconfigured}
	}
	switch {
	case placeholder(c.URL):
		return invalid("missing url")
	case placeholder(c.Username) || placeholder(c.Password):
		return invalid("missing credentials")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("url must be http or https")
	}
	return Probe{State: StateReady}
}

// Probe inspects the NAS settings. The upload method decides which extra
// fields are required.
func (c *NASConfig) Probe() Probe {
	if placeholder(c.URL) {
		return Probe{State: StateUnconfigured}
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("url must be http or https")
	}
	switch c.Method {
	case NASMethodWebDAV, NASMethodHTTP:
	case NASMethodFileStation:
		if placeholder(c.APIUser) || placeholder(c.APIPass) {
			return invalid("file station method requires api credentials")
		}
	default:
		return invalid("unknown upload method " + c.Method)
	}
	return Probe{State: StateReady}
}
