// Package config handles configuration for the fieldlog server: defaults,
// environment overlay, optional JSON file and command-line flags, plus the
// typed per-backend probes the storage adapter consumes.
package config

import "time"

// Config holds runtime settings for the fieldlog server.
type Config struct {
	Server    ServerConfig
	Local     LocalConfig
	Firestore FirestoreConfig
	S3        S3Config
	WebDAV    WebDAVConfig
	NAS       NASConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// LocalConfig describes the always-available fallback store.
type LocalConfig struct {
	DataDir string
}

// FirestoreConfig describes the primary document store.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	APIKey          string
}

// S3Config describes the object-store photo backend
// (any S3-compatible endpoint, e.g. MinIO).
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// WebDAVConfig describes the WebDAV photo backend.
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	BasePath string
}

// NAS upload methods.
const (
	NASMethodWebDAV      = "webdav"
	NASMethodHTTP        = "http"
	NASMethodFileStation = "filestation"
)

// NASConfig describes the generic HTTP / File-Station photo backend.
type NASConfig struct {
	URL          string
	Method       string // webdav | http | filestation
	HTTPEndpoint string
	HTTPToken    string
	APIUser      string
	APIPass      string
	TargetFolder string
}

// LoadDefaults populates c with development defaults. Every remote backend
// starts unconfigured; only the listener and local store have values.
func (c *Config) LoadDefaults() {
	c.Server.Addr = ":8080"
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Local.DataDir = "data"
	c.S3.Region = "us-east-1"
	c.WebDAV.BasePath = "photos"
	c.NAS.Method = NASMethodWebDAV
	c.NAS.HTTPEndpoint = "/upload"
	c.NAS.TargetFolder = "/photos"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment, an optional JSON file (-c/-config) and finally
// command-line flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
