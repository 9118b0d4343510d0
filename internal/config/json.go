package config

import (
	"encoding/json"
	"os"

	"github.com/fieldops/fieldlog/internal/flagx"
	"github.com/fieldops/fieldlog/internal/timex"
)

// JsonConfig is the DTO for the optional JSON configuration file. Durations
// accept both "10s" strings and integer nanoseconds via timex.Duration.
// Only fields present and non-empty in the file are copied into Config.
type JsonConfig struct {
	ServerAddr      string         `json:"server_addr"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	DataDir         string         `json:"data_dir"`

	FirestoreProjectID       string `json:"firestore_project_id"`
	FirestoreCredentialsFile string `json:"firestore_credentials_file"`
	FirestoreAPIKey          string `json:"firestore_api_key"`

	S3User     string `json:"s3_user"`
	S3Password string `json:"s3_password"`
	S3Bucket   string `json:"s3_bucket"`
	S3Region   string `json:"s3_region"`
	S3Endpoint string `json:"s3_endpoint"`

	WebDAVURL      string `json:"webdav_url"`
	WebDAVUsername string `json:"webdav_username"`
	WebDAVPassword string `json:"webdav_password"`
	WebDAVBasePath string `json:"webdav_base_path"`

	NASURL          string `json:"nas_url"`
	NASMethod       string `json:"nas_upload_method"`
	NASHTTPEndpoint string `json:"nas_http_endpoint"`
	NASHTTPToken    string `json:"nas_http_token"`
	NASAPIUser      string `json:"nas_api_user"`
	NASAPIPass      string `json:"nas_api_pass"`
	NASTargetFolder string `json:"nas_target_folder"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any. A missing flag means no file is loaded; an
// unreadable or invalid file panics, since running with half-applied
// configuration would silently change which backends are probed Ready.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.Server.Addr, c.ServerAddr)
	if c.ShutdownTimeout.Duration > 0 {
		config.Server.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	overlay(&config.Local.DataDir, c.DataDir)

	overlay(&config.Firestore.ProjectID, c.FirestoreProjectID)
	overlay(&config.Firestore.CredentialsFile, c.FirestoreCredentialsFile)
	overlay(&config.Firestore.APIKey, c.FirestoreAPIKey)

	overlay(&config.S3.User, c.S3User)
	overlay(&config.S3.Password, c.S3Password)
	overlay(&config.S3.Bucket, c.S3Bucket)
	overlay(&config.S3.Region, c.S3Region)
	overlay(&config.S3.BaseEndpoint, c.S3Endpoint)

	overlay(&config.WebDAV.URL, c.WebDAVURL)
	overlay(&config.WebDAV.Username, c.WebDAVUsername)
	overlay(&config.WebDAV.Password, c.WebDAVPassword)
	overlay(&config.WebDAV.BasePath, c.WebDAVBasePath)

	overlay(&config.NAS.URL, c.NASURL)
	overlay(&config.NAS.Method, c.NASMethod)
	overlay(&config.NAS.HTTPEndpoint, c.NASHTTPEndpoint)
	overlay(&config.NAS.HTTPToken, c.NASHTTPToken)
	overlay(&config.NAS.APIUser, c.NASAPIUser)
	overlay(&config.NAS.APIPass, c.NASAPIPass)
	overlay(&config.NAS.TargetFolder, c.NASTargetFolder)
}

func overlay(target *string, value string) {
	if value != "" {
		*target = value
	}
}
