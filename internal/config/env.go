package config

import "os"

// parseEnv overlays values from environment variables. godotenv loads .env
// into the environment before this runs, so both plain env vars and .env
// files land here.
func parseEnv(c *Config) {
	setIfPresent(&c.Server.Addr, "SERVER_ADDR")
	setIfPresent(&c.Local.DataDir, "DATA_DIR")

	setIfPresent(&c.Firestore.ProjectID, "FIRESTORE_PROJECT_ID")
	setIfPresent(&c.Firestore.CredentialsFile, "FIRESTORE_CREDENTIALS_FILE")
	setIfPresent(&c.Firestore.APIKey, "FIRESTORE_API_KEY")

	setIfPresent(&c.S3.User, "S3_USER")
	setIfPresent(&c.S3.Password, "S3_PASSWORD")
	setIfPresent(&c.S3.Bucket, "S3_BUCKET")
	setIfPresent(&c.S3.Region, "S3_REGION")
	setIfPresent(&c.S3.BaseEndpoint, "S3_ENDPOINT")

	setIfPresent(&c.WebDAV.URL, "WEBDAV_URL")
	setIfPresent(&c.WebDAV.Username, "WEBDAV_USERNAME")
	setIfPresent(&c.WebDAV.Password, "WEBDAV_PASSWORD")
	setIfPresent(&c.WebDAV.BasePath, "WEBDAV_BASE_PATH")

	setIfPresent(&c.NAS.URL, "NAS_URL")
	setIfPresent(&c.NAS.Method, "NAS_UPLOAD_METHOD")
	setIfPresent(&c.NAS.HTTPEndpoint, "NAS_HTTP_ENDPOINT")
	setIfPresent(&c.NAS.HTTPToken, "NAS_HTTP_TOKEN")
	setIfPresent(&c.NAS.APIUser, "NAS_API_USER")
	setIfPresent(&c.NAS.APIPass, "NAS_API_PASS")
	setIfPresent(&c.NAS.TargetFolder, "NAS_TARGET_FOLDER")
}

func setIfPresent(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}
