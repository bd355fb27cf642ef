// Package gcs reads and writes message exports in Google Cloud Storage.
package gcs

import (
	"fmt"
	"path"
	"strings"
)

const scheme = "gs://"

// ParseURI splits "gs://bucket/path/to/export.json" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI builds "gs://bucket/object".
func URI(bucket, object string) string {
	return scheme + bucket + "/" + strings.TrimPrefix(object, "/")
}

// Filename extracts the filename from a GCS URI.
// e.g., "gs://bucket/exports/sms.json" → "sms.json"
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
