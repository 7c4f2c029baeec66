package rubric

import (
	"context"
)

// AllowedUploadExtensions defines the whitelist of rubric upload formats.
// PDF is deliberately absent: extracting rubric tables from PDF files is too
// lossy to parse reliably, so uploads must be JSON or Word documents.
var AllowedUploadExtensions = map[string]bool{
	".json": true,
	".docx": true,
	".doc":  true,
}

// ObjectStorage defines the interface for persisting uploaded rubric
// originals. This interface will be implemented by the infrastructure layer
// (local disk, S3-compatible stores).
type ObjectStorage interface {
	// Upload stores an object under the given key
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Download retrieves an object's content and content type by key
	Download(ctx context.Context, key string) ([]byte, string, error)

	// Delete removes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is stored under the given key
	Exists(ctx context.Context, key string) (bool, error)
}
