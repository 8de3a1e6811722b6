// Package publish ships a finished build output to its servable or durable
// destinations: a local static root, an S3 bucket, or a ZIP archive.
package publish

import "context"

// Location identifies one published file.
type Location struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Publisher copies every regular file under outputDir to a destination
// namespaced by projectID. Implementations must treat outputDir as read-only.
type Publisher interface {
	Publish(ctx context.Context, outputDir string, projectID string) ([]Location, error)
}
