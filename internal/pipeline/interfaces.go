package pipeline

import (
	"context"
)

// StorageService is an interface for storage operations.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	ExtractFilenameFromGCSURI(uri string) string
}

// ResultStore persists a finished analysis and returns where it went.
type ResultStore interface {
	SaveResult(ctx context.Context, name string, result *AnalysisResult) (string, error)
}
