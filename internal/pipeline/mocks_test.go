package pipeline_test

import (
	"context"

	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/narrative"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

// MockStorageService is a mock implementation of StorageService for testing.
type MockStorageService struct {
	FetchFromGCSFunc              func(ctx context.Context, gcsURI string) ([]byte, error)
	ExtractFilenameFromGCSURIFunc func(uri string) string
}

func (m *MockStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	if m.FetchFromGCSFunc != nil {
		return m.FetchFromGCSFunc(ctx, gcsURI)
	}
	return []byte("mock pdf data"), nil
}

func (m *MockStorageService) ExtractFilenameFromGCSURI(uri string) string {
	if m.ExtractFilenameFromGCSURIFunc != nil {
		return m.ExtractFilenameFromGCSURIFunc(uri)
	}
	return "mock-file.pdf"
}

// MockExtractor is a mock implementation of extraction.Extractor for testing.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, pdfBytes []byte) (*extraction.ParsedStatement, error)
	calls       int
}

func (m *MockExtractor) Extract(ctx context.Context, pdfBytes []byte) (*extraction.ParsedStatement, error) {
	m.calls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, pdfBytes)
	}
	return &extraction.ParsedStatement{}, nil
}

// MockGenerator is a mock implementation of narrative.Generator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req narrative.Request) (*narrative.Result, error)
}

func (m *MockGenerator) Generate(ctx context.Context, req narrative.Request) (*narrative.Result, error) {
	return m.GenerateFunc(ctx, req)
}

// MockResultStore is a mock implementation of ResultStore for testing.
type MockResultStore struct {
	SaveResultFunc func(ctx context.Context, name string, result *pipeline.AnalysisResult) (string, error)
}

func (m *MockResultStore) SaveResult(ctx context.Context, name string, result *pipeline.AnalysisResult) (string, error) {
	return m.SaveResultFunc(ctx, name, result)
}

var (
	_ pipeline.StorageService = (*MockStorageService)(nil)
	_ extraction.Extractor    = (*MockExtractor)(nil)
	_ narrative.Generator     = (*MockGenerator)(nil)
	_ pipeline.ResultStore    = (*MockResultStore)(nil)
)
