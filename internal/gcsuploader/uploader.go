package gcsuploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/spendscan/internal/logger"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

const uploadTimeout = 2 * time.Minute

// GCSStorageService reads and writes statement PDFs and analysis results in
// Google Cloud Storage. It assumes Application Default Credentials are
// configured (gcloud auth application-default login).
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// UploadFile uploads a local file to a GCS bucket under the given object name.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("UploadFile: open file %q: %w", filePath, err)
	}
	defer f.Close()

	return s.upload(ctx, bucketName, objectName, "application/pdf", f)
}

// UploadBytes writes data to bucket/object and returns the gs:// URI.
func (s *GCSStorageService) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) (string, error) {
	return s.upload(ctx, bucketName, objectName, contentType, bytes.NewReader(data))
}

func (s *GCSStorageService) upload(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("upload: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload: copy to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload: finalize %s/%s: %w", bucketName, objectName, err)
	}

	uri := ObjectURI(bucketName, objectName)
	log := logger.FromContext(ctx)
	log.Debug().Str("uri", uri).Str("content_type", contentType).Msg("Uploaded object")
	return uri, nil
}

// FetchFromGCS downloads the file bytes from the given GCS URI.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: creating storage client: %w", err)
	}
	defer storageClient.Close()

	rc, err := storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}

// ExtractFilenameFromGCSURI delegates to the package-level helper.
func (s *GCSStorageService) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}

// ObjectWriter is the write half of GCSStorageService.
type ObjectWriter interface {
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) (string, error)
}

// GCSResultStore stores analysis results as JSON objects in one bucket.
type GCSResultStore struct {
	Bucket string
	Writer ObjectWriter
}

// NewGCSResultStore creates a result store writing to bucket.
func NewGCSResultStore(bucket string, writer ObjectWriter) *GCSResultStore {
	if writer == nil {
		writer = NewGCSStorageService()
	}
	return &GCSResultStore{Bucket: bucket, Writer: writer}
}

// SaveResult implements pipeline.ResultStore.
func (s *GCSResultStore) SaveResult(ctx context.Context, name string, result *pipeline.AnalysisResult) (string, error) {
	if s.Bucket == "" {
		return "", fmt.Errorf("SaveResult: no results bucket configured")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("SaveResult: marshal result: %w", err)
	}

	uri, err := s.Writer.UploadBytes(ctx, s.Bucket, name, data, "application/json")
	if err != nil {
		return "", fmt.Errorf("SaveResult: %w", err)
	}
	return uri, nil
}

var (
	_ pipeline.StorageService = (*GCSStorageService)(nil)
	_ pipeline.ResultStore    = (*GCSResultStore)(nil)
	_ ObjectWriter            = (*GCSStorageService)(nil)
)
