package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// S3API is the subset of the S3 client used by BlobStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Presigner produces presigned GET requests for direct browser downloads.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// DownloadURLTTL is how long presigned document links stay valid.
const DownloadURLTTL = 15 * time.Minute

// BlobStore keeps document bytes in S3, keyed per org and patient.
type BlobStore struct {
	bucket    string
	s3Client  S3API
	presigner Presigner
	logger    *logging.Logger
}

// NewBlobStore creates a BlobStore. If bucket is empty the store is disabled
// and uploads fail with ErrStoreDisabled.
func NewBlobStore(s3Client S3API, presigner Presigner, bucket string, logger *logging.Logger) *BlobStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &BlobStore{bucket: bucket, s3Client: s3Client, presigner: presigner, logger: logger}
}

// Enabled returns true if a bucket and client are configured.
func (s *BlobStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Key builds the object key for a document.
func (s *BlobStore) Key(orgID string, patientID, docID uuid.UUID) string {
	return fmt.Sprintf("documents/v1/%s/%s/%s", orgID, patientID, docID)
}

// Put uploads document bytes.
func (s *BlobStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if !s.Enabled() {
		return ErrStoreDisabled
	}
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("documents: s3 put %s: %w", key, err)
	}
	s.logger.Info("document stored", "s3_key", key, "bytes", len(data))
	return nil
}

// Get fetches document bytes.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrStoreDisabled
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("documents: s3 get %s: %w", key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("documents: read s3 body: %w", err)
	}
	return data, nil
}

// DownloadURL returns a time-limited presigned link for the object, or an
// empty string when no presigner is configured.
func (s *BlobStore) DownloadURL(ctx context.Context, key string) (string, error) {
	if !s.Enabled() || s.presigner == nil {
		return "", nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = DownloadURLTTL
	})
	if err != nil {
		return "", fmt.Errorf("documents: presign %s: %w", key, err)
	}
	return req.URL, nil
}
