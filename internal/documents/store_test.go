package documents

import (
	"bytes"
	"context"
	"io"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls []putCall
	objects  map[string][]byte
}

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        []byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket:      *input.Bucket,
		key:         *input.Key,
		contentType: *input.ContentType,
		body:        body,
	})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &notFoundError{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type notFoundError struct{}

func (e *notFoundError) Error() string { return "NoSuchKey: key not found" }

type mockPresigner struct {
	url string
}

func (m *mockPresigner) PresignGetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: m.url + *input.Key}, nil
}

func TestBlobStore_PutAndGet(t *testing.T) {
	mock := newMockS3()
	store := NewBlobStore(mock, nil, "clinic-docs", nil)

	key := store.Key("org-1", uuid.New(), uuid.New())
	err := store.Put(context.Background(), key, "application/pdf", []byte("pdf-bytes"))
	require.NoError(t, err)

	require.Len(t, mock.putCalls, 1)
	assert.Equal(t, "clinic-docs", mock.putCalls[0].bucket)
	assert.Equal(t, "application/pdf", mock.putCalls[0].contentType)

	data, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-bytes"), data)
}

func TestBlobStore_DisabledWithoutBucket(t *testing.T) {
	store := NewBlobStore(newMockS3(), nil, "", nil)

	assert.False(t, store.Enabled())
	err := store.Put(context.Background(), "k", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, ErrStoreDisabled)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStoreDisabled)
}

func TestBlobStore_DownloadURL(t *testing.T) {
	store := NewBlobStore(newMockS3(), &mockPresigner{url: "https://s3.example/"}, "clinic-docs", nil)

	url, err := store.DownloadURL(context.Background(), "documents/v1/org-1/p/d")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/documents/v1/org-1/p/d", url)
}

func TestBlobStore_DownloadURLWithoutPresigner(t *testing.T) {
	store := NewBlobStore(newMockS3(), nil, "clinic-docs", nil)

	url, err := store.DownloadURL(context.Background(), "some/key")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestBlobStore_KeyScopesOrgAndPatient(t *testing.T) {
	store := NewBlobStore(newMockS3(), nil, "clinic-docs", nil)
	patientID := uuid.New()
	docID := uuid.New()

	key := store.Key("org-1", patientID, docID)
	assert.Equal(t, "documents/v1/org-1/"+patientID.String()+"/"+docID.String(), key)
}
