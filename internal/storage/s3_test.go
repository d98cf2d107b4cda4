package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 is a thread-safe in-memory S3 backend.
type mockS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	bucketReady bool
	created     int

	headErr error
	putErr  error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	m.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bucketReady {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (m *mockS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucketReady = true
	m.created++
	return &s3.CreateBucketOutput{}, nil
}

func (m *mockS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by mock")
}

func (m *mockS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by mock")
}

func (m *mockS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by mock")
}

func (m *mockS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

// realPresigner signs against a fixed HTTPS endpoint without network access.
func realPresigner() *s3.PresignClient {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
		BaseEndpoint: aws.String("https://storage.example.com"),
		UsePathStyle: true,
	})
	return s3.NewPresignClient(client)
}

func TestS3StorageUploadDownload(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	store := NewS3StorageWithClient(mock, realPresigner(), "images-bucket", StorageTypeS3Compatible)

	exists, err := store.Exists(ctx, "images/a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	payload := []byte("png bytes")
	require.NoError(t, store.Upload(ctx, "images/a.png", bytes.NewReader(payload), int64(len(payload)), "image/png"))
	assert.Equal(t, "image/png", mock.types["images/a.png"])

	exists, err = store.Exists(ctx, "images/a.png")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := store.Download(ctx, "images/a.png")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "images/a.png"))
	_, err = store.Download(ctx, "images/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StorageErrors(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	store := NewS3StorageWithClient(mock, realPresigner(), "b", StorageTypeS3)

	mock.headErr = &apiError{code: "AccessDenied"}
	_, err := store.Exists(ctx, "k")
	assert.Error(t, err)

	mock.putErr = errors.New("connection reset")
	err = store.Upload(ctx, "k", strings.NewReader("x"), 1, "image/jpeg")
	assert.ErrorContains(t, err, "failed to upload object")
}

func TestS3StorageEnsureBucket(t *testing.T) {
	ctx := context.Background()

	mock := newMockS3()
	store := NewS3StorageWithClient(mock, realPresigner(), "b", StorageTypeS3Compatible)
	require.NoError(t, store.EnsureBucket(ctx))
	require.NoError(t, store.EnsureBucket(ctx))
	assert.Equal(t, 1, mock.created)

	r2 := NewS3StorageWithClient(newMockS3(), realPresigner(), "b", StorageTypeR2)
	assert.ErrorContains(t, r2.EnsureBucket(ctx), "R2 dashboard")
}

func TestS3StorageSignedURL(t *testing.T) {
	ctx := context.Background()
	store := NewS3StorageWithClient(newMockS3(), realPresigner(), "images-bucket", StorageTypeS3Compatible)

	t.Run("with disposition", func(t *testing.T) {
		raw, err := store.SignedURL(ctx, "images/abc.jpg", time.Hour, "attachment; filename=cat.jpg")
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "https", u.Scheme)
		assert.Equal(t, "/images-bucket/images/abc.jpg", u.Path)
		assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
		assert.Equal(t, "attachment; filename=cat.jpg", u.Query().Get("response-content-disposition"))
	})

	t.Run("without disposition", func(t *testing.T) {
		raw, err := store.SignedURL(ctx, "images/abc.jpg", time.Hour, "")
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Empty(t, u.Query().Get("response-content-disposition"))
	})
}

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"https://acct.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.us-east-1.amazonaws.com", StorageTypeS3},
		{"", StorageTypeS3},
		{"localhost:9000", StorageTypeS3Compatible},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, detectStorageType(tt.endpoint))
		})
	}
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://minio.local:9000", endpointURL("http://minio.local:9000/some/path", true))
	assert.Equal(t, "http://minio.local:9000", endpointURL("minio.local:9000", false))
}
