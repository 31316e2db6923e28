package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

type storedObject struct {
	data        []byte
	contentType string
}

// memoryAPI is an in-memory objectAPI with injectable failures.
type memoryAPI struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]storedObject

	bucketExistsErr error
	makeBucketErr   error
	putErr          error
	getErr          error
	removeErr       error
	statErr         error
}

func newMemoryAPI() *memoryAPI {
	return &memoryAPI{buckets: map[string]bool{}, objects: map[string]storedObject{}}
}

func (m *memoryAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buckets[bucket], m.bucketExistsErr
}

func (m *memoryAPI) MakeBucket(_ context.Context, bucket string, _ minioLib.MakeBucketOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.makeBucketErr != nil {
		return m.makeBucketErr
	}
	m.buckets[bucket] = true
	return nil
}

func (m *memoryAPI) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if m.putErr != nil {
		return minioLib.UploadInfo{}, m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = storedObject{data: data, contentType: opts.ContentType}
	return minioLib.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (m *memoryAPI) GetObject(_ context.Context, bucket, key string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, minioLib.ErrorResponse{Code: codeNoSuchKey}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *memoryAPI) RemoveObject(_ context.Context, bucket, key string, _ minioLib.RemoveObjectOptions) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memoryAPI) StatObject(_ context.Context, bucket, key string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	if m.statErr != nil {
		return minioLib.ObjectInfo{}, m.statErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return minioLib.ObjectInfo{}, minioLib.ErrorResponse{Code: codeNoSuchKey}
	}
	return minioLib.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func TestNewClient_Bucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket", func(t *testing.T) {
		api := newMemoryAPI()
		api.buckets["evidence"] = true
		c, err := newClient(ctx, api, "evidence")
		require.NoError(t, err)
		assert.Equal(t, "evidence", c.bucket)
	})

	t.Run("creates missing bucket", func(t *testing.T) {
		api := newMemoryAPI()
		_, err := newClient(ctx, api, "evidence")
		require.NoError(t, err)
		assert.True(t, api.buckets["evidence"])
	})

	t.Run("lost creation race", func(t *testing.T) {
		api := newMemoryAPI()
		api.makeBucketErr = minioLib.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}
		_, err := newClient(ctx, api, "evidence")
		require.NoError(t, err)
	})

	t.Run("existence check fails", func(t *testing.T) {
		api := newMemoryAPI()
		api.bucketExistsErr = errors.New("boom")
		c, err := newClient(ctx, api, "evidence")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to ensure bucket exists")
	})

	t.Run("creation fails", func(t *testing.T) {
		api := newMemoryAPI()
		api.makeBucketErr = errors.New("denied")
		c, err := newClient(ctx, api, "evidence")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to create bucket")
	})
}

func TestClient_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	api := newMemoryAPI()
	c, err := newClient(ctx, api, "evidence")
	require.NoError(t, err)

	key := "evidence/student/card.png"
	payload := []byte("\x89PNG fake image")
	require.NoError(t, c.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), "image/png"))
	assert.Equal(t, "image/png", api.objects["evidence/"+key].contentType)

	ok, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := c.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)

	require.NoError(t, c.Delete(ctx, key))

	ok, err = c.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Download(ctx, key)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("upload", func(t *testing.T) {
		c := &Client{api: &memoryAPI{putErr: boom}, bucket: "b"}
		err := c.Upload(ctx, "k", bytes.NewReader(nil), 0, "image/png")
		require.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "failed to upload object k")
	})

	t.Run("download", func(t *testing.T) {
		c := &Client{api: &memoryAPI{getErr: boom}, bucket: "b"}
		rc, err := c.Download(ctx, "k")
		assert.Nil(t, rc)
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		c := &Client{api: &memoryAPI{removeErr: boom}, bucket: "b"}
		assert.ErrorContains(t, c.Delete(ctx, "k"), "failed to delete object k")
	})

	t.Run("stat", func(t *testing.T) {
		c := &Client{api: &memoryAPI{statErr: boom}, bucket: "b"}
		ok, err := c.Exists(ctx, "k")
		assert.False(t, ok)
		assert.ErrorContains(t, err, "failed to stat object k")
	})
}

func TestClient_Ping(t *testing.T) {
	api := newMemoryAPI()
	c, err := newClient(context.Background(), api, "evidence")
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))

	api.mu.Lock()
	delete(api.buckets, "evidence")
	api.mu.Unlock()
	assert.ErrorContains(t, c.Ping(context.Background()), "does not exist")

	api.bucketExistsErr = errors.New("dial tcp: refused")
	assert.ErrorContains(t, c.Ping(context.Background()), "failed to check bucket existence")
}
