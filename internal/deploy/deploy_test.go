package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/config"
	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/testutils"
)

type fakeStore struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string]minio.PutObjectOptions
	putErr   error
	existErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string]minio.PutObjectOptions{}}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[bucket], f.existErr
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, bucket, key, file string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	info, err := os.Stat(file)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: info.Size()}, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, files)
	return dir
}

func TestContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "index.html", want: "text/html; charset=utf-8"},
		{key: "projects.json", want: "application/json"},
		{key: "sitemap.xml", want: "application/xml"},
		{key: "assets/site.CSS", want: "text/css; charset=utf-8"},
		{key: "cover.png", want: "image/png"},
		{key: "LICENSE", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.key))
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "projects/index.html"},
		{prefix: "site", want: "site/projects/index.html"},
		{prefix: "/site/v2/", want: "site/v2/projects/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			d := NewWithStore(newFakeStore(), config.DeployConfig{Prefix: tt.prefix}, nil)
			assert.Equal(t, tt.want, d.Key("projects/index.html"))
		})
	}
}

func TestPlan(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":                "<html></html>",
		"projects/folio/index.html": "<html></html>",
		"projects.json":             "[]",
		".DS_Store":                 "x",
		".cache/tmp.html":           "x",
	})

	d := NewWithStore(newFakeStore(), config.DeployConfig{Bucket: "site", Prefix: "www"}, nil)
	objects, err := d.Plan(dir)
	require.NoError(t, err)

	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = o.Key
	}
	assert.Equal(t, []string{"www/index.html", "www/projects.json", "www/projects/folio/index.html"}, keys)
	assert.Equal(t, "application/json", objects[1].ContentType)
	assert.Equal(t, int64(2), objects[1].Size)
}

func TestPlanMissingDirectory(t *testing.T) {
	d := NewWithStore(newFakeStore(), config.DeployConfig{Bucket: "site"}, nil)

	_, err := d.Plan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, folioerrors.HasErrorCode(err, folioerrors.ErrCodeFileNotFound))
}

func TestDeploy(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":  "<html></html>",
		"sitemap.xml": "<urlset/>",
	})
	store := newFakeStore()
	d := NewWithStore(store, config.DeployConfig{Bucket: "site"}, nil)

	result, err := d.Deploy(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, result.BucketCreated)
	assert.Len(t, result.Objects, 2)
	assert.Equal(t, int64(len("<html></html>")+len("<urlset/>")), result.Bytes)
	assert.Equal(t, "text/html; charset=utf-8", store.objects["site/index.html"].ContentType)
	assert.Equal(t, "application/xml", store.objects["site/sitemap.xml"].ContentType)

	result, err = d.Deploy(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, result.BucketCreated)
}

func TestDeployErrors(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": "x"})
	boom := errors.New("connection refused")

	t.Run("bucket check", func(t *testing.T) {
		store := newFakeStore()
		store.existErr = boom
		_, err := NewWithStore(store, config.DeployConfig{Bucket: "site"}, nil).Deploy(context.Background(), dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.True(t, folioerrors.HasErrorCode(err, folioerrors.ErrCodeStorage))
	})

	t.Run("upload", func(t *testing.T) {
		store := newFakeStore()
		store.putErr = boom
		_, err := NewWithStore(store, config.DeployConfig{Bucket: "site"}, nil).Deploy(context.Background(), dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewWithStore(newFakeStore(), config.DeployConfig{Bucket: "site"}, nil).Deploy(ctx, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(config.DeployConfig{Bucket: "site"}, nil)
	require.Error(t, err)
	assert.True(t, folioerrors.HasErrorType(err, folioerrors.ErrorTypeConfig))

	d, err := New(config.DeployConfig{Endpoint: "localhost:9000", Bucket: "site"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, d)
}
