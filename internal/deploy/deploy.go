// Package deploy publishes a static export to an S3-compatible bucket.
package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

// ObjectStore is the subset of *minio.Client used by Deployer.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// contentTypes covers the files an export produces; anything else falls back
// to the mime package.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".json": "application/json",
	".xml":  "application/xml",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".svg":  "image/svg+xml",
	".txt":  "text/plain; charset=utf-8",
}

// ContentType returns the Content-Type for an object key.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Object is one file scheduled for upload.
type Object struct {
	Key         string `json:"key"`
	File        string `json:"file"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Result summarises a deploy.
type Result struct {
	Bucket        string        `json:"bucket"`
	Objects       []Object      `json:"objects"`
	Bytes         int64         `json:"bytes"`
	BucketCreated bool          `json:"bucketCreated"`
	Duration      time.Duration `json:"duration"`
}

// Deployer uploads a directory tree to a bucket.
type Deployer struct {
	store  ObjectStore
	cfg    config.DeployConfig
	logger logging.Logger
}

// New connects to the configured endpoint.
func New(cfg config.DeployConfig, logger logging.Logger) (*Deployer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.ConfigurationError("deploy.endpoint", fmt.Sprintf("init minio: %v", err), cfg.Endpoint)
	}
	return NewWithStore(client, cfg, logger), nil
}

// NewWithStore returns a Deployer backed by store.
func NewWithStore(store ObjectStore, cfg config.DeployConfig, logger logging.Logger) *Deployer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Deployer{store: store, cfg: cfg, logger: logger.WithComponent("deploy")}
}

// Plan lists the objects Deploy would upload from dir, sorted by key.
// Hidden files and directories are skipped.
func (d *Deployer) Plan(dir string) ([]Object, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "deploy source not found", err).WithLocation(dir, 0)
	}
	if !info.IsDir() {
		return nil, errors.NewIOError(errors.ErrCodeInvalidPath, "deploy source is not a directory", nil).WithLocation(dir, 0)
	}

	var objects []Object
	err = filepath.WalkDir(dir, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p != dir && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		key := d.Key(filepath.ToSlash(rel))
		objects = append(objects, Object{Key: key, File: p, ContentType: ContentType(key), Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorage, "cannot read deploy source", err).WithLocation(dir, 0)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Key joins the configured prefix and a slash-separated relative path.
func (d *Deployer) Key(rel string) string {
	prefix := strings.Trim(d.cfg.Prefix, "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// EnsureBucket creates the bucket when missing and reports whether it did.
func (d *Deployer) EnsureBucket(ctx context.Context) (bool, error) {
	exists, err := d.store.BucketExists(ctx, d.cfg.Bucket)
	if err != nil {
		return false, errors.NewIOError(errors.ErrCodeStorage, "check bucket", err).WithContext("bucket", d.cfg.Bucket)
	}
	if exists {
		return false, nil
	}
	if err := d.store.MakeBucket(ctx, d.cfg.Bucket, minio.MakeBucketOptions{Region: d.cfg.Region}); err != nil {
		return false, errors.NewIOError(errors.ErrCodeStorage, "make bucket", err).WithContext("bucket", d.cfg.Bucket)
	}
	d.logger.Info(ctx, "created bucket", "bucket", d.cfg.Bucket)
	return true, nil
}

// Deploy uploads every file under dir.
func (d *Deployer) Deploy(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()

	objects, err := d.Plan(dir)
	if err != nil {
		return nil, err
	}
	created, err := d.EnsureBucket(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Bucket: d.cfg.Bucket, BucketCreated: created}
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := d.store.FPutObject(ctx, d.cfg.Bucket, obj.Key, obj.File, minio.PutObjectOptions{ContentType: obj.ContentType})
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeStorage, "upload object", err).
				WithContext("bucket", d.cfg.Bucket).
				WithContext("key", obj.Key)
		}
		d.logger.Debug(ctx, "uploaded object", "key", obj.Key, "bytes", info.Size)
		result.Objects = append(result.Objects, obj)
		result.Bytes += obj.Size
	}

	result.Duration = time.Since(start)
	d.logger.Info(ctx, "deploy complete", "bucket", d.cfg.Bucket, "objects", len(result.Objects), "duration", result.Duration.String())
	return result, nil
}
