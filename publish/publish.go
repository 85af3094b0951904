// Package publish copies the files a run wrote to an S3-compatible bucket.
package publish

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"

	"github.com/invertedv/censusdf/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultRegion = "us-east-1"

var contentTypes = map[string]string{
	".json": "application/json",
	".js":   "application/javascript",
	".csv":  "text/csv",
	".png":  "image/png",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Bucket is a connected destination.
type Bucket struct {
	client *minio.Client
	name   string
	prefix string
	region string
}

// New connects to the bucket cfg names. The bucket is created on first upload if it does not exist.
func New(cfg config.Publish) (*Bucket, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("publish endpoint is required")
	}

	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("publish bucket is required")
	}

	access, secret := strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("publish access key and secret key are required")
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, e := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if e != nil {
		return nil, fmt.Errorf("init s3 client: %w", e)
	}

	return &Bucket{client: client, name: bucket, prefix: cfg.Prefix, region: region}, nil
}

// Upload copies each file to the bucket under the prefix. It returns the object keys written.
func (b *Bucket) Upload(ctx context.Context, files ...string) ([]string, error) {
	if e := b.ensure(ctx); e != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", b.name, e)
	}

	var keys []string
	for _, f := range files {
		key := ObjectKey(b.prefix, f)
		info, e := b.client.FPutObject(ctx, b.name, key, f, minio.PutObjectOptions{ContentType: ContentType(f)})
		if e != nil {
			return keys, fmt.Errorf("upload %s: %w", f, e)
		}

		log.Printf("published %s/%s (%d bytes)", b.name, key, info.Size)
		keys = append(keys, key)
	}

	return keys, nil
}

func (b *Bucket) ensure(ctx context.Context) error {
	exists, e := b.client.BucketExists(ctx, b.name)
	if e != nil {
		return e
	}

	if exists {
		return nil
	}

	return b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{Region: b.region})
}

// Upload connects with cfg and uploads files.
func Upload(ctx context.Context, cfg config.Publish, files ...string) ([]string, error) {
	b, e := New(cfg)
	if e != nil {
		return nil, e
	}

	return b.Upload(ctx, files...)
}

// ObjectKey is prefix/<base name of file>.
func ObjectKey(prefix, file string) string {
	name := filepath.Base(file)
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name
	}

	return path.Join(prefix, name)
}

// ContentType picks the MIME type from the file extension.
func ContentType(file string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(file))]; ok {
		return ct
	}

	return "application/octet-stream"
}
