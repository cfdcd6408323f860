package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fleet-manager/internal/config"
)

// Client uploads Parquet exports to one MinIO bucket.
type Client struct {
	mc     *minio.Client
	bucket string
}

func NewMinIO(cfg *config.Config) (*Client, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is not set")
	}
	mc, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseTLS,
	})
	if err != nil {
		return nil, err
	}
	return &Client{mc: mc, bucket: cfg.MinIOBucket}, nil
}

// UploadFile streams a local Parquet file to a date-partitioned object under
// basePath and returns the object name.
func (c *Client) UploadFile(ctx context.Context, basePath, path string, at time.Time) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}

	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket %s: %w", c.bucket, err)
		}
	}

	objPath := BuildObjectPath(basePath, at, filepath.Base(path))
	_, err = c.mc.PutObject(ctx, c.bucket, objPath, f, fi.Size(), minio.PutObjectOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objPath, err)
	}
	return objPath, nil
}

// BuildObjectPath partitions archives by the UTC day they were exported.
func BuildObjectPath(basePath string, t time.Time, file string) string {
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		basePath, t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), file)
}
