// Package media adapts the S3-compatible object store that hosts profile
// images. The service layer only sees Uploader: upload a local file and get
// back a durable URL plus an asset id, or delete a previously uploaded asset
// by id.
package media

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/user/vidstream-go/config"
)

// Asset identifies an uploaded file on the media store. URL is the public
// address served to clients; ID is the opaque storage key used for deletion.
type Asset struct {
	URL string
	ID  string
}

// Uploader is the interface the account services depend on.
type Uploader interface {
	// Upload pushes the file at localPath to the media store. The local file
	// is removed exactly once, whether the upload succeeds or not.
	Upload(ctx context.Context, localPath string) (*Asset, error)
	// Delete removes a remote asset by id. Failures are swallowed and
	// reported as false; the caller decides whether that is fatal.
	Delete(ctx context.Context, assetID string) bool
}

// s3API is the slice of the S3 client the uploader actually uses. Tests
// substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader implements Uploader against an S3-compatible endpoint such as
// MinIO or AWS S3.
type S3Uploader struct {
	client   s3API
	bucket   string
	endpoint string
}

// NewS3Uploader builds the S3 client from the media configuration using
// static credentials and a custom base endpoint.
func NewS3Uploader(cfg *config.MediaConfig) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load media store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
	}, nil
}

// newStorageKey returns a date-partitioned object key so buckets stay
// browsable and keys never collide.
func newStorageKey(localPath string) string {
	d := time.Now()
	return fmt.Sprintf("images/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), filepath.Ext(localPath))
}

// Upload implements Uploader. The temporary file is removed on every path.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (*Asset, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.Printf("warning: failed to remove temp upload %s: %v", localPath, err)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", localPath, err)
	}
	defer f.Close()

	key := newStorageKey(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	return &Asset{
		URL: fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key),
		ID:  key,
	}, nil
}

// Delete implements Uploader.
func (u *S3Uploader) Delete(ctx context.Context, assetID string) bool {
	if assetID == "" {
		return false
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		log.Printf("warning: failed to delete media asset %s: %v", assetID, err)
		return false
	}
	return true
}
