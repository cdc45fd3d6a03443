package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putErr    error
	deleteErr error
	putKeys   []string
	putBodies []string
	deleted   []string
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.putKeys = append(f.putKeys, *params.Key)
	f.putBodies = append(f.putBodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestUploader(client s3API) *S3Uploader {
	return &S3Uploader{
		client:   client,
		bucket:   "vidstream-media",
		endpoint: "http://localhost:9000",
	}
}

func spoolTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUploadPushesFileAndRemovesIt(t *testing.T) {
	client := &fakeS3{}
	uploader := newTestUploader(client)
	path := spoolTestFile(t, "avatar.png", "image bytes")

	asset, err := uploader.Upload(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, client.putKeys, 1)
	assert.Equal(t, client.putKeys[0], asset.ID)
	assert.Equal(t, "image bytes", client.putBodies[0])

	assert.True(t, strings.HasPrefix(asset.URL, "http://localhost:9000/vidstream-media/images/"))
	assert.True(t, strings.HasSuffix(asset.ID, ".png"))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "temp file must be removed after upload")
}

func TestUploadRemovesFileOnFailure(t *testing.T) {
	client := &fakeS3{putErr: errors.New("bucket gone")}
	uploader := newTestUploader(client)
	path := spoolTestFile(t, "avatar.png", "image bytes")

	_, err := uploader.Upload(context.Background(), path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "temp file must be removed even when the upload fails")
}

func TestUploadMissingFile(t *testing.T) {
	uploader := newTestUploader(&fakeS3{})

	_, err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	client := &fakeS3{}
	uploader := newTestUploader(client)

	assert.True(t, uploader.Delete(context.Background(), "images/2026/08/28/abc.png"))
	assert.Equal(t, []string{"images/2026/08/28/abc.png"}, client.deleted)
}

func TestDeleteSwallowsErrors(t *testing.T) {
	uploader := newTestUploader(&fakeS3{deleteErr: errors.New("access denied")})

	assert.False(t, uploader.Delete(context.Background(), "images/2026/08/28/abc.png"))
}

func TestDeleteEmptyID(t *testing.T) {
	client := &fakeS3{}
	uploader := newTestUploader(client)

	assert.False(t, uploader.Delete(context.Background(), ""))
	assert.Empty(t, client.deleted)
}

func TestStorageKeysDoNotCollide(t *testing.T) {
	a := newStorageKey("/tmp/one.jpg")
	b := newStorageKey("/tmp/one.jpg")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"))
}
