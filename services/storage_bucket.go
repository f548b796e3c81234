package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

const gcsPublicHost = "https://storage.googleapis.com"

// StorageBucket stores assets in the firebase project's cloud storage bucket.
type StorageBucket struct {
	*storage.BucketHandle
	name string
}

func NewStorageBucket(ctx context.Context, app *firebase.App, bucketName string) (*StorageBucket, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, err
	}
	bucketHandle, err := client.Bucket(bucketName)
	if err != nil {
		return nil, err
	}

	return &StorageBucket{
		BucketHandle: bucketHandle,
		name:         bucketName,
	}, nil
}

func (sb *StorageBucket) Upload(ctx context.Context, path string, object io.Reader, size int64, contentType string) (string, error) {
	writer := sb.Object(path).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache"
	if _, err := io.Copy(writer, object); err != nil {
		writer.Close()
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return sb.publicBase() + "/" + path, nil
}

func (sb *StorageBucket) Remove(ctx context.Context, path string) error {
	if err := sb.Object(path).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrAssetNotFound
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (sb *StorageBucket) PathFromURL(publicURL string) (string, bool) {
	return pathFromURL(sb.publicBase(), publicURL)
}

func (sb *StorageBucket) publicBase() string {
	return fmt.Sprintf("%s/%s", gcsPublicHost, sb.name)
}
