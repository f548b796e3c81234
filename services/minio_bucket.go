package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ClientMinio interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioBucket stores assets in an S3 compatible bucket.
type MinioBucket struct {
	client     ClientMinio
	bucketName string
	publicBase string
}

// NewMinioBucket creates a client for endpoint. publicBase is the externally
// reachable origin of the bucket; it defaults to the endpoint itself.
func NewMinioBucket(endpoint, accessKeyID, secretAccessKey, bucketName, publicBase string, useSSL bool) (*MinioBucket, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	if publicBase == "" {
		publicBase = minioClient.EndpointURL().String()
	}
	return newMinioBucket(minioClient, bucketName, publicBase), nil
}

func newMinioBucket(client ClientMinio, bucketName, publicBase string) *MinioBucket {
	return &MinioBucket{
		client:     client,
		bucketName: bucketName,
		publicBase: fmt.Sprintf("%s/%s", strings.TrimRight(publicBase, "/"), bucketName),
	}
}

func (mb *MinioBucket) Upload(ctx context.Context, path string, object io.Reader, size int64, contentType string) (string, error) {
	if _, err := mb.client.PutObject(ctx,
		mb.bucketName,
		path,
		object,
		size,
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return mb.publicBase + "/" + path, nil
}

// Remove reports ErrAssetNotFound for a missing object. S3 deletes are
// idempotent, so the object is stat'ed first.
func (mb *MinioBucket) Remove(ctx context.Context, path string) error {
	if _, err := mb.client.StatObject(ctx, mb.bucketName, path, minio.StatObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return ErrAssetNotFound
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := mb.client.RemoveObject(ctx, mb.bucketName, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (mb *MinioBucket) PathFromURL(publicURL string) (string, bool) {
	return pathFromURL(mb.publicBase, publicURL)
}
