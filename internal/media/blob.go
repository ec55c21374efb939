package media

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/roadwatch/backend/internal/models"
)

// BlobDestination uploads files to the object-storage bucket and mints
// short-lived signed URLs for them. Objects are keyed
// {ownerId}/{reportId}/{fileId} so a compensating cleanup job can find the
// blobs of a report that never committed.
type BlobDestination struct {
	bucket       *storage.BucketHandle
	signedURLTTL time.Duration
	timeout      time.Duration
}

// NewBlobDestination creates a BlobDestination over a bucket handle
func NewBlobDestination(bucket *storage.BucketHandle, signedURLTTL, timeout time.Duration) *BlobDestination {
	return &BlobDestination{bucket: bucket, signedURLTTL: signedURLTTL, timeout: timeout}
}

// Store writes the file to the bucket and returns its MediaFile record with
// a freshly signed URL. A signing failure is not fatal: the URL is left
// empty and the next read-path refresh mints one.
func (d *BlobDestination) Store(ctx context.Context, ref FileRef, up Upload) (models.MediaFile, error) {
	fileID := uuid.NewString()
	objectPath := fmt.Sprintf("%s/%s/%s", ref.OwnerID, ref.ReportID, fileID)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	w := d.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = up.ContentType
	if _, err := w.Write(up.Data); err != nil {
		w.Close()
		return models.MediaFile{}, fmt.Errorf("writing object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return models.MediaFile{}, fmt.Errorf("finalizing object %s: %w", objectPath, err)
	}

	url, err := d.SignedURL(objectPath)
	if err != nil {
		log.Printf("Could not sign URL for freshly uploaded %s, leaving it for lazy generation: %v", objectPath, err)
		url = ""
	}

	return models.MediaFile{
		ID:          fileID,
		FileName:    up.FileName,
		ContentType: up.ContentType,
		SizeBytes:   up.Size,
		UploadedAt:  time.Now(),
		URL:         url,
		ObjectPath:  objectPath,
	}, nil
}

// SignedURL mints a short-lived GET link for an object
func (d *BlobDestination) SignedURL(objectPath string) (string, error) {
	return d.bucket.SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(d.signedURLTTL),
	})
}
