package media

import (
	"context"
	"log"

	"github.com/roadwatch/backend/internal/models"
)

// Upload is one validated file ready for routing. Data is fully buffered so
// a failed video-host attempt can be replayed against object storage.
type Upload struct {
	FileName    string // already sanitized
	ContentType string // already resolved
	Size        int64
	Data        []byte
}

// FileRef keys an upload to its owning report and carries the report text
// the video host embeds in its metadata
type FileRef struct {
	OwnerID     string
	ReportID    string
	Title       string
	Description string
}

// Destination stores one uploaded file and yields its MediaFile record.
// The closed set of implementations is VideoDestination (video host) and
// BlobDestination (object storage).
type Destination interface {
	Store(ctx context.Context, ref FileRef, up Upload) (models.MediaFile, error)
}

// URLSigner mints a fresh short-lived signed URL for an object-storage path
type URLSigner interface {
	SignedURL(objectPath string) (string, error)
}

// Router picks a destination per file: videos go to the video host when one
// is configured, everything else goes to object storage. A failed video-host
// upload falls back to object storage once; a failure there aborts the file.
type Router struct {
	Video Destination // nil when no video host is configured
	Blob  Destination
}

// NewRouter creates a Router over the configured destinations
func NewRouter(video, blob Destination) *Router {
	return &Router{Video: video, Blob: blob}
}

// Route uploads one file to the destination its classification selects
func (r *Router) Route(ctx context.Context, ref FileRef, up Upload) (models.MediaFile, error) {
	if r.Video != nil && IsVideo(up.ContentType) {
		mf, err := r.Video.Store(ctx, ref, up)
		if err == nil {
			return mf, nil
		}
		log.Printf("Video host upload failed for %s, falling back to object storage: %v", up.FileName, err)
	}
	return r.Blob.Store(ctx, ref, up)
}
