package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/roadwatch/backend/internal/models"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// VideoDestination uploads videos to the YouTube video host. The provider's
// video id becomes the MediaFile id and the permanent watch URL never needs
// refreshing. Every upload is bounded by a deadline so a slow provider
// cannot hold a request goroutine open indefinitely.
type VideoDestination struct {
	service *youtube.Service
	timeout time.Duration
}

// NewVideoDestination creates a VideoDestination from a credentials file
func NewVideoDestination(ctx context.Context, credentialsPath string, timeout time.Duration) (*VideoDestination, error) {
	service, err := youtube.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing youtube service: %w", err)
	}
	return &VideoDestination{service: service, timeout: timeout}, nil
}

// Store uploads one video, titled after the report and the sanitized
// filename, with the report description embedded in the video description
func (d *VideoDestination) Store(ctx context.Context, ref FileRef, up Upload) (models.MediaFile, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       fmt.Sprintf("%s - %s", ref.Title, up.FileName),
			Description: fmt.Sprintf("Incident report: %s", ref.Description),
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "unlisted"},
	}

	call := d.service.Videos.Insert([]string{"snippet", "status"}, video)
	uploaded, err := call.Media(bytes.NewReader(up.Data)).Context(ctx).Do()
	if err != nil {
		return models.MediaFile{}, fmt.Errorf("uploading video %s: %w", up.FileName, err)
	}

	return models.MediaFile{
		ID:          uploaded.Id,
		FileName:    up.FileName,
		ContentType: up.ContentType,
		SizeBytes:   up.Size,
		UploadedAt:  time.Now(),
		URL:         watchURLPrefix + uploaded.Id,
	}, nil
}
