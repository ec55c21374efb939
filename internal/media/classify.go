package media

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/roadwatch/backend/internal/apperrors"
)

const maxFileNameLen = 100

// videoExtensions covers the container formats clients actually send; the
// system table consulted by mime.TypeByExtension is thin on video types on
// some platforms.
var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".3gp":  "video/3gpp",
}

// ResolveContentType returns the effective content type for an upload,
// sniffing from the file extension when the declared type is empty or a
// generic octet-stream
func ResolveContentType(fileName, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ct, ok := videoExtensions[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		// strip any charset parameter
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = ct[:i]
		}
		return ct
	}
	return ""
}

// IsVideo reports whether a content type classifies the file as video
func IsVideo(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

// IsImage reports whether a content type classifies the file as an image
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// SanitizeFileName strips path separators and parent-directory sequences,
// replaces unsafe characters with underscores and caps the length
func SanitizeFileName(name string) string {
	// drop any directory components a hostile client may have embedded
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()
	if sanitized == "" || sanitized == "." {
		sanitized = "file"
	}
	if len(sanitized) > maxFileNameLen {
		sanitized = sanitized[len(sanitized)-maxFileNameLen:]
	}
	return sanitized
}

// ValidateFile checks an upload's size and content type against the
// configured limits and returns the resolved content type. It is pure: no
// upload is attempted for a file that fails here.
func ValidateFile(fileName, declaredType string, size, maxBytes int64) (string, error) {
	if size <= 0 {
		return "", apperrors.Validation(fmt.Sprintf("file %q is empty", fileName))
	}
	if size > maxBytes {
		return "", apperrors.Validation(fmt.Sprintf("file %q exceeds the maximum size of %d bytes", fileName, maxBytes))
	}

	contentType := ResolveContentType(fileName, declaredType)
	if contentType == "" {
		return "", apperrors.Validation(fmt.Sprintf("file %q has an unrecognized type", fileName))
	}
	if !IsVideo(contentType) && !IsImage(contentType) {
		return "", apperrors.Validation(fmt.Sprintf("file %q has unsupported type %s; only images and videos are accepted", fileName, contentType))
	}
	return contentType, nil
}
