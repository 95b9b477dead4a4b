package media

import (
	"mime"
	"net/http"
	"strings"
)

// sniffLen is how many leading bytes content detection reads.
const sniffLen = 512

var allowedImageMimeTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// sniffMimeType classifies an upload from its leading bytes. The
// client-declared content type is never consulted for the whitelist check.
func sniffMimeType(head []byte) string {
	detected := http.DetectContentType(head)
	if parsed, _, err := mime.ParseMediaType(detected); err == nil {
		detected = parsed
	}
	return strings.ToLower(detected)
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedImageMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func allowedMimeDescription() string {
	return strings.Join(allowedImageMimeTypes, ", ")
}
