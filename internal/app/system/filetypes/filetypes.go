// Package filetypes maps upload MIME types onto the content types a file
// record may carry. The table is fixed; unknown MIME types are rejected.
package filetypes

import (
	"mime"
	"strings"

	"github.com/dalemusser/stratadrive/internal/domain/models"
)

var byMIME = map[string]string{
	"image/png":       models.ContentTypeImage,
	"image/jpeg":      models.ContentTypeImage,
	"application/pdf": models.ContentTypePDF,
	"text/csv":        models.ContentTypeCSV,
}

// FromMIME returns the content type for an upload MIME type. Parameters such
// as "; charset=utf-8" and letter case are ignored.
func FromMIME(mimeType string) (string, bool) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	ct, ok := byMIME[mt]
	return ct, ok
}

// IsValid reports whether ct is one of the known content types.
func IsValid(ct string) bool {
	switch ct {
	case models.ContentTypeImage, models.ContentTypePDF, models.ContentTypeCSV:
		return true
	}
	return false
}

// MIMEFor returns a representative MIME type for a content type. Used when a
// blob is re-uploaded during duplication.
func MIMEFor(ct string) string {
	switch ct {
	case models.ContentTypeImage:
		return "image/png"
	case models.ContentTypePDF:
		return "application/pdf"
	case models.ContentTypeCSV:
		return "text/csv"
	}
	return "application/octet-stream"
}
