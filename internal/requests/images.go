package requests

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// MaxImages is the per-submission image cap.
	MaxImages = 5
	// MaxImageBytes caps the decoded size of a single image.
	MaxImageBytes = 2 << 20
)

// decodedImage is a submission image after data-URL validation.
type decodedImage struct {
	mimeType string
	data     []byte
}

// parseImageDataURL validates and decodes one "data:image/<sub>;base64,<payload>"
// string. Validation order is fixed: scheme, media type, encoding, size.
func parseImageDataURL(s string) (decodedImage, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return decodedImage{}, ErrBadImageEncoding
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return decodedImage{}, ErrBadImageEncoding
	}
	mimeType, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return decodedImage{}, ErrBadImageEncoding
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return decodedImage{}, ErrUnsupportedImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return decodedImage{}, ErrBadImageEncoding
	}
	if len(data) > MaxImageBytes {
		return decodedImage{}, ErrImageTooLarge
	}
	return decodedImage{mimeType: mimeType, data: data}, nil
}

// EncodeImageDataURL rebuilds a data URL from stored image bytes. The media
// type is re-detected from content, so references never need to carry it.
func EncodeImageDataURL(data []byte) string {
	mimeType := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// imageExtension picks a filesystem-friendly extension for a media type.
func imageExtension(mimeType string) string {
	sub := strings.TrimPrefix(mimeType, "image/")
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "" {
		return "bin"
	}
	return sub
}
