package analysis

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Image is a photo ready to be sent for analysis.
type Image struct {
	Data     []byte
	MIMEType string
}

// LoadImage reads an image file. The MIME type comes from the file extension,
// falling back to content sniffing; non-image files are rejected.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image '%s': %w", path, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("image '%s': %w", path, ErrEmptyImage)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("file '%s' is not an image (detected %s)", path, mimeType)
	}

	return Image{Data: data, MIMEType: mimeType}, nil
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns a self-contained data: URL for the image.
func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Base64())
}

// ParseDataURL turns a base64 data: URL back into an Image.
func ParseDataURL(dataURL string) (Image, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || payload == "" || !strings.HasPrefix(header, "data:") {
		return Image{}, fmt.Errorf("invalid data url")
	}
	meta := strings.TrimPrefix(header, "data:")
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return Image{}, fmt.Errorf("unsupported data url encoding %q", encoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("invalid data url payload: %w", err)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}
