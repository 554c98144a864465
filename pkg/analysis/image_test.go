package analysis

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// pngHeader is enough for content sniffing to say image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadImageByExtension(t *testing.T) {
	path := writeTempFile(t, "face.PNG", pngHeader)

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", img.MIMEType)
	}
	if !bytes.Equal(img.Data, pngHeader) {
		t.Errorf("Image bytes were altered")
	}
}

func TestLoadImageSniffsContent(t *testing.T) {
	path := writeTempFile(t, "upload", pngHeader)

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("Expected sniffed image/png, got %s", img.MIMEType)
	}
}

func TestLoadImageRejectsNonImage(t *testing.T) {
	path := writeTempFile(t, "notes", []byte("just some text\n"))

	if _, err := LoadImage(path); err == nil {
		t.Fatalf("Expected a non-image file to be rejected")
	}
}

func TestLoadImageRejectsEmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.png", nil)

	if _, err := LoadImage(path); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	img := Image{Data: []byte("fake-jpeg-bytes"), MIMEType: "image/jpeg"}

	url := img.DataURL()
	if url != "data:image/jpeg;base64,ZmFrZS1qcGVnLWJ5dGVz" {
		t.Errorf("Unexpected data url: %s", url)
	}

	back, err := ParseDataURL(url)
	if err != nil {
		t.Fatalf("ParseDataURL failed: %v", err)
	}
	if back.MIMEType != img.MIMEType || !bytes.Equal(back.Data, img.Data) {
		t.Errorf("Expected %+v, got %+v", img, back)
	}
}

func TestParseDataURLRejects(t *testing.T) {
	for _, raw := range []string{"", "hello", "data:image/png,abc", "data:image/png;base64,", "data:image/png;base64,!!!"} {
		if _, err := ParseDataURL(raw); err == nil {
			t.Errorf("Expected %q to be rejected", raw)
		}
	}
}
