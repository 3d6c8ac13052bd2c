package gallery

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wastedetect/internal/dto"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
)

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	createTestImageFile(t, dir, name, buf.Bytes())
}

func createTestImageFile(t *testing.T, dir, filename string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestLoad_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "landfill.png", 4, 4)
	writePNG(t, dir, "beach.jpeg", 4, 4)
	writePNG(t, dir, "River.JPG", 4, 4)
	writePNG(t, dir, "alley.v2.jpg", 4, 4)
	createTestImageFile(t, dir, "notes.txt", []byte("not an image"))
	createTestImageFile(t, dir, "anim.gif", []byte("GIF89a"))
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	g, err := Load(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []dto.ExampleInfo{
		{Index: 0, Name: "River"},
		{Index: 1, Name: "alley"},
		{Index: 2, Name: "beach"},
		{Index: 3, Name: "landfill"},
	}
	if diff := cmp.Diff(want, g.Examples()); diff != "" {
		t.Errorf("Examples mismatch (-want +got):\n%s", diff)
	}

	// Captions and files stay paired after sorting.
	for i, ex := range g.Examples() {
		if got := Stem(filepath.Base(g.entries[i].path)); got != ex.Name {
			t.Errorf("Entry %d path %s does not match caption %s", i, g.entries[i].path, ex.Name)
		}
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "absent"), logger.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("Expected empty gallery, got %d entries", g.Len())
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"beach.jpg":         "beach",
		"alley.v2.jpeg":     "alley",
		"/srv/images/a.png": "a",
		"noext":             "noext",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "site.png", 30, 20)
	createTestImageFile(t, dir, "broken.jpg", []byte("fake image data for testing purposes"))

	g, err := Load(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// broken sorts first
	if _, err := g.Open(0); !errors.Is(err, model.ErrInvalidImageFormat) {
		t.Errorf("Expected ErrInvalidImageFormat for broken example, got %v", err)
	}

	img, err := g.Open(1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("Unexpected size %v", img.Bounds())
	}

	for _, idx := range []int{-1, 2, 100} {
		if _, err := g.Open(idx); !errors.Is(err, model.ErrUnknownExample) {
			t.Errorf("Open(%d) = %v, expected ErrUnknownExample", idx, err)
		}
		if _, err := g.Name(idx); !errors.Is(err, model.ErrUnknownExample) {
			t.Errorf("Name(%d) = %v, expected ErrUnknownExample", idx, err)
		}
	}
}

func TestThumbnail(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "wide.png", 300, 100)

	g, err := Load(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	data, err := g.Thumbnail(0, 64)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	thumb, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Thumbnail is not a JPEG: %v", err)
	}
	if thumb.Bounds().Dx() != 64 || thumb.Bounds().Dy() != 64 {
		t.Errorf("Expected 64x64 thumbnail, got %v", thumb.Bounds())
	}

	r, g2, b, _ := thumb.At(32, 32).RGBA()
	if !nearGray(color.RGBA{uint8(r >> 8), uint8(g2 >> 8), uint8(b >> 8), 255}, 0x80, 6) {
		t.Errorf("Unexpected thumbnail pixel (%d,%d,%d)", r>>8, g2>>8, b>>8)
	}
}

func nearGray(c color.RGBA, v uint8, tol int) bool {
	for _, ch := range []uint8{c.R, c.G, c.B} {
		d := int(ch) - int(v)
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}
