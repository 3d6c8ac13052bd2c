// Package gallery serves the fixed set of example images shipped next to the server.
package gallery

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"wastedetect/internal/dto"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/service/codec"
)

// allowedExtensions lists the example file types, compared case-insensitively.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type entry struct {
	name string
	path string
}

// Gallery is the list of example images, read once when the server starts.
type Gallery struct {
	dir     string
	entries []entry
}

// Load enumerates dir. A missing directory yields an empty gallery.
func Load(dir string, logger *logger.Logger) (*Gallery, error) {
	g := &Gallery{dir: dir}

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warning("Gallery directory %s does not exist, no examples available", dir)
			return g, nil
		}
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(file.Name()))] {
			continue
		}
		g.entries = append(g.entries, entry{
			name: Stem(file.Name()),
			path: filepath.Join(dir, file.Name()),
		})
	}

	sort.SliceStable(g.entries, func(i, j int) bool {
		return g.entries[i].name < g.entries[j].name
	})

	logger.Info("Loaded %d example image(s) from %s", len(g.entries), dir)
	return g, nil
}

// Stem returns the file name up to its first dot, used as the example caption.
func Stem(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// Len returns the number of examples.
func (g *Gallery) Len() int {
	return len(g.entries)
}

// Examples lists the examples in display order.
func (g *Gallery) Examples() []dto.ExampleInfo {
	out := make([]dto.ExampleInfo, 0, len(g.entries))
	for i, e := range g.entries {
		out = append(out, dto.ExampleInfo{Index: i, Name: e.name})
	}
	return out
}

// Name returns the caption of example index.
func (g *Gallery) Name(index int) (string, error) {
	e, err := g.entry(index)
	if err != nil {
		return "", err
	}
	return e.name, nil
}

// Open reads and decodes example index.
func (g *Gallery) Open(index int) (image.Image, error) {
	e, err := g.entry(index)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data)
}

// Thumbnail returns example index scaled and cropped to a size x size JPEG.
func (g *Gallery) Thumbnail(index, size int) ([]byte, error) {
	img, err := g.Open(index)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Thumbnail(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := codec.WriteDisplayJPEG(&buf, thumb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Gallery) entry(index int) (entry, error) {
	if index < 0 || index >= len(g.entries) {
		return entry{}, model.Errorf(model.ErrUnknownExample, "index %d", index)
	}
	return g.entries[index], nil
}
