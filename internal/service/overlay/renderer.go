// Package overlay draws detection boxes and confidence labels over an image.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"wastedetect/internal/model"
)

const (
	// BoxHex is the outline and label plate color.
	BoxHex = "#2C67EC"
	// FillAlpha is the opacity of the box fill, out of 255.
	FillAlpha = 50
	// OutlineWidth is the box outline width in pixels, drawn inside the box.
	OutlineWidth = 6.0
	// LabelSize is the label font size in pixels.
	LabelSize = 25.0
	// PlatePadX and PlatePadY are added to the text size to get the plate size.
	PlatePadX = 30
	PlatePadY = 20
)

// textOffset is where the label text starts inside its plate.
var textOffset = image.Pt(10, 5)

var boxColor = mustHex(BoxHex)

func mustHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Renderer draws detections with a fixed TrueType font.
type Renderer struct {
	font *truetype.Font
}

// NewRenderer loads the label font from fontPath, or uses Go Regular when fontPath is empty.
func NewRenderer(fontPath string) (*Renderer, error) {
	data := goregular.TTF
	if fontPath != "" {
		var err error
		data, err = os.ReadFile(fontPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read font")
		}
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse font %q", fontPath)
	}
	return &Renderer{font: f}, nil
}

// Label formats a confidence score as a rounded percentage, e.g. 0.87 -> "87.0%".
func Label(confidence float64) string {
	return fmt.Sprintf("%.1f%%", math.RoundToEven(100*confidence))
}

// ToRGB returns an opaque copy of img with zero-based bounds. Alpha is dropped, not composited.
func ToRGB(img image.Image) *image.RGBA {
	src := imaging.Clone(img)
	out := image.NewRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		out.Pix[i+0] = src.Pix[i+0]
		out.Pix[i+1] = src.Pix[i+1]
		out.Pix[i+2] = src.Pix[i+2]
		out.Pix[i+3] = 0xff
	}
	return out
}

// Render draws every detection onto an opaque copy of img, in order, so later
// detections overdraw earlier ones. img is not modified.
func (r *Renderer) Render(img image.Image, detections []model.Detection) *image.RGBA {
	out := ToRGB(img)
	if len(detections) == 0 {
		return out
	}

	face := truetype.NewFace(r.font, &truetype.Options{Size: LabelSize})
	defer face.Close()

	dc := gg.NewContextForRGBA(out)
	for _, d := range detections {
		rect := d.Rect()
		drawBox(dc, rect)

		plate := labelPlate(face, Label(d.Confidence))
		origin := rect.Origin()
		draw.Draw(out, image.Rectangle{Min: origin, Max: origin.Add(plate.Bounds().Size())}, plate, image.Point{}, draw.Src)
	}
	return out
}

func drawBox(dc *gg.Context, rect model.Rect) {
	w, h := rect.Dx(), rect.Dy()

	dc.DrawRectangle(rect.X1, rect.Y1, w, h)
	dc.SetRGBA255(int(boxColor.R), int(boxColor.G), int(boxColor.B), FillAlpha)
	dc.Fill()

	dc.SetColor(boxColor)
	if w <= 2*OutlineWidth || h <= 2*OutlineWidth {
		// Too small for a hollow outline.
		dc.DrawRectangle(rect.X1, rect.Y1, w, h)
		dc.Fill()
		return
	}
	inset := OutlineWidth / 2
	dc.DrawRectangle(rect.X1+inset, rect.Y1+inset, w-OutlineWidth, h-OutlineWidth)
	dc.SetLineWidth(OutlineWidth)
	dc.Stroke()
}

// labelPlate renders text in white with a 1px stroke on an opaque plate.
func labelPlate(face font.Face, text string) image.Image {
	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	tw, th := measure.MeasureString(text)

	dc := gg.NewContext(int(math.Ceil(tw))+PlatePadX, int(math.Ceil(th))+PlatePadY)
	dc.SetColor(boxColor)
	dc.Clear()

	dc.SetFontFace(face)
	dc.SetColor(color.White)
	x, y := float64(textOffset.X), float64(textOffset.Y)
	for dy := -1.0; dy <= 1; dy++ {
		for dx := -1.0; dx <= 1; dx++ {
			dc.DrawStringAnchored(text, x+dx, y+dy, 0, 1)
		}
	}
	return dc.Image()
}
