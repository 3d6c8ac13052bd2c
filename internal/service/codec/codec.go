// Package codec turns raw upload bytes into images and images into the byte forms
// the detection service and the browser expect.
package codec

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"wastedetect/internal/model"
)

// DetectQuality is the JPEG quality used for the payload sent to the detection service.
const DetectQuality = 90

// Decode decodes JPEG or PNG bytes into a 3-channel image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "empty image")
	}

	// Only sniff the header here, gocv does the actual decoding.
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "unrecognized image: %v", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "unsupported format %s", format)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "decoded image is empty")
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "failed to convert image: %v", err)
	}
	return img, nil
}

// EncodeJPEG drops any alpha channel and encodes img as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// EncodeBase64JPEG is the request body format of the detection service.
func EncodeBase64JPEG(img image.Image) (string, error) {
	data, err := EncodeJPEG(img, DetectQuality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// WriteDisplayJPEG writes img as a JPEG suitable for showing in the browser.
func WriteDisplayJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(DetectQuality))
}

// DisplayBase64 returns img as a base64 JPEG for embedding in JSON responses.
func DisplayBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := WriteDisplayJPEG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
