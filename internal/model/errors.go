package model

import "github.com/pkg/errors"

// Error kinds surfaced to the presentation layer. Match them with errors.Is.
var (
	// ErrInvalidImageFormat means the input bytes are not a decodable JPEG or PNG.
	ErrInvalidImageFormat = errors.New("invalid image format")
	// ErrNetwork means the detection service could not be reached or answered with a non-2xx status.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse means the service answer is missing fields, has wrong types or a zero-area image.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidConfig means a threshold is outside [0,100].
	ErrInvalidConfig = errors.New("invalid render config")
	// ErrUnknownExample means a gallery index does not exist.
	ErrUnknownExample = errors.New("unknown example image")
)

// Errorf annotates kind with a formatted message while keeping it matchable by errors.Is.
func Errorf(kind error, format string, args ...interface{}) error {
	return errors.Wrapf(kind, format, args...)
}
