package validate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrInvalidImage marks an attachment that does not decode as a known
// raster format. Raised before any network call is made.
var ErrInvalidImage = errors.New("invalid image format")

// ImageValidator checks referral attachments (letter scans, ECG photos)
// decode as real images
type ImageValidator struct{}

// NewImageValidator creates an image validator
func NewImageValidator() *ImageValidator {
	return &ImageValidator{}
}

// Check verifies the attachment decodes and returns the detected format.
// Empty data means no attachment and is valid.
func (v *ImageValidator) Check(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return format, nil
}
