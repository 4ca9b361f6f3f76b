package services

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Uploads larger than this long edge get downscaled before storage; the
// generation model gains nothing from bigger inputs and they slow every hop.
const maxUploadLongEdge = 1536

// NormalizeUploadImage re-encodes an uploaded photo as JPEG, downscaling it
// when its long edge exceeds the bound. Aspect ratio is preserved. Images
// already within bounds are still re-encoded so storage only ever holds one
// format.
func NormalizeUploadImage(imageBytes []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxUploadLongEdge || height > maxUploadLongEdge {
		if width >= height {
			img = imaging.Resize(img, maxUploadLongEdge, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxUploadLongEdge, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
