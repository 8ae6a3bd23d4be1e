package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns raw media bytes into normalized rasters. It is the
// external collaborator the fingerprinters depend on rather than reading
// files themselves, so tests can substitute a fake.
type Decoder interface {
	// Decode returns img upright (EXIF orientation already applied) and
	// resized so its longest side is at most maxDim (0 means unbounded).
	Decode(data []byte, maxDim int) (image.Image, error)
}

// DefaultDecoder decodes with the standard library's image package plus
// golang.org/x/image's bmp/tiff/webp decoders registered alongside it, and
// corrects orientation using the EXIF Orientation tag when present.
type DefaultDecoder struct{}

// NewDefaultDecoder returns a DefaultDecoder.
func NewDefaultDecoder() *DefaultDecoder {
	return &DefaultDecoder{}
}

func (d *DefaultDecoder) Decode(data []byte, maxDim int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	orientation := readOrientation(data)
	img = ApplyOrientation(img, orientation)

	if maxDim > 0 {
		img = ResizeMaxDimension(img, maxDim)
	}
	return img, nil
}

// readOrientation best-effort extracts the EXIF Orientation tag. Missing or
// unparsable EXIF data is treated as OrientationNormal — most formats (PNG,
// GIF, webp) never carry the tag at all.
func readOrientation(data []byte) Orientation {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return OrientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return OrientationNormal
	}
	return Orientation(v)
}

// DecodeConfig reads only width/height without decoding the full raster,
// matching the teacher decoder's lightweight config-only path.
func DecodeConfig(r io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
