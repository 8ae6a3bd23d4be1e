package imaging

import (
	"image"

	extimaging "github.com/disintegration/imaging"
)

// Orientation mirrors the EXIF orientation tag values 1-8.
type Orientation int

const (
	OrientationNormal Orientation = 1
	OrientationFlipH  Orientation = 2
	Orientation180    Orientation = 3
	OrientationFlipV  Orientation = 4
	OrientationTransp Orientation = 5
	Orientation90CW   Orientation = 6
	OrientationTransv Orientation = 7
	Orientation90CCW  Orientation = 8
)

// ApplyOrientation rotates/flips img so that it displays upright, per the
// EXIF orientation tag. Orientation must be applied before any hashing step
// so that a portrait photo taken sideways and one taken upright hash the
// same way.
func ApplyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationFlipH:
		return extimaging.FlipH(img)
	case Orientation180:
		return extimaging.Rotate180(img)
	case OrientationFlipV:
		return extimaging.FlipV(img)
	case OrientationTransp:
		return extimaging.Transpose(img)
	case Orientation90CW:
		return extimaging.Rotate270(img)
	case OrientationTransv:
		return extimaging.Transverse(img)
	case Orientation90CCW:
		return extimaging.Rotate90(img)
	default:
		return img
	}
}

// ResizeExact resizes img to exactly width x height using Lanczos
// resampling with area averaging on downscale, matching the teacher's
// perceptual hash resize step.
func ResizeExact(img image.Image, width, height int) image.Image {
	return extimaging.Resize(img, width, height, extimaging.Lanczos)
}

// ResizeMaxDimension downsizes img so its longest side is at most maxDim,
// preserving aspect ratio. Used by DefaultDecoder.Decode to bound decoded
// image size.
func ResizeMaxDimension(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return extimaging.Resize(img, maxDim, 0, extimaging.Lanczos)
	}
	return extimaging.Resize(img, 0, maxDim, extimaging.Lanczos)
}
