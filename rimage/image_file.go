package rimage

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	// register additional decoders for image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// NewImageFromFile decodes an image file (png, jpeg, gif, bmp, tiff or webp) into an Image.
// EXIF orientation is applied so the returned pixels are in display order.
func NewImageFromFile(fn string) (*Image, error) {
	img, err := imaging.Open(fn, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", fn)
	}
	return NewImageFromStdImage(img), nil
}

// WriteImageToFile encodes img to fn. The format is chosen from the file extension.
func WriteImageToFile(fn string, img image.Image) error {
	if _, err := imaging.FormatFromFilename(fn); err != nil {
		return errors.Wrapf(err, "cannot write image %q, unknown extension %q", fn, strings.ToLower(filepath.Ext(fn)))
	}
	if err := imaging.Save(img, fn); err != nil {
		return errors.Wrapf(err, "cannot write image %q", fn)
	}
	return nil
}
