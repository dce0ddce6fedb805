// Package rimage holds the image container used by the rectification code along with its
// interpolation and file helpers.
package rimage

import (
	"image"
	"image/color"
)

// Image is a simple row-major RGBA image with its origin at (0, 0).
type Image struct {
	data          []Color
	width, height int
}

// NewImage returns a black, fully transparent image of the given size.
func NewImage(width, height int) *Image {
	return &Image{
		data:   make([]Color, width*height),
		width:  width,
		height: height,
	}
}

// NewImageFromBounds returns an image large enough to hold the given bounds.
func NewImageFromBounds(bounds image.Rectangle) *Image {
	return NewImage(bounds.Max.X, bounds.Max.Y)
}

// NewImageFromStdImage copies a standard library image. The copy is re-based so that
// img.Bounds().Min maps to (0, 0).
func NewImageFromStdImage(img image.Image) *Image {
	if ri, ok := img.(*Image); ok {
		return ri.Clone()
	}
	bounds := img.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.height; y++ {
		for x := 0; x < out.width; x++ {
			out.setXY(x, y, NewColorFromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return out
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return TheColorModel
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	if !i.In(x, y) {
		return Color(0)
	}
	return i.data[i.kxy(x, y)]
}

// In returns whether (x, y) is inside the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

// Width returns the width of the image.
func (i *Image) Width() int {
	return i.width
}

// Height returns the height of the image.
func (i *Image) Height() int {
	return i.height
}

// Get returns the color at p. p must be inside the image.
func (i *Image) Get(p image.Point) Color {
	return i.data[i.kxy(p.X, p.Y)]
}

// GetXY returns the color at (x, y). (x, y) must be inside the image.
func (i *Image) GetXY(x, y int) Color {
	return i.data[i.kxy(x, y)]
}

// Set sets the color at p.
func (i *Image) Set(p image.Point, c Color) {
	i.setXY(p.X, p.Y, c)
}

// SetXY sets the color at (x, y).
func (i *Image) SetXY(x, y int, c Color) {
	i.setXY(x, y, c)
}

// Clone returns a deep copy of the image.
func (i *Image) Clone() *Image {
	out := NewImage(i.width, i.height)
	copy(out.data, i.data)
	return out
}

// WriteTo writes the image to a file, the format is picked from the extension.
func (i *Image) WriteTo(fn string) error {
	return WriteImageToFile(fn, i)
}

func (i *Image) kxy(x, y int) int {
	return (y * i.width) + x
}

func (i *Image) setXY(x, y int, c Color) {
	i.data[i.kxy(x, y)] = c
}
