package rimage

import (
	"fmt"
	"image/color"
	"math"
)

// Color is a non-alpha-premultiplied 8 bit RGBA color packed into a uint32 as 0xRRGGBBAA.
type Color uint32

// NewColor returns an opaque color.
func NewColor(r, g, b uint8) Color {
	return NewColorWithAlpha(r, g, b, 255)
}

// NewColorWithAlpha returns a color with the given alpha.
func NewColorWithAlpha(r, g, b, a uint8) Color {
	return Color(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// NewColorFromColor converts any color into a Color.
func NewColorFromColor(c color.Color) Color {
	if cc, ok := c.(Color); ok {
		return cc
	}
	nrgba, _ := color.NRGBAModel.Convert(c).(color.NRGBA)
	return NewColorWithAlpha(nrgba.R, nrgba.G, nrgba.B, nrgba.A)
}

// RGBA255 returns the 8 bit channels of the color.
func (c Color) RGBA255() (uint8, uint8, uint8, uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8, a8 := c.RGBA255()
	return color.NRGBA{r8, g8, b8, a8}.RGBA()
}

func (c Color) String() string {
	r, g, b, a := c.RGBA255()
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

// channels returns the color as float channels, for interpolation.
func (c Color) channels() [4]float64 {
	r, g, b, a := c.RGBA255()
	return [4]float64{float64(r), float64(g), float64(b), float64(a)}
}

// colorFromChannels rounds and saturates float channels back into a Color.
func colorFromChannels(ch [4]float64) Color {
	var out [4]uint8
	for i, v := range ch {
		out[i] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	return NewColorWithAlpha(out[0], out[1], out[2], out[3])
}

// TheColorModel is the color model of an Image.
var TheColorModel = color.ModelFunc(func(c color.Color) color.Color {
	return NewColorFromColor(c)
})
