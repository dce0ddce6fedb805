package rimage

import (
	"math"

	"github.com/golang/geo/r2"
)

// bicubicA is the free parameter of the cubic convolution kernel. -0.75 matches the kernel used
// by OpenCV's INTER_CUBIC so that rectified images agree with ROS pipelines.
const bicubicA = -0.75

// cubicCoefficients returns the four kernel weights for taps at offsets -1, 0, 1, 2 from the
// integer part of a coordinate with fractional part t.
func cubicCoefficients(t float64) [4]float64 {
	var c [4]float64
	c[0] = ((bicubicA*(t+1)-5*bicubicA)*(t+1)+8*bicubicA)*(t+1) - 4*bicubicA
	c[1] = ((bicubicA+2)*t-(bicubicA+3))*t*t + 1
	c[2] = ((bicubicA+2)*(1-t)-(bicubicA+3))*(1-t)*(1-t) + 1
	c[3] = 1 - c[0] - c[1] - c[2]
	return c
}

// BicubicInterpolation returns the color at the sub-pixel location pt using cubic convolution over
// the surrounding 4x4 pixels. Taps that fall outside of the image count as transparent black. If pt
// is more than one pixel away from the image, nil is returned.
func BicubicInterpolation(pt r2.Point, img *Image) *Color {
	if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
		return nil
	}
	if pt.X <= -1 || pt.Y <= -1 || pt.X >= float64(img.Width()) || pt.Y >= float64(img.Height()) {
		return nil
	}
	x0, y0 := math.Floor(pt.X), math.Floor(pt.Y)
	wx := cubicCoefficients(pt.X - x0)
	wy := cubicCoefficients(pt.Y - y0)

	var sum [4]float64
	for j := 0; j < 4; j++ {
		y := int(y0) - 1 + j
		for i := 0; i < 4; i++ {
			x := int(x0) - 1 + i
			if !img.In(x, y) {
				continue
			}
			w := wx[i] * wy[j]
			ch := img.GetXY(x, y).channels()
			for k := range sum {
				sum[k] += w * ch[k]
			}
		}
	}
	c := colorFromChannels(sum)
	return &c
}
