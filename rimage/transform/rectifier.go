package transform

import (
	"image"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/camerageometry/logging"
	"go.viam.com/camerageometry/rimage"
)

// Rectifier builds the dense and point-wise undistortion/rectification transforms for a camera
// calibration. The camera models only prepare its matrix inputs.
type Rectifier interface {
	// InitUndistortRectifyMap computes, for every pixel of the rectified image of the given size,
	// the raw image location it samples from.
	InitUndistortRectifyMap(k Mat33, d []float64, r Mat33, p Mat34, size image.Point) (*RectificationMap, error)
	// UndistortPoint maps a raw pixel to its rectified pixel.
	UndistortPoint(pt r2.Point, k Mat33, d []float64, r Mat33, p Mat34) (r2.Point, error)
}

// RectificationMap stores, for each rectified pixel (u, v), the raw pixel coordinates
// (MapX[v*Width+u], MapY[v*Width+u]) to sample from.
type RectificationMap struct {
	Width  int
	Height int
	MapX   []float32
	MapY   []float32
}

// At returns the raw image location sampled by rectified pixel (u, v).
func (rm *RectificationMap) At(u, v int) r2.Point {
	idx := v*rm.Width + u
	return r2.Point{X: float64(rm.MapX[idx]), Y: float64(rm.MapY[idx])}
}

// Remap resamples img through the map with bicubic interpolation. The output has the map's size;
// rectified pixels that sample from outside of img are left transparent black.
func (rm *RectificationMap) Remap(img *rimage.Image) (*rimage.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	out := rimage.NewImage(rm.Width, rm.Height)
	for v := 0; v < rm.Height; v++ {
		for u := 0; u < rm.Width; u++ {
			if c := rimage.BicubicInterpolation(rm.At(u, v), img); c != nil {
				out.SetXY(u, v, *c)
			}
		}
	}
	return out, nil
}

type nativeRectifier struct {
	logger logging.Logger
}

// NewRectifier returns the built-in Rectifier. It follows OpenCV's initUndistortRectifyMap and
// undistortPoints: K's skew term is ignored, the distortion model is picked from len(d) and the
// new camera matrix is the left 3x3 block of P.
func NewRectifier(logger logging.Logger) Rectifier {
	return &nativeRectifier{logger: logger}
}

func (nr *nativeRectifier) InitUndistortRectifyMap(
	k Mat33, d []float64, r Mat33, p Mat34, size image.Point,
) (*RectificationMap, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.Errorf("invalid rectification map size %v", size)
	}
	distorter, err := NewDistorter(d)
	if err != nil {
		return nil, err
	}
	iR, err := p.Left33().Mul(r).Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "projection and rotation matrices are not invertible")
	}
	start := time.Now()

	fx, fy := k[0][0], k[1][1]
	cx, cy := k[0][2], k[1][2]
	rm := &RectificationMap{
		Width:  size.X,
		Height: size.Y,
		MapX:   make([]float32, size.X*size.Y),
		MapY:   make([]float32, size.X*size.Y),
	}
	for v := 0; v < size.Y; v++ {
		for u := 0; u < size.X; u++ {
			ray := iR.MulVec3([3]float64{float64(u), float64(v), 1})
			x, y := ray[0]/ray[2], ray[1]/ray[2]
			xd, yd := distorter.Transform(x, y)
			idx := v*size.X + u
			rm.MapX[idx] = float32(fx*xd + cx)
			rm.MapY[idx] = float32(fy*yd + cy)
		}
	}
	nr.logger.Debugw("built rectification map",
		"width", size.X, "height", size.Y, "distortion", distorter.ModelType(), "elapsed", time.Since(start))
	return rm, nil
}

func (nr *nativeRectifier) UndistortPoint(pt r2.Point, k Mat33, d []float64, r Mat33, p Mat34) (r2.Point, error) {
	inverse, err := NewInverseBrownConrady(d)
	if err != nil {
		return r2.Point{}, err
	}
	x := (pt.X - k[0][2]) / k[0][0]
	y := (pt.Y - k[1][2]) / k[1][1]
	x, y = inverse.Transform(x, y)

	rect := p.Left33().Mul(r).MulVec3([3]float64{x, y, 1})
	return r2.Point{X: rect[0] / rect[2], Y: rect[1] / rect[2]}, nil
}
