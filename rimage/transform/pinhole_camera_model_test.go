package transform

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/camerageometry/logging"
	"go.viam.com/camerageometry/rimage"
)

func vgaCameraInfo() *CameraInfo {
	return &CameraInfo{
		FrameID:         "camera_optical",
		Stamp:           time.Unix(1700000000, 500),
		Width:           640,
		Height:          480,
		DistortionModel: "plumb_bob",
		K:               []float64{500, 0, 320, 0, 500, 240, 0, 0, 1},
		R:               []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:               []float64{500, 0, 320, 0, 0, 500, 240, 0, 0, 0, 1, 0},
	}
}

func loadedModel(t *testing.T, info *CameraInfo) *PinholeCameraModel {
	t.Helper()
	pcm := NewPinholeCameraModel(logging.NewTestLogger(t))
	test.That(t, pcm.Load(info), test.ShouldBeNil)
	return pcm
}

func TestPinholeNotLoaded(t *testing.T) {
	pcm := NewPinholeCameraModel(logging.NewTestLogger(t))
	test.That(t, pcm.IsLoaded(), test.ShouldBeFalse)

	_, err := pcm.Project3DToPixel(r3.Vector{Z: 1})
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.ProjectPixelTo3DRay(r2.Point{})
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.RectifyPoint(r2.Point{})
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.RectifyImage(rimage.NewImage(2, 2))
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.IntrinsicMatrix()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.Fx()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.DeltaU(1, 1)
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.FovX()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, _, err = pcm.Binning()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.FrameID()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = pcm.Intrinsics()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
}

func TestPinholeLoad(t *testing.T) {
	t.Run("binning and roi", func(t *testing.T) {
		info := vgaCameraInfo()
		info.P[3] = -40
		info.P[7] = 7
		info.BinningX = 2
		info.BinningY = 4
		info.ROI = RegionOfInterest{XOffset: 100, YOffset: 40, Width: 400, Height: 200}
		pcm := loadedModel(t, info)

		k, err := pcm.IntrinsicMatrix()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, k, test.ShouldResemble, Mat33{{250, 0, 110}, {0, 125, 50}, {0, 0, 1}})

		p, err := pcm.ProjectionMatrix()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldResemble, Mat34{{250, 0, 110, -40}, {0, 125, 50, 7}, {0, 0, 1, 0}})

		fullK, err := pcm.FullIntrinsicMatrix()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fullK.Data(), test.ShouldResemble, info.K)
		fullP, err := pcm.FullProjectionMatrix()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fullP.Data(), test.ShouldResemble, info.P)

		bx, by, err := pcm.Binning()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bx, test.ShouldEqual, 2)
		test.That(t, by, test.ShouldEqual, 4)

		intrinsics, err := pcm.Intrinsics()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, intrinsics.CheckValid(), test.ShouldBeNil)
		test.That(t, *intrinsics, test.ShouldResemble, PinholeCameraIntrinsics{
			Width: 200, Height: 50, Fx: 250, Fy: 125, Ppx: 110, Ppy: 50,
		})
	})

	t.Run("zero roi is the full resolution", func(t *testing.T) {
		implicit := vgaCameraInfo()
		implicit.BinningX = 2
		implicit.BinningY = 2
		explicit := vgaCameraInfo()
		explicit.BinningX = 2
		explicit.BinningY = 2
		explicit.ROI = RegionOfInterest{Width: 640, Height: 480}

		a := loadedModel(t, implicit)
		b := loadedModel(t, explicit)
		ka, _ := a.IntrinsicMatrix()
		kb, _ := b.IntrinsicMatrix()
		test.That(t, ka, test.ShouldResemble, kb)
		pa, _ := a.ProjectionMatrix()
		pb, _ := b.ProjectionMatrix()
		test.That(t, pa, test.ShouldResemble, pb)

		roi, err := a.RegionOfInterest()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, roi, test.ShouldResemble, RegionOfInterest{Width: 640, Height: 480})
	})

	t.Run("no binning and full roi leave matrices untouched", func(t *testing.T) {
		info := vgaCameraInfo()
		info.BinningX = 1
		info.BinningY = 1
		info.ROI = RegionOfInterest{Width: 640, Height: 480}
		pcm := loadedModel(t, info)
		k, _ := pcm.IntrinsicMatrix()
		fullK, _ := pcm.FullIntrinsicMatrix()
		test.That(t, k, test.ShouldResemble, fullK)
		p, _ := pcm.ProjectionMatrix()
		fullP, _ := pcm.FullProjectionMatrix()
		test.That(t, p, test.ShouldResemble, fullP)
	})

	t.Run("zero binning means one", func(t *testing.T) {
		pcm := loadedModel(t, vgaCameraInfo())
		bx, by, err := pcm.Binning()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bx, test.ShouldEqual, 1)
		test.That(t, by, test.ShouldEqual, 1)
	})

	t.Run("distortion", func(t *testing.T) {
		pcm := loadedModel(t, vgaCameraInfo())
		d, err := pcm.DistortionCoeffs()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldBeNil)

		info := vgaCameraInfo()
		info.D = []float64{-0.1, 0.01, 0, 0, 0}
		pcm = loadedModel(t, info)
		d, err = pcm.DistortionCoeffs()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldResemble, info.D)
		d[0] = 5
		d2, _ := pcm.DistortionCoeffs()
		test.That(t, d2[0], test.ShouldEqual, -0.1)

		info.D = []float64{1, 2, 3}
		err = NewPinholeCameraModel(logging.NewTestLogger(t)).Load(info)
		test.That(t, errors.Is(err, ErrUnsupportedDistortion), test.ShouldBeTrue)
	})

	t.Run("metadata", func(t *testing.T) {
		info := vgaCameraInfo()
		pcm := loadedModel(t, info)
		frame, err := pcm.FrameID()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, frame, test.ShouldEqual, "camera_optical")
		stamp, err := pcm.Stamp()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, stamp.Equal(info.Stamp), test.ShouldBeTrue)
		res, err := pcm.FullResolution()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res, test.ShouldResemble, image.Pt(640, 480))
	})

	t.Run("invalid record keeps previous calibration", func(t *testing.T) {
		pcm := loadedModel(t, vgaCameraInfo())
		bad := vgaCameraInfo()
		bad.FrameID = "bad"
		bad.P = bad.P[:9]
		bad.Width = 0
		err := pcm.Load(bad)
		test.That(t, errors.Is(err, ErrInvalidCameraInfo), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "P needs 12 values")
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid resolution")

		frame, err := pcm.FrameID()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, frame, test.ShouldEqual, "camera_optical")
	})

	t.Run("reload supersedes", func(t *testing.T) {
		pcm := loadedModel(t, vgaCameraInfo())
		info := vgaCameraInfo()
		info.FrameID = "other"
		info.BinningX = 2
		test.That(t, pcm.Load(info), test.ShouldBeNil)
		fx, err := pcm.Fx()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fx, test.ShouldEqual, 250)
		frame, _ := pcm.FrameID()
		test.That(t, frame, test.ShouldEqual, "other")
	})
}

func TestPinholeProjection(t *testing.T) {
	pcm := loadedModel(t, vgaCameraInfo())

	uv, err := pcm.Project3DToPixel(r3.Vector{X: 0.2, Y: -0.1, Z: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, uv.X, test.ShouldAlmostEqual, 370)
	test.That(t, uv.Y, test.ShouldAlmostEqual, 215)

	t.Run("zero weight", func(t *testing.T) {
		uv, err := pcm.Project3DToPixel(r3.Vector{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, math.IsNaN(uv.X), test.ShouldBeTrue)
		test.That(t, math.IsNaN(uv.Y), test.ShouldBeTrue)
	})

	t.Run("ray round trip", func(t *testing.T) {
		for _, pt := range []r3.Vector{
			{X: 0, Y: 0, Z: 1},
			{X: 0.2, Y: -0.1, Z: 2},
			{X: -3, Y: 4, Z: 12},
			{X: 10, Y: 10, Z: 0.5},
		} {
			uv, err := pcm.Project3DToPixel(pt)
			test.That(t, err, test.ShouldBeNil)
			ray, err := pcm.ProjectPixelTo3DRay(uv)
			test.That(t, err, test.ShouldBeNil)
			want := pt.Normalize()
			test.That(t, ray.Norm(), test.ShouldAlmostEqual, 1)
			test.That(t, ray.X, test.ShouldAlmostEqual, want.X)
			test.That(t, ray.Y, test.ShouldAlmostEqual, want.Y)
			test.That(t, ray.Z, test.ShouldAlmostEqual, want.Z)
		}
	})

	t.Run("ray ignores the translation column", func(t *testing.T) {
		info := vgaCameraInfo()
		info.P[3] = -50000
		right := loadedModel(t, info)

		uv, err := right.Project3DToPixel(r3.Vector{Z: 10})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, uv.X, test.ShouldAlmostEqual, 320-5000)

		ray, err := right.ProjectPixelTo3DRay(uv)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ray.X, test.ShouldBeLessThan, -0.99)

		// the ray through the principal point is still the optical axis
		ray, err = right.ProjectPixelTo3DRay(r2.Point{X: 320, Y: 240})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ray, test.ShouldResemble, r3.Vector{Z: 1})
	})
}

func TestPinholeDeltas(t *testing.T) {
	info := vgaCameraInfo()
	info.P[5] = 400
	pcm := loadedModel(t, info)

	du, err := pcm.DeltaU(0.5, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, du, test.ShouldAlmostEqual, 125)
	dv, err := pcm.DeltaV(0.5, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dv, test.ShouldAlmostEqual, 100)

	for _, z := range []float64{-3, 0.25, 1, 7.5} {
		for _, d := range []float64{-1, 0, 0.3, 2} {
			du, _ := pcm.DeltaU(d, z)
			dx, err := pcm.DeltaX(du, z)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, dx, test.ShouldAlmostEqual, d)

			dv, _ := pcm.DeltaV(d, z)
			dy, err := pcm.DeltaY(dv, z)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, dy, test.ShouldAlmostEqual, d)
		}
	}

	du, err = pcm.DeltaU(1, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(du, 1), test.ShouldBeTrue)
	dv, err = pcm.DeltaV(1, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(dv, 1), test.ShouldBeTrue)
}

func TestPinholeAccessors(t *testing.T) {
	info := vgaCameraInfo()
	info.P[3] = -30
	info.P[7] = 12
	pcm := loadedModel(t, info)

	for _, tc := range []struct {
		name string
		get  func() (float64, error)
		want float64
	}{
		{"fx", pcm.Fx, 500},
		{"fy", pcm.Fy, 500},
		{"cx", pcm.Cx, 320},
		{"cy", pcm.Cy, 240},
		{"tx", pcm.Tx, -30},
		{"ty", pcm.Ty, 12},
		{"fov x", pcm.FovX, 2 * math.Atan(640.0/1000.0)},
		{"fov y", pcm.FovY, 2 * math.Atan(480.0/1000.0)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.get()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldAlmostEqual, tc.want)
		})
	}

	r, err := pcm.RotationMatrix()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, Identity33())
}

func smallCameraInfo() *CameraInfo {
	return &CameraInfo{
		Width:  8,
		Height: 6,
		K:      []float64{4, 0, 3.5, 0, 4, 2.5, 0, 0, 1},
		R:      []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:      []float64{4, 0, 3.5, 0, 0, 4, 2.5, 0, 0, 0, 1, 0},
	}
}

type countingRectifier struct {
	Rectifier
	maps int
}

func (cr *countingRectifier) InitUndistortRectifyMap(
	k Mat33, d []float64, r Mat33, p Mat34, size image.Point,
) (*RectificationMap, error) {
	cr.maps++
	return cr.Rectifier.InitUndistortRectifyMap(k, d, r, p, size)
}

func TestPinholeRectifyImage(t *testing.T) {
	logger := logging.NewTestLogger(t)
	rect := &countingRectifier{Rectifier: NewRectifier(logger)}
	pcm := NewPinholeCameraModel(logger, WithRectifier(rect))
	test.That(t, pcm.Load(smallCameraInfo()), test.ShouldBeNil)

	raw := rimage.NewImage(8, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			raw.SetXY(x, y, rimage.NewColor(uint8(x*30), uint8(y*40), 7))
		}
	}

	out, err := pcm.RectifyImage(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Width(), test.ShouldEqual, 8)
	test.That(t, out.Height(), test.ShouldEqual, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			test.That(t, out.GetXY(x, y), test.ShouldEqual, raw.GetXY(x, y))
		}
	}

	_, err = pcm.RectifyImage(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rect.maps, test.ShouldEqual, 1)

	_, err = pcm.RectifyImage(rimage.NewImage(4, 3))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "does not match calibrated resolution")

	test.That(t, pcm.Load(smallCameraInfo()), test.ShouldBeNil)
	_, err = pcm.RectifyImage(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rect.maps, test.ShouldEqual, 2)
}

func TestPinholeRectifyPoint(t *testing.T) {
	info := vgaCameraInfo()
	info.D = []float64{-0.25, 0.07, 0.001, -0.0005, -0.01}
	pcm := loadedModel(t, info)

	bc, err := NewBrownConrady(info.D)
	test.That(t, err, test.ShouldBeNil)
	for _, norm := range []r2.Point{{X: 0, Y: 0}, {X: 0.1, Y: -0.2}, {X: -0.3, Y: 0.25}} {
		xd, yd := bc.Transform(norm.X, norm.Y)
		raw := r2.Point{X: 500*xd + 320, Y: 500*yd + 240}

		rectified, err := pcm.RectifyPoint(raw)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rectified.X, test.ShouldAlmostEqual, 500*norm.X+320, 1e-6)
		test.That(t, rectified.Y, test.ShouldAlmostEqual, 500*norm.Y+240, 1e-6)
	}

	// without distortion a rectified camera leaves points where they are
	plain := loadedModel(t, vgaCameraInfo())
	pt, err := plain.RectifyPoint(r2.Point{X: 12.5, Y: 400})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 12.5)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 400)
}
