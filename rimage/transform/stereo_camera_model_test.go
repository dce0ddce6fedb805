package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/camerageometry/logging"
)

func stereoCameraInfos() (*CameraInfo, *CameraInfo) {
	left := &CameraInfo{
		FrameID: "stereo_left",
		Width:   100,
		Height:  100,
		K:       []float64{100, 0, 50, 0, 100, 50, 0, 0, 1},
		R:       []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:       []float64{100, 0, 50, 0, 0, 100, 50, 0, 0, 0, 1, 0},
	}
	right := &CameraInfo{
		FrameID: "stereo_right",
		Width:   100,
		Height:  100,
		K:       []float64{100, 0, 50, 0, 100, 50, 0, 0, 1},
		R:       []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:       []float64{100, 0, 50, -2000, 0, 100, 50, 0, 0, 0, 1, 0},
	}
	return left, right
}

func loadedStereo(t *testing.T) *StereoCameraModel {
	t.Helper()
	scm := NewStereoCameraModel(logging.NewTestLogger(t))
	test.That(t, scm.Load(stereoCameraInfos()), test.ShouldBeNil)
	return scm
}

func TestStereoNotLoaded(t *testing.T) {
	scm := NewStereoCameraModel(logging.NewTestLogger(t))
	test.That(t, scm.IsLoaded(), test.ShouldBeFalse)

	_, err := scm.Left()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = scm.Right()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = scm.ReprojectionMatrix()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = scm.ProjectPixelTo3D(r2.Point{}, 1)
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, _, err = scm.Project3DToPixel(r3.Vector{Z: 1})
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = scm.DepthFromDisparity(1)
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = scm.DisparityFromDepth(1)
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
	_, err = scm.FrameID()
	test.That(t, errors.Is(err, ErrNotLoaded), test.ShouldBeTrue)
}

func TestStereoReprojection(t *testing.T) {
	scm := loadedStereo(t)
	test.That(t, scm.IsLoaded(), test.ShouldBeTrue)

	q, err := scm.ReprojectionMatrix()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, q[0][0], test.ShouldEqual, 1)
	test.That(t, q[0][3], test.ShouldEqual, -50)
	test.That(t, q[1][1], test.ShouldEqual, 1)
	test.That(t, q[1][3], test.ShouldEqual, -50)
	test.That(t, q[2][3], test.ShouldEqual, 100)
	test.That(t, q[3][2], test.ShouldAlmostEqual, 0.05)
	nonZero := 0
	for _, v := range q.Data() {
		if v != 0 {
			nonZero++
		}
	}
	test.That(t, nonZero, test.ShouldEqual, 6)

	pt, err := scm.ProjectPixelTo3D(r2.Point{X: 50, Y: 50}, 20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 0)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 100)

	z, err := scm.DepthFromDisparity(20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, z, test.ShouldAlmostEqual, 100)

	t.Run("zero weight is the origin", func(t *testing.T) {
		pt, err := scm.ProjectPixelTo3D(r2.Point{X: 10, Y: 90}, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pt, test.ShouldResemble, r3.Vector{})
	})

	t.Run("projection round trip", func(t *testing.T) {
		for _, want := range []r3.Vector{{X: 0, Y: 0, Z: 100}, {X: 3, Y: -2, Z: 40}, {X: -10, Y: 5, Z: 250}} {
			left, right, err := scm.Project3DToPixel(want)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, left.Y, test.ShouldAlmostEqual, right.Y)

			got, err := scm.ProjectPixelTo3D(left, left.X-right.X)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got.X, test.ShouldAlmostEqual, want.X)
			test.That(t, got.Y, test.ShouldAlmostEqual, want.Y)
			test.That(t, got.Z, test.ShouldAlmostEqual, want.Z)
		}
	})
}

func TestStereoDepthDisparity(t *testing.T) {
	scm := loadedStereo(t)

	for _, z := range []float64{0.5, 1, 100, 12345, -4} {
		d, err := scm.DisparityFromDepth(z)
		test.That(t, err, test.ShouldBeNil)
		back, err := scm.DepthFromDisparity(d)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back, test.ShouldAlmostEqual, z)
	}

	z, err := scm.DepthFromDisparity(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(z, 1), test.ShouldBeTrue)
	d, err := scm.DisparityFromDepth(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(d, 1), test.ShouldBeTrue)
}

func TestStereoAccessors(t *testing.T) {
	scm := loadedStereo(t)

	frame, err := scm.FrameID()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame, test.ShouldEqual, "stereo_left")

	left, err := scm.Left()
	test.That(t, err, test.ShouldBeNil)
	tx, err := left.Tx()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tx, test.ShouldEqual, 0)

	right, err := scm.Right()
	test.That(t, err, test.ShouldBeNil)
	tx, err = right.Tx()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tx, test.ShouldEqual, -2000)
	frame, err = right.FrameID()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame, test.ShouldEqual, "stereo_right")
}

func TestStereoLoadErrors(t *testing.T) {
	t.Run("zero baseline", func(t *testing.T) {
		left, right := stereoCameraInfos()
		right.P[3] = 0
		err := NewStereoCameraModel(logging.NewTestLogger(t)).Load(left, right)
		test.That(t, errors.Is(err, ErrDegenerateBaseline), test.ShouldBeTrue)
	})

	t.Run("zero focal length", func(t *testing.T) {
		left, right := stereoCameraInfos()
		right.P[0] = 0
		err := NewStereoCameraModel(logging.NewTestLogger(t)).Load(left, right)
		test.That(t, errors.Is(err, ErrDegenerateBaseline), test.ShouldBeTrue)
	})

	t.Run("both records invalid", func(t *testing.T) {
		left, right := stereoCameraInfos()
		left.K = nil
		right.Height = -1
		err := NewStereoCameraModel(logging.NewTestLogger(t)).Load(left, right)
		test.That(t, errors.Is(err, ErrInvalidCameraInfo), test.ShouldBeTrue)
		test.That(t, multierr.Errors(err), test.ShouldHaveLength, 2)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left camera")
		test.That(t, err.Error(), test.ShouldContainSubstring, "right camera")
	})

	t.Run("failed load keeps previous calibration", func(t *testing.T) {
		scm := loadedStereo(t)
		left, right := stereoCameraInfos()
		left.FrameID = "replaced"
		right.P[3] = 0
		test.That(t, scm.Load(left, right), test.ShouldNotBeNil)

		frame, err := scm.FrameID()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, frame, test.ShouldEqual, "stereo_left")
		z, err := scm.DepthFromDisparity(20)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, z, test.ShouldAlmostEqual, 100)
	})
}
