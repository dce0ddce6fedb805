package transform

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/camerageometry/logging"
)

func TestCameraInfoValidate(t *testing.T) {
	test.That(t, vgaCameraInfo().Validate(), test.ShouldBeNil)

	var nilInfo *CameraInfo
	test.That(t, errors.Is(nilInfo.Validate(), ErrInvalidCameraInfo), test.ShouldBeTrue)

	info := vgaCameraInfo()
	info.Height = 0
	info.K = info.K[:8]
	info.R[4] = math.Inf(1)
	info.D = []float64{0, math.NaN(), 0, 0}
	info.BinningY = -2
	info.ROI.XOffset = -1

	err := info.Validate()
	test.That(t, errors.Is(err, ErrInvalidCameraInfo), test.ShouldBeTrue)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 6)
	for _, msg := range []string{
		"invalid resolution (640, 0)",
		"K needs 9 values, got 8",
		"R[4] is not finite",
		"D[1] is not finite",
		"invalid binning",
		"invalid roi",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}
}

func TestCameraInfoROIBounds(t *testing.T) {
	info := vgaCameraInfo()
	info.ROI = RegionOfInterest{XOffset: 40, YOffset: 20, Width: 600, Height: 460}
	test.That(t, info.Validate(), test.ShouldBeNil)

	for _, roi := range []RegionOfInterest{
		{XOffset: 1000, YOffset: 0, Width: 5000, Height: 10},
		{XOffset: 41, YOffset: 20, Width: 600, Height: 460},
		{XOffset: 0, YOffset: 21, Width: 640, Height: 460},
		{XOffset: 0, YOffset: 0, Width: 641, Height: 480},
	} {
		info.ROI = roi
		err := info.Validate()
		test.That(t, errors.Is(err, ErrInvalidCameraInfo), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "exceeds resolution (640, 480)")

		pcm := NewPinholeCameraModel(logging.NewTestLogger(t))
		test.That(t, errors.Is(pcm.Load(info), ErrInvalidCameraInfo), test.ShouldBeTrue)
		test.That(t, pcm.IsLoaded(), test.ShouldBeFalse)
	}
}
