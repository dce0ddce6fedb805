package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/camerageometry/logging"
)

// StereoCameraModel pairs two rectified pinhole cameras and reconstructs 3D points from disparity.
// Like PinholeCameraModel it does no locking.
type StereoCameraModel struct {
	logger logging.Logger
	opts   []ModelOption
	state  *stereoState
}

type stereoState struct {
	left, right *PinholeCameraModel
	q           Mat44
}

// NewStereoCameraModel returns a stereo model with no calibration loaded. The options are passed on
// to both cameras.
func NewStereoCameraModel(logger logging.Logger, opts ...ModelOption) *StereoCameraModel {
	return &StereoCameraModel{logger: logger, opts: opts}
}

// Load replaces the calibration of both cameras and derives the reprojection matrix Q from the right
// camera's adjusted P:
//
//	[1 0 0    -cx]
//	[0 1 0    -cy]
//	[0 0 0     fx]
//	[0 0 1/tx   0]
//
// where tx = -P[0,3]/fx is the baseline. A right P with fx or P[0,3] equal to zero is rejected
// with ErrDegenerateBaseline. Nothing changes unless both cameras load.
func (scm *StereoCameraModel) Load(left, right *CameraInfo) error {
	var errs error
	if err := left.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "left camera"))
	}
	if err := right.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "right camera"))
	}
	if errs != nil {
		return errs
	}

	leftModel := NewPinholeCameraModel(scm.logger.Sublogger("left"), scm.opts...)
	if err := leftModel.Load(left); err != nil {
		return errors.Wrap(err, "left camera")
	}
	rightModel := NewPinholeCameraModel(scm.logger.Sublogger("right"), scm.opts...)
	if err := rightModel.Load(right); err != nil {
		return errors.Wrap(err, "right camera")
	}

	q, err := reprojectionMatrix(rightModel.state.p)
	if err != nil {
		return err
	}
	scm.state = &stereoState{left: leftModel, right: rightModel, q: q}
	scm.logger.Debugw("loaded stereo calibration", "frame", left.FrameID, "baseline", 1/q[3][2])
	return nil
}

func reprojectionMatrix(p Mat34) (Mat44, error) {
	fx, cx, cy := p[0][0], p[0][2], p[1][2]
	if fx == 0 {
		return Mat44{}, errors.Wrap(ErrDegenerateBaseline, "right camera has zero focal length")
	}
	if p[0][3] == 0 {
		return Mat44{}, errors.Wrap(ErrDegenerateBaseline, "right camera has zero baseline")
	}
	tx := -p[0][3] / fx
	return NewMat44([]float64{
		1, 0, 0, -cx,
		0, 1, 0, -cy,
		0, 0, 0, fx,
		0, 0, 1 / tx, 0,
	})
}

func (scm *StereoCameraModel) loaded() (*stereoState, error) {
	if scm.state == nil {
		return nil, ErrNotLoaded
	}
	return scm.state, nil
}

// IsLoaded returns whether a stereo calibration has been loaded.
func (scm *StereoCameraModel) IsLoaded() bool {
	return scm.state != nil
}

// Left returns the left camera.
func (scm *StereoCameraModel) Left() (*PinholeCameraModel, error) {
	state, err := scm.loaded()
	if err != nil {
		return nil, err
	}
	return state.left, nil
}

// Right returns the right camera.
func (scm *StereoCameraModel) Right() (*PinholeCameraModel, error) {
	state, err := scm.loaded()
	if err != nil {
		return nil, err
	}
	return state.right, nil
}

// FrameID returns the left camera's frame.
func (scm *StereoCameraModel) FrameID() (string, error) {
	state, err := scm.loaded()
	if err != nil {
		return "", err
	}
	return state.left.FrameID()
}

// ReprojectionMatrix returns Q.
func (scm *StereoCameraModel) ReprojectionMatrix() (Mat44, error) {
	state, err := scm.loaded()
	if err != nil {
		return Mat44{}, err
	}
	return state.q, nil
}

// Project3DToPixel projects a point through each camera independently.
func (scm *StereoCameraModel) Project3DToPixel(pt r3.Vector) (r2.Point, r2.Point, error) {
	state, err := scm.loaded()
	if err != nil {
		return r2.Point{}, r2.Point{}, err
	}
	left, err := state.left.Project3DToPixel(pt)
	if err != nil {
		return r2.Point{}, r2.Point{}, err
	}
	right, err := state.right.Project3DToPixel(pt)
	if err != nil {
		return r2.Point{}, r2.Point{}, err
	}
	return left, right, nil
}

// ProjectPixelTo3D reconstructs the point seen at a left rectified pixel with the given disparity.
// When Q yields a zero homogeneous weight the origin is returned, unlike the NaN of
// PinholeCameraModel.Project3DToPixel.
func (scm *StereoCameraModel) ProjectPixelTo3D(leftUV r2.Point, disparity float64) (r3.Vector, error) {
	state, err := scm.loaded()
	if err != nil {
		return r3.Vector{}, err
	}
	xyzw := state.q.MulVec4([4]float64{leftUV.X, leftUV.Y, disparity, 1})
	if xyzw[3] == 0 {
		return r3.Vector{}, nil
	}
	return r3.Vector{X: xyzw[0] / xyzw[3], Y: xyzw[1] / xyzw[3], Z: xyzw[2] / xyzw[3]}, nil
}

// DepthFromDisparity returns the depth -P_right[0,3]/disparity. It is +Inf for a zero disparity.
func (scm *StereoCameraModel) DepthFromDisparity(disparity float64) (float64, error) {
	state, err := scm.loaded()
	if err != nil {
		return 0, err
	}
	if disparity == 0 {
		return math.Inf(1), nil
	}
	return -state.right.state.p[0][3] / disparity, nil
}

// DisparityFromDepth returns the disparity -P_right[0,3]/z. It is +Inf for a zero depth.
func (scm *StereoCameraModel) DisparityFromDepth(z float64) (float64, error) {
	state, err := scm.loaded()
	if err != nil {
		return 0, err
	}
	if z == 0 {
		return math.Inf(1), nil
	}
	return -state.right.state.p[0][3] / z, nil
}
