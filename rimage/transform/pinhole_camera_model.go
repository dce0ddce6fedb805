package transform

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/camerageometry/logging"
	"go.viam.com/camerageometry/rimage"
)

// ModelOption configures a camera model at construction.
type ModelOption func(*modelOptions)

type modelOptions struct {
	rectifier Rectifier
}

// WithRectifier replaces the built-in Rectifier used for image and point rectification.
func WithRectifier(r Rectifier) ModelOption {
	return func(opts *modelOptions) {
		opts.rectifier = r
	}
}

func newModelOptions(logger logging.Logger, opts []ModelOption) modelOptions {
	var mo modelOptions
	for _, opt := range opts {
		opt(&mo)
	}
	if mo.rectifier == nil {
		mo.rectifier = NewRectifier(logger)
	}
	return mo
}

// PinholeCameraModel answers geometry queries against one camera's calibration. The working K and P
// are adjusted for the sensor's binning and region of interest; the full resolution copies keep the
// calibrated values.
//
// A model does no locking. Load replaces the whole calibration at once, but a Load concurrent with
// queries on the same model is a data race; use calibration.Source to swap models between goroutines.
type PinholeCameraModel struct {
	logger    logging.Logger
	rectifier Rectifier
	state     *pinholeState
}

type pinholeState struct {
	k, fullK, r Mat33
	p, fullP    Mat34
	d           []float64

	width, height      int
	binningX, binningY int
	roi                RegionOfInterest

	frameID string
	stamp   time.Time

	mapOnce sync.Once
	rectMap *RectificationMap
	mapErr  error
}

// NewPinholeCameraModel returns a model with no calibration loaded.
func NewPinholeCameraModel(logger logging.Logger, opts ...ModelOption) *PinholeCameraModel {
	mo := newModelOptions(logger, opts)
	return &PinholeCameraModel{logger: logger, rectifier: mo.rectifier}
}

// Load validates info and replaces the model's calibration with it. On error the previous
// calibration, if any, is kept.
func (pcm *PinholeCameraModel) Load(info *CameraInfo) error {
	state, err := newPinholeState(info)
	if err != nil {
		return err
	}
	pcm.state = state
	pcm.logger.Debugw("loaded camera calibration",
		"frame", state.frameID,
		"resolution", image.Pt(state.width, state.height),
		"binning", image.Pt(state.binningX, state.binningY),
		"roi", state.roi,
		"distortion", len(state.d))
	return nil
}

func newPinholeState(info *CameraInfo) (*pinholeState, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if _, err := NewBrownConrady(info.D); err != nil {
		return nil, err
	}
	k, err := NewMat33(info.K)
	if err != nil {
		return nil, NewInvalidCameraInfoError("K: %v", err)
	}
	r, err := NewMat33(info.R)
	if err != nil {
		return nil, NewInvalidCameraInfoError("R: %v", err)
	}
	p, err := NewMat34(info.P)
	if err != nil {
		return nil, NewInvalidCameraInfoError("P: %v", err)
	}

	state := &pinholeState{
		k:        k,
		fullK:    k,
		r:        r,
		p:        p,
		fullP:    p,
		width:    info.Width,
		height:   info.Height,
		binningX: info.BinningX,
		binningY: info.BinningY,
		roi:      info.ROI,
		frameID:  info.FrameID,
		stamp:    info.Stamp,
	}
	if len(info.D) > 0 {
		state.d = append([]float64(nil), info.D...)
	}
	if state.binningX < 1 {
		state.binningX = 1
	}
	if state.binningY < 1 {
		state.binningY = 1
	}
	if state.roi.IsZero() {
		state.roi.Width = info.Width
		state.roi.Height = info.Height
	}

	bx, by := float64(state.binningX), float64(state.binningY)
	xOff, yOff := float64(state.roi.XOffset), float64(state.roi.YOffset)

	state.k[0][0] /= bx
	state.k[1][1] /= by
	state.k[0][2] = (state.k[0][2] - xOff) / bx
	state.k[1][2] = (state.k[1][2] - yOff) / by

	state.p[0][0] /= bx
	state.p[1][1] /= by
	state.p[0][2] = (state.p[0][2] - xOff) / bx
	state.p[1][2] = (state.p[1][2] - yOff) / by

	return state, nil
}

// IsLoaded returns whether a calibration has been loaded.
func (pcm *PinholeCameraModel) IsLoaded() bool {
	return pcm.state != nil
}

func (pcm *PinholeCameraModel) loaded() (*pinholeState, error) {
	if pcm.state == nil {
		return nil, ErrNotLoaded
	}
	return pcm.state, nil
}

// RectificationMap returns the map from rectified to raw pixels for the loaded calibration. It is
// built on first use and reused until the next Load.
func (pcm *PinholeCameraModel) RectificationMap() (*RectificationMap, error) {
	state, err := pcm.loaded()
	if err != nil {
		return nil, err
	}
	state.mapOnce.Do(func() {
		state.rectMap, state.mapErr = pcm.rectifier.InitUndistortRectifyMap(
			state.k, state.d, state.r, state.p, image.Pt(state.width, state.height))
	})
	return state.rectMap, state.mapErr
}

// RectifyImage undistorts and rectifies a raw image. The raw image must have the model's full
// resolution; the result has the same size.
func (pcm *PinholeCameraModel) RectifyImage(raw image.Image) (*rimage.Image, error) {
	state, err := pcm.loaded()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("raw image is nil")
	}
	size := raw.Bounds().Size()
	if size.X != state.width || size.Y != state.height {
		return nil, errors.Errorf("image size %v does not match calibrated resolution %v",
			size, image.Pt(state.width, state.height))
	}
	rm, err := pcm.RectificationMap()
	if err != nil {
		return nil, err
	}
	return rm.Remap(rimage.NewImageFromStdImage(raw))
}

// RectifyPoint undistorts and rectifies a single raw pixel.
func (pcm *PinholeCameraModel) RectifyPoint(uv r2.Point) (r2.Point, error) {
	state, err := pcm.loaded()
	if err != nil {
		return r2.Point{}, err
	}
	return pcm.rectifier.UndistortPoint(uv, state.k, state.d, state.r, state.p)
}

// Project3DToPixel projects a point in the camera frame to a rectified pixel through P.
// A point whose projected homogeneous weight is zero has no image and yields (NaN, NaN).
func (pcm *PinholeCameraModel) Project3DToPixel(pt r3.Vector) (r2.Point, error) {
	state, err := pcm.loaded()
	if err != nil {
		return r2.Point{}, err
	}
	uvw := state.p.MulVec4([4]float64{pt.X, pt.Y, pt.Z, 1})
	if uvw[2] == 0 {
		return r2.Point{X: math.NaN(), Y: math.NaN()}, nil
	}
	return r2.Point{X: uvw[0] / uvw[2], Y: uvw[1] / uvw[2]}, nil
}

// ProjectPixelTo3DRay returns the unit ray through a rectified pixel. Only fx, fy, cx and cy of P
// are used, so for a camera with a non-zero P[0,3] or P[1,3] (the right camera of a stereo pair)
// this is not the inverse of Project3DToPixel.
func (pcm *PinholeCameraModel) ProjectPixelTo3DRay(uv r2.Point) (r3.Vector, error) {
	state, err := pcm.loaded()
	if err != nil {
		return r3.Vector{}, err
	}
	x := (uv.X - state.p[0][2]) / state.p[0][0]
	y := (uv.Y - state.p[1][2]) / state.p[1][1]
	return r3.Vector{X: x, Y: y, Z: 1}.Normalize(), nil
}

// DeltaU returns the horizontal pixel span of deltaX at depth z. It is +Inf when z is 0.
func (pcm *PinholeCameraModel) DeltaU(deltaX, z float64) (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	if z == 0 {
		return math.Inf(1), nil
	}
	return state.p[0][0] * deltaX / z, nil
}

// DeltaV returns the vertical pixel span of deltaY at depth z. It is +Inf when z is 0.
func (pcm *PinholeCameraModel) DeltaV(deltaY, z float64) (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	if z == 0 {
		return math.Inf(1), nil
	}
	return state.p[1][1] * deltaY / z, nil
}

// DeltaX is the inverse of DeltaU.
func (pcm *PinholeCameraModel) DeltaX(deltaU, z float64) (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	return z * deltaU / state.p[0][0], nil
}

// DeltaY is the inverse of DeltaV.
func (pcm *PinholeCameraModel) DeltaY(deltaV, z float64) (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	return z * deltaV / state.p[1][1], nil
}

// FullResolution returns the calibrated sensor resolution.
func (pcm *PinholeCameraModel) FullResolution() (image.Point, error) {
	state, err := pcm.loaded()
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(state.width, state.height), nil
}

// IntrinsicMatrix returns K adjusted for binning and region of interest.
func (pcm *PinholeCameraModel) IntrinsicMatrix() (Mat33, error) {
	state, err := pcm.loaded()
	if err != nil {
		return Mat33{}, err
	}
	return state.k, nil
}

// DistortionCoeffs returns a copy of D. It is nil for a calibration without distortion.
func (pcm *PinholeCameraModel) DistortionCoeffs() ([]float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return nil, err
	}
	if state.d == nil {
		return nil, nil
	}
	return append([]float64(nil), state.d...), nil
}

// RotationMatrix returns R.
func (pcm *PinholeCameraModel) RotationMatrix() (Mat33, error) {
	state, err := pcm.loaded()
	if err != nil {
		return Mat33{}, err
	}
	return state.r, nil
}

// ProjectionMatrix returns P adjusted for binning and region of interest.
func (pcm *PinholeCameraModel) ProjectionMatrix() (Mat34, error) {
	state, err := pcm.loaded()
	if err != nil {
		return Mat34{}, err
	}
	return state.p, nil
}

// FullIntrinsicMatrix returns K as calibrated.
func (pcm *PinholeCameraModel) FullIntrinsicMatrix() (Mat33, error) {
	state, err := pcm.loaded()
	if err != nil {
		return Mat33{}, err
	}
	return state.fullK, nil
}

// FullProjectionMatrix returns P as calibrated.
func (pcm *PinholeCameraModel) FullProjectionMatrix() (Mat34, error) {
	state, err := pcm.loaded()
	if err != nil {
		return Mat34{}, err
	}
	return state.fullP, nil
}

func (pcm *PinholeCameraModel) projectionEntry(row, col int) (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	return state.p[row][col], nil
}

// Cx returns P[0,2].
func (pcm *PinholeCameraModel) Cx() (float64, error) {
	return pcm.projectionEntry(0, 2)
}

// Cy returns P[1,2].
func (pcm *PinholeCameraModel) Cy() (float64, error) {
	return pcm.projectionEntry(1, 2)
}

// Fx returns P[0,0].
func (pcm *PinholeCameraModel) Fx() (float64, error) {
	return pcm.projectionEntry(0, 0)
}

// Fy returns P[1,1].
func (pcm *PinholeCameraModel) Fy() (float64, error) {
	return pcm.projectionEntry(1, 1)
}

// Tx returns P[0,3], which is -fx times the baseline for the right camera of a stereo pair.
func (pcm *PinholeCameraModel) Tx() (float64, error) {
	return pcm.projectionEntry(0, 3)
}

// Ty returns P[1,3].
func (pcm *PinholeCameraModel) Ty() (float64, error) {
	return pcm.projectionEntry(1, 3)
}

// FovX returns the horizontal field of view in radians, 2*atan(width/(2*fx)).
// The full width is used with the adjusted fx, so the value only describes the sensor when no
// binning or region of interest applies.
func (pcm *PinholeCameraModel) FovX() (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	return 2 * math.Atan(float64(state.width)/(2*state.p[0][0])), nil
}

// FovY returns the vertical field of view in radians, 2*atan(height/(2*fy)).
func (pcm *PinholeCameraModel) FovY() (float64, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, err
	}
	return 2 * math.Atan(float64(state.height)/(2*state.p[1][1])), nil
}

// FrameID returns the coordinate frame the calibration was recorded in.
func (pcm *PinholeCameraModel) FrameID() (string, error) {
	state, err := pcm.loaded()
	if err != nil {
		return "", err
	}
	return state.frameID, nil
}

// Stamp returns the calibration record's timestamp.
func (pcm *PinholeCameraModel) Stamp() (time.Time, error) {
	state, err := pcm.loaded()
	if err != nil {
		return time.Time{}, err
	}
	return state.stamp, nil
}

// Binning returns the binning factors, each at least 1.
func (pcm *PinholeCameraModel) Binning() (int, int, error) {
	state, err := pcm.loaded()
	if err != nil {
		return 0, 0, err
	}
	return state.binningX, state.binningY, nil
}

// RegionOfInterest returns the region of interest, with an all zero region replaced by the full
// resolution.
func (pcm *PinholeCameraModel) RegionOfInterest() (RegionOfInterest, error) {
	state, err := pcm.loaded()
	if err != nil {
		return RegionOfInterest{}, err
	}
	return state.roi, nil
}

// Intrinsics returns the rectified pinhole intrinsics of the delivered image, which is the region of
// interest divided by the binning.
func (pcm *PinholeCameraModel) Intrinsics() (*PinholeCameraIntrinsics, error) {
	state, err := pcm.loaded()
	if err != nil {
		return nil, err
	}
	return &PinholeCameraIntrinsics{
		Width:  state.roi.Width / state.binningX,
		Height: state.roi.Height / state.binningY,
		Fx:     state.p[0][0],
		Fy:     state.p[1][1],
		Ppx:    state.p[0][2],
		Ppy:    state.p[1][2],
	}, nil
}
