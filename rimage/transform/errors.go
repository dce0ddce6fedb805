package transform

import "github.com/pkg/errors"

var (
	// ErrNotLoaded is returned by camera model queries made before a successful Load.
	ErrNotLoaded = errors.New("camera model has no calibration loaded")
	// ErrInvalidCameraInfo is returned when a calibration record is malformed.
	ErrInvalidCameraInfo = errors.New("invalid camera info")
	// ErrDegenerateBaseline is returned when a stereo pair's right projection matrix cannot produce a
	// reprojection matrix (zero focal length or zero baseline).
	ErrDegenerateBaseline = errors.New("degenerate stereo baseline")
	// ErrUnsupportedDistortion is returned for distortion vectors the rectifier cannot interpret.
	ErrUnsupportedDistortion = errors.New("unsupported distortion coefficients")
	// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
	ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")
)

// NewInvalidCameraInfoError wraps ErrInvalidCameraInfo with a reason.
func NewInvalidCameraInfoError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidCameraInfo, format, args...)
}

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}
