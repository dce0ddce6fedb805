package transform

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

const (
	// NoDistortionType is for calibrations without distortion coefficients.
	NoDistortionType = DistortionType("none")
	// BrownConradyDistortionType is for simple lenses of narrow field easily modeled as a pinhole camera.
	// It is the ROS "plumb_bob" model: k1, k2, p1, p2[, k3].
	BrownConradyDistortionType = DistortionType("brown_conrady")
	// RationalPolynomialDistortionType adds a rational radial term: k1, k2, p1, p2, k3, k4, k5, k6.
	RationalPolynomialDistortionType = DistortionType("rational_polynomial")
	// ThinPrismDistortionType adds thin prism terms to the rational model: ..., s1, s2, s3, s4.
	ThinPrismDistortionType = DistortionType("thin_prism")
	// InverseBrownConradyDistortionType maps distorted points back to undistorted ones.
	InverseBrownConradyDistortionType = DistortionType("inverse_brown_conrady")
)

// Distorter defines a Transform that takes an undistorted point in normalized image coordinates and
// distorts it according to the model.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
}

// InvalidDistortionError is used when the distortion_parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrap(errors.New("invalid distortion_parameters"), msg)
}

// NewDistorter returns the Distorter for a distortion coefficient vector. The model is picked from
// the number of coefficients the same way OpenCV interprets them: 0, 4, 5, 8 or 12 values.
func NewDistorter(coeffs []float64) (Distorter, error) {
	bc, err := NewBrownConrady(coeffs)
	if err != nil {
		return nil, err
	}
	return bc, nil
}
