package transform

import (
	"math"

	"github.com/pkg/errors"
)

// BrownConrady is the OpenCV lens distortion model. The coefficients are stored in OpenCV order
// (k1, k2, p1, p2, k3, k4, k5, k6, s1, s2, s3, s4); unused trailing coefficients are zero.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
	RadialK3     float64 `json:"rk3"`
	RadialK4     float64 `json:"rk4"`
	RadialK5     float64 `json:"rk5"`
	RadialK6     float64 `json:"rk6"`
	PrismS1      float64 `json:"s1"`
	PrismS2      float64 `json:"s2"`
	PrismS3      float64 `json:"s3"`
	PrismS4      float64 `json:"s4"`

	count int
}

// NewBrownConrady takes in a slice of coefficients in OpenCV order. Lengths other than 0, 4, 5, 8
// and 12 are rejected with ErrUnsupportedDistortion.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	switch len(inp) {
	case 0, 4, 5, 8, 12:
	default:
		return nil, errors.Wrapf(ErrUnsupportedDistortion, "expected 0, 4, 5, 8 or 12 coefficients, got %d", len(inp))
	}
	var full [12]float64
	copy(full[:], inp)
	bc := &BrownConrady{
		full[0], full[1], full[2], full[3], full[4], full[5],
		full[6], full[7], full[8], full[9], full[10], full[11],
		len(inp),
	}
	if err := bc.CheckValid(); err != nil {
		return nil, err
	}
	return bc, nil
}

// CheckValid checks if the fields for BrownConrady have valid inputs.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return InvalidDistortionError("BrownConrady shaped distortion_parameters not provided")
	}
	for _, v := range bc.allParameters() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InvalidDistortionError("distortion coefficients must be finite")
		}
	}
	return nil
}

// ModelType returns the type of distortion model.
func (bc *BrownConrady) ModelType() DistortionType {
	if bc == nil {
		return NoDistortionType
	}
	switch {
	case bc.count == 0:
		return NoDistortionType
	case bc.count <= 5:
		return BrownConradyDistortionType
	case bc.count <= 8:
		return RationalPolynomialDistortionType
	default:
		return ThinPrismDistortionType
	}
}

// Parameters returns the coefficients the model was built from, in OpenCV order.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return bc.allParameters()[:bc.count]
}

func (bc *BrownConrady) allParameters() []float64 {
	return []float64{
		bc.RadialK1, bc.RadialK2, bc.TangentialP1, bc.TangentialP2, bc.RadialK3, bc.RadialK4,
		bc.RadialK5, bc.RadialK6, bc.PrismS1, bc.PrismS2, bc.PrismS3, bc.PrismS4,
	}
}

// Transform distorts a point given in normalized image coordinates:
//
//	r² = x² + y²
//	radial = (1 + k1*r² + k2*r⁴ + k3*r⁶) / (1 + k4*r² + k5*r⁴ + k6*r⁶)
//	x_d = x*radial + 2*p1*x*y + p2*(r² + 2*x²) + s1*r² + s2*r⁴
//	y_d = y*radial + p1*(r² + 2*y²) + 2*p2*x*y + s3*r² + s4*r⁴
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil || bc.count == 0 {
		return x, y
	}
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2
	radial := (1 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6) /
		(1 + bc.RadialK4*r2 + bc.RadialK5*r4 + bc.RadialK6*r6)
	xd := x*radial + 2*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2*x*x) + bc.PrismS1*r2 + bc.PrismS2*r4
	yd := y*radial + bc.TangentialP1*(r2+2*y*y) + 2*bc.TangentialP2*x*y + bc.PrismS3*r2 + bc.PrismS4*r4
	return xd, yd
}
