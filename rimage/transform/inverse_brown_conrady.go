package transform

// InverseBrownConrady applies the inverse of a BrownConrady distortion model.
// Given distorted points, it computes the corresponding undistorted points using
// an iterative Newton-Raphson method.
type InverseBrownConrady struct {
	Forward *BrownConrady `json:"forward"`
}

// NewInverseBrownConrady takes in a slice of coefficients in OpenCV order, see NewBrownConrady.
func NewInverseBrownConrady(inp []float64) (*InverseBrownConrady, error) {
	forward, err := NewBrownConrady(inp)
	if err != nil {
		return nil, err
	}
	return &InverseBrownConrady{Forward: forward}, nil
}

// CheckValid checks if the fields for InverseBrownConrady have valid inputs.
func (ibc *InverseBrownConrady) CheckValid() error {
	if ibc == nil {
		return InvalidDistortionError("InverseBrownConrady shaped distortion_parameters not provided")
	}
	return ibc.Forward.CheckValid()
}

// ModelType returns the type of distortion model.
func (ibc *InverseBrownConrady) ModelType() DistortionType {
	return InverseBrownConradyDistortionType
}

// Parameters returns the parameters of the forward distortion model.
func (ibc *InverseBrownConrady) Parameters() []float64 {
	if ibc == nil {
		return []float64{}
	}
	return ibc.Forward.Parameters()
}

// Transform converts distorted normalized coordinates to undistorted ones. It searches for the
// undistorted point whose forward distortion lands on (xd, yd). The Jacobian of the forward model
// is estimated with central differences so every coefficient layout shares the same solver.
func (ibc *InverseBrownConrady) Transform(xd, yd float64) (float64, float64) {
	if ibc == nil || ibc.Forward == nil || ibc.Forward.count == 0 {
		return xd, yd
	}
	forward := ibc.Forward

	// Start with the distorted point as initial guess
	xu, yu := xd, yd

	const maxIterations = 20
	const tolerance = 1e-12
	const step = 1e-7

	for i := 0; i < maxIterations; i++ {
		xdEst, ydEst := forward.Transform(xu, yu)
		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}

		// J = [[dxd/dxu, dxd/dyu], [dyd/dxu, dyd/dyu]]
		xPlus, yPlus := forward.Transform(xu+step, yu)
		xMinus, yMinus := forward.Transform(xu-step, yu)
		dxdDxu := (xPlus - xMinus) / (2 * step)
		dydDxu := (yPlus - yMinus) / (2 * step)
		xPlus, yPlus = forward.Transform(xu, yu+step)
		xMinus, yMinus = forward.Transform(xu, yu-step)
		dxdDyu := (xPlus - xMinus) / (2 * step)
		dydDyu := (yPlus - yMinus) / (2 * step)

		det := dxdDxu*dydDyu - dxdDyu*dydDxu
		if det == 0 {
			break
		}

		// Update: [xu, yu] -= J^-1 * [errX, errY]
		xu -= (dydDyu*errX - dxdDyu*errY) / det
		yu -= (-dydDxu*errX + dxdDxu*errY) / det
	}

	return xu, yu
}
