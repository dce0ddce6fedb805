package cli

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/urfave/cli/v2"
)

// ProjectAction projects a 3D point in the camera frame to a rectified pixel.
func ProjectAction(c *cli.Context) error {
	args, err := floatArgs(c, "x", "y", "z")
	if err != nil {
		return err
	}
	model, err := loadModel(c, newLogger(c))
	if err != nil {
		return err
	}
	uv, err := model.Project3DToPixel(r3.Vector{X: args[0], Y: args[1], Z: args[2]})
	if err != nil {
		return err
	}
	if math.IsNaN(uv.X) {
		warningf(c.App.ErrWriter, "point has no projection")
	}
	printf(c.App.Writer, "%g %g", uv.X, uv.Y)
	return nil
}

// RayAction prints the unit ray through a rectified pixel.
func RayAction(c *cli.Context) error {
	args, err := floatArgs(c, "u", "v")
	if err != nil {
		return err
	}
	model, err := loadModel(c, newLogger(c))
	if err != nil {
		return err
	}
	ray, err := model.ProjectPixelTo3DRay(r2.Point{X: args[0], Y: args[1]})
	if err != nil {
		return err
	}
	if tx, err := model.Tx(); err == nil && tx != 0 {
		warningf(c.App.ErrWriter, "projection has a translation of %g that the ray ignores", tx)
	}
	printf(c.App.Writer, "%g %g %g", ray.X, ray.Y, ray.Z)
	return nil
}

// RectifyPointAction maps a raw pixel to its rectified location.
func RectifyPointAction(c *cli.Context) error {
	args, err := floatArgs(c, "u", "v")
	if err != nil {
		return err
	}
	model, err := loadModel(c, newLogger(c))
	if err != nil {
		return err
	}
	uv, err := model.RectifyPoint(r2.Point{X: args[0], Y: args[1]})
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%g %g", uv.X, uv.Y)
	return nil
}

// StereoPointAction reconstructs the 3D point of a left rectified pixel and its disparity.
func StereoPointAction(c *cli.Context) error {
	args, err := floatArgs(c, "u", "v", "disparity")
	if err != nil {
		return err
	}
	model, err := loadStereoModel(c, newLogger(c))
	if err != nil {
		return err
	}
	pt, err := model.ProjectPixelTo3D(r2.Point{X: args[0], Y: args[1]}, args[2])
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%g %g %g", pt.X, pt.Y, pt.Z)
	return nil
}

// DepthAction converts a disparity to a depth, or a depth to a disparity with --inverse.
func DepthAction(c *cli.Context) error {
	args, err := floatArgs(c, "value")
	if err != nil {
		return err
	}
	model, err := loadStereoModel(c, newLogger(c))
	if err != nil {
		return err
	}
	var out float64
	if c.Bool(depthFlagInverse) {
		out, err = model.DisparityFromDepth(args[0])
	} else {
		out, err = model.DepthFromDisparity(args[0])
	}
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%g", out)
	return nil
}
