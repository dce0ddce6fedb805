package cli

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/camerageometry/rimage/transform"
	"go.viam.com/camerageometry/ros"
)

// InfoAction prints the loaded calibration as a table.
func InfoAction(c *cli.Context) error {
	model, err := loadModel(c, newLogger(c))
	if err != nil {
		return err
	}
	out, err := describeModel(model)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}

// describeModel renders the calibration of a loaded model.
func describeModel(model *transform.PinholeCameraModel) (string, error) {
	frame, err := model.FrameID()
	if err != nil {
		return "", err
	}
	res, err := model.FullResolution()
	if err != nil {
		return "", err
	}
	bx, by, err := model.Binning()
	if err != nil {
		return "", err
	}
	roi, err := model.RegionOfInterest()
	if err != nil {
		return "", err
	}
	k, err := model.IntrinsicMatrix()
	if err != nil {
		return "", err
	}
	p, err := model.ProjectionMatrix()
	if err != nil {
		return "", err
	}
	d, err := model.DistortionCoeffs()
	if err != nil {
		return "", err
	}
	distorter, err := transform.NewDistorter(d)
	if err != nil {
		return "", err
	}
	fovX, err := model.FovX()
	if err != nil {
		return "", err
	}
	fovY, err := model.FovY()
	if err != nil {
		return "", err
	}
	intrinsics, err := model.Intrinsics()
	if err != nil {
		return "", err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Parameter", "Value"})
	t.AppendRow(table.Row{"Frame", frame})
	t.AppendRow(table.Row{"Resolution", fmt.Sprintf("%dx%d", res.X, res.Y)})
	t.AppendRow(table.Row{"Binning", fmt.Sprintf("%dx%d", bx, by)})
	t.AppendRow(table.Row{"ROI", fmt.Sprintf("x:%d y:%d w:%d h:%d", roi.XOffset, roi.YOffset, roi.Width, roi.Height)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Fx, Fy", fmt.Sprintf("%.4f, %.4f", p[0][0], p[1][1])})
	t.AppendRow(table.Row{"Cx, Cy", fmt.Sprintf("%.4f, %.4f", p[0][2], p[1][2])})
	t.AppendRow(table.Row{"Tx, Ty", fmt.Sprintf("%.4f, %.4f", p[0][3], p[1][3])})
	t.AppendRow(table.Row{"FOV", fmt.Sprintf("%.2f° x %.2f°", fovX*180/math.Pi, fovY*180/math.Pi)})
	t.AppendRow(table.Row{"Distortion", fmt.Sprintf("%s %s", distorter.ModelType(), formatFloats(distorter.Parameters()))})
	t.AppendSeparator()
	t.AppendRow(table.Row{"K", formatFloats(k.Data())})
	t.AppendRow(table.Row{"P", formatFloats(p.Data())})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Image size", fmt.Sprintf("%dx%d", intrinsics.Width, intrinsics.Height)})
	t.AppendRow(table.Row{"Image K", formatFloats(intrinsics.GetCameraMatrix().RawMatrix().Data)})
	return t.Render(), nil
}

// ExportAction writes the calibration as a camera_info_manager YAML file.
func ExportAction(c *cli.Context) error {
	info, err := readCameraInfo(c, calibrationFlagPath, calibrationFlagTopic)
	if err != nil {
		return err
	}
	if err := info.Validate(); err != nil {
		return err
	}
	output := c.String(exportFlagOutput)
	if output == "" {
		return errors.Errorf("--%s is required", exportFlagOutput)
	}
	name := c.String(exportFlagName)
	if name == "" {
		name = info.FrameID
	}
	if err := ros.WriteCalibrationYAML(output, name, info); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s", output)
	return nil
}
