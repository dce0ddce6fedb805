package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/camerageometry/logging"
	"go.viam.com/camerageometry/rimage/transform"
	"go.viam.com/camerageometry/ros"
)

// newLogger returns the command's logger. Logs go to the app's error writer so that command
// output stays machine readable.
func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(generalFlagDebug) {
		return logging.NewDebugLogger(c.App.Name, c.App.ErrWriter)
	}
	return logging.NewLogger(c.App.Name, c.App.ErrWriter)
}

func readCameraInfo(c *cli.Context, pathFlag, topicFlag string) (*transform.CameraInfo, error) {
	path := c.String(pathFlag)
	if path == "" {
		return nil, errors.Errorf("--%s is required", pathFlag)
	}
	topic := c.String(topicFlag)
	if topic == "" {
		topic = c.String(calibrationFlagTopic)
	}
	return ros.ReadCameraInfoFile(path, ros.BagSelector{Topic: topic, Index: c.Int(calibrationFlagIndex)})
}

// loadModel builds the monocular model for --calibration.
func loadModel(c *cli.Context, logger logging.Logger) (*transform.PinholeCameraModel, error) {
	info, err := readCameraInfo(c, calibrationFlagPath, calibrationFlagTopic)
	if err != nil {
		return nil, err
	}
	model := transform.NewPinholeCameraModel(logger)
	if err := model.Load(info); err != nil {
		return nil, err
	}
	return model, nil
}

// loadStereoModel builds the stereo model for --left and --right.
func loadStereoModel(c *cli.Context, logger logging.Logger) (*transform.StereoCameraModel, error) {
	var left, right *transform.CameraInfo
	var errs errgroup.Group
	errs.Go(func() error {
		var err error
		left, err = readCameraInfo(c, stereoFlagLeft, stereoFlagLeftTopic)
		return errors.Wrap(err, "left camera")
	})
	errs.Go(func() error {
		var err error
		right, err = readCameraInfo(c, stereoFlagRight, stereoFlagRightTopic)
		return errors.Wrap(err, "right camera")
	})
	if err := errs.Wait(); err != nil {
		return nil, err
	}
	model := transform.NewStereoCameraModel(logger)
	if err := model.Load(left, right); err != nil {
		return nil, err
	}
	return model, nil
}
