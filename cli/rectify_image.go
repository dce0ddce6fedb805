package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/camerageometry/rimage"
)

// RectifyImageAction undistorts and rectifies an image file.
func RectifyImageAction(c *cli.Context) error {
	input, output := c.String(rectifyFlagInput), c.String(rectifyFlagOutput)
	if input == "" || output == "" {
		return errors.Errorf("--%s and --%s are required", rectifyFlagInput, rectifyFlagOutput)
	}
	logger := newLogger(c)
	model, err := loadModel(c, logger)
	if err != nil {
		return err
	}
	raw, err := rimage.NewImageFromFile(input)
	if err != nil {
		return err
	}
	start := time.Now()
	rectified, err := model.RectifyImage(raw)
	if err != nil {
		return err
	}
	logger.Debugw("rectified image", "input", input, "elapsed", time.Since(start))
	if err := rimage.WriteImageToFile(output, rectified); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s", output)
	return nil
}
