package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/camerageometry/rimage/calibration"
	"go.viam.com/camerageometry/rimage/transform"
	"go.viam.com/camerageometry/ros"
)

// WatchAction prints the calibration and prints it again every time the file changes, until
// interrupted.
func WatchAction(c *cli.Context) error {
	logger := newLogger(c)
	path := c.String(calibrationFlagPath)
	show := func(model *transform.PinholeCameraModel) {
		out, err := describeModel(model)
		if err != nil {
			logger.Errorw("cannot describe calibration", "error", err)
			return
		}
		printf(c.App.Writer, "%s", out)
	}

	source, err := calibration.NewSource(calibration.SourceConfig{
		Path:     path,
		Bag:      ros.BagSelector{Topic: c.String(calibrationFlagTopic), Index: c.Int(calibrationFlagIndex)},
		OnReload: show,
	}, logger)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(source.Close)
	show(source.Model())
	logger.Infow("watching calibration", "path", path)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
