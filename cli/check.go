package cli

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/camerageometry/rimage/transform"
)

type residualSummary struct {
	mean, stdDev, p95, max float64
}

func summarize(residuals []float64) (residualSummary, error) {
	var s residualSummary
	var err, errs error
	s.mean, err = stats.Mean(residuals)
	errs = multierr.Append(errs, err)
	s.stdDev, err = stats.StandardDeviation(residuals)
	errs = multierr.Append(errs, err)
	s.p95, err = stats.Percentile(residuals, 95)
	errs = multierr.Append(errs, err)
	s.max, err = stats.Max(residuals)
	errs = multierr.Append(errs, err)
	return s, errs
}

// samplePixels returns a grid of n by n pixels spread over an image of the given size.
func samplePixels(width, height, n int) []r2.Point {
	if n < 2 {
		n = 2
	}
	pts := make([]r2.Point, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			pts = append(pts, r2.Point{
				X: float64(i*(width-1)) / float64(n-1),
				Y: float64(j*(height-1)) / float64(n-1),
			})
		}
	}
	return pts
}

// projectionResiduals measures how far a pixel moves after going to a ray and back.
func projectionResiduals(model *transform.PinholeCameraModel, pts []r2.Point) ([]float64, error) {
	residuals := make([]float64, 0, len(pts))
	for _, uv := range pts {
		ray, err := model.ProjectPixelTo3DRay(uv)
		if err != nil {
			return nil, err
		}
		back, err := model.Project3DToPixel(ray.Mul(1 / ray.Z))
		if err != nil {
			return nil, err
		}
		residuals = append(residuals, back.Sub(uv).Norm())
	}
	return residuals, nil
}

// rectificationResiduals measures how far rectifying the raw pixel sampled by the rectification
// map lands from the rectified pixel it was sampled for.
func rectificationResiduals(model *transform.PinholeCameraModel, pts []r2.Point) ([]float64, error) {
	rm, err := model.RectificationMap()
	if err != nil {
		return nil, err
	}
	residuals := make([]float64, 0, len(pts))
	for _, uv := range pts {
		u, v := int(uv.X), int(uv.Y)
		back, err := model.RectifyPoint(rm.At(u, v))
		if err != nil {
			return nil, err
		}
		residuals = append(residuals, back.Sub(r2.Point{X: float64(u), Y: float64(v)}).Norm())
	}
	return residuals, nil
}

// intrinsicsResiduals measures, over the delivered image, how far the rectified model projects the
// point that the image intrinsics back-project a pixel to. Intrinsics that disagree with their own
// inverse count as well.
func intrinsicsResiduals(model *transform.PinholeCameraModel, n int) ([]float64, error) {
	intrinsics, err := model.Intrinsics()
	if err != nil {
		return nil, err
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "image intrinsics")
	}
	pts := samplePixels(intrinsics.Width, intrinsics.Height, n)
	residuals := make([]float64, 0, len(pts))
	for _, uv := range pts {
		pt := intrinsics.PixelToPoint(uv.X, uv.Y, 1)
		u, v := intrinsics.PointToPixel(pt)
		projected, err := model.Project3DToPixel(pt)
		if err != nil {
			return nil, err
		}
		residuals = append(residuals, math.Max(
			math.Hypot(u-uv.X, v-uv.Y),
			projected.Sub(uv).Norm(),
		))
	}
	return residuals, nil
}

// CheckAction verifies that the calibration's projections and rectification invert each other.
func CheckAction(c *cli.Context) error {
	model, err := loadModel(c, newLogger(c))
	if err != nil {
		return err
	}
	res, err := model.FullResolution()
	if err != nil {
		return err
	}
	pts := samplePixels(res.X, res.Y, c.Int(checkFlagSamples))

	projection, err := projectionResiduals(model, pts)
	if err != nil {
		return err
	}
	rectification, err := rectificationResiduals(model, pts)
	if err != nil {
		return err
	}
	intrinsics, err := intrinsicsResiduals(model, c.Int(checkFlagSamples))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Check", "Mean (px)", "Std dev (px)", "95% (px)", "Max (px)"})
	tolerance := c.Float64(checkFlagTolerance)
	var failed []string
	for _, check := range []struct {
		name      string
		residuals []float64
	}{
		{"pixel -> ray -> pixel", projection},
		{"map -> rectify point", rectification},
		{"intrinsics -> projection", intrinsics},
	} {
		s, err := summarize(check.residuals)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{
			check.name,
			fmt.Sprintf("%.6f", s.mean),
			fmt.Sprintf("%.6f", s.stdDev),
			fmt.Sprintf("%.6f", s.p95),
			fmt.Sprintf("%.6f", s.max),
		})
		if s.max > tolerance {
			failed = append(failed, check.name)
		}
	}
	printf(c.App.Writer, "%s", t.Render())

	if len(failed) > 0 {
		if tx, err := model.Tx(); err == nil && tx != 0 {
			warningf(c.App.ErrWriter, "rays ignore the projection's translation %g", tx)
		}
		return errors.Errorf("residuals above %g px: %v", tolerance, failed)
	}
	return nil
}
