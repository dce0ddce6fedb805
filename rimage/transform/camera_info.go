package transform

import (
	"math"
	"time"

	"go.uber.org/multierr"
)

// RegionOfInterest is the sub-window of the full sensor resolution that was captured.
// A zero RegionOfInterest means the full resolution.
type RegionOfInterest struct {
	XOffset   int  `json:"x_offset"`
	YOffset   int  `json:"y_offset"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	DoRectify bool `json:"do_rectify"`
}

// IsZero returns whether the offsets and the size are all zero.
func (roi RegionOfInterest) IsZero() bool {
	return roi.XOffset == 0 && roi.YOffset == 0 && roi.Width == 0 && roi.Height == 0
}

// CameraInfo is a decoded camera calibration record. Matrices are row-major; D may be empty,
// in which case no distortion correction is applied.
type CameraInfo struct {
	FrameID string    `json:"frame_id"`
	Stamp   time.Time `json:"stamp"`

	Width  int `json:"width"`
	Height int `json:"height"`

	DistortionModel string    `json:"distortion_model"`
	D               []float64 `json:"d"`
	K               []float64 `json:"k"`
	R               []float64 `json:"r"`
	P               []float64 `json:"p"`

	BinningX int              `json:"binning_x"`
	BinningY int              `json:"binning_y"`
	ROI      RegionOfInterest `json:"roi"`
}

// Validate checks that the record can be loaded into a camera model. Every problem found is
// reported, combined into one error.
func (info *CameraInfo) Validate() error {
	if info == nil {
		return NewInvalidCameraInfoError("camera info is nil")
	}
	var errs error
	if info.Width <= 0 || info.Height <= 0 {
		errs = multierr.Append(errs, NewInvalidCameraInfoError("invalid resolution (%d, %d)", info.Width, info.Height))
	}
	for _, m := range []struct {
		name   string
		values []float64
		length int
	}{
		{"K", info.K, 9},
		{"R", info.R, 9},
		{"P", info.P, 12},
		{"D", info.D, len(info.D)},
	} {
		if len(m.values) != m.length {
			errs = multierr.Append(errs, NewInvalidCameraInfoError("%s needs %d values, got %d", m.name, m.length, len(m.values)))
			continue
		}
		for idx, v := range m.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = multierr.Append(errs, NewInvalidCameraInfoError("%s[%d] is not finite (%v)", m.name, idx, v))
				break
			}
		}
	}
	if info.BinningX < 0 || info.BinningY < 0 {
		errs = multierr.Append(errs, NewInvalidCameraInfoError("invalid binning (%d, %d)", info.BinningX, info.BinningY))
	}
	roi := info.ROI
	if roi.XOffset < 0 || roi.YOffset < 0 || roi.Width < 0 || roi.Height < 0 {
		errs = multierr.Append(errs, NewInvalidCameraInfoError("invalid roi %+v", roi))
	} else if info.Width > 0 && info.Height > 0 &&
		(roi.XOffset+roi.Width > info.Width || roi.YOffset+roi.Height > info.Height) {
		errs = multierr.Append(errs, NewInvalidCameraInfoError(
			"roi %+v exceeds resolution (%d, %d)", roi, info.Width, info.Height))
	}
	return errs
}
