package ros

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/camerageometry/rimage/transform"
)

// YAMLMatrix is a matrix as written by camera_info_manager.
type YAMLMatrix struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Data []float64 `yaml:"data,flow"`
}

func (m YAMLMatrix) check(name string, rows, cols int) error {
	if rows > 0 && (m.Rows != rows || m.Cols != cols) {
		return errors.Errorf("%s must be %dx%d, got %dx%d", name, rows, cols, m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return errors.Errorf("%s is %dx%d but has %d values", name, m.Rows, m.Cols, len(m.Data))
	}
	return nil
}

// YAMLRegionOfInterest is the optional roi block of a calibration file.
type YAMLRegionOfInterest struct {
	XOffset   int  `yaml:"x_offset"`
	YOffset   int  `yaml:"y_offset"`
	Width     int  `yaml:"width"`
	Height    int  `yaml:"height"`
	DoRectify bool `yaml:"do_rectify"`
}

// CalibrationYAML is the camera_info_manager calibration file layout.
type CalibrationYAML struct {
	ImageWidth             int                  `yaml:"image_width"`
	ImageHeight            int                  `yaml:"image_height"`
	CameraName             string               `yaml:"camera_name"`
	CameraMatrix           YAMLMatrix           `yaml:"camera_matrix"`
	DistortionModel        string               `yaml:"distortion_model"`
	DistortionCoefficients YAMLMatrix           `yaml:"distortion_coefficients"`
	RectificationMatrix    YAMLMatrix           `yaml:"rectification_matrix"`
	ProjectionMatrix       YAMLMatrix           `yaml:"projection_matrix"`
	BinningX               int                  `yaml:"binning_x,omitempty"`
	BinningY               int                  `yaml:"binning_y,omitempty"`
	ROI                    YAMLRegionOfInterest `yaml:"roi,omitempty"`
}

// ToCameraInfo converts the calibration file into a CameraInfo. The camera name becomes the
// frame id.
func (cal *CalibrationYAML) ToCameraInfo() (*transform.CameraInfo, error) {
	for _, m := range []struct {
		name       string
		matrix     YAMLMatrix
		rows, cols int
	}{
		{"camera_matrix", cal.CameraMatrix, 3, 3},
		{"distortion_coefficients", cal.DistortionCoefficients, 0, 0},
		{"rectification_matrix", cal.RectificationMatrix, 3, 3},
		{"projection_matrix", cal.ProjectionMatrix, 3, 4},
	} {
		if err := m.matrix.check(m.name, m.rows, m.cols); err != nil {
			return nil, transform.NewInvalidCameraInfoError("%v", err)
		}
	}
	var d []float64
	if len(cal.DistortionCoefficients.Data) > 0 {
		d = append(d, cal.DistortionCoefficients.Data...)
	}
	return &transform.CameraInfo{
		FrameID:         cal.CameraName,
		Width:           cal.ImageWidth,
		Height:          cal.ImageHeight,
		DistortionModel: cal.DistortionModel,
		D:               d,
		K:               append([]float64(nil), cal.CameraMatrix.Data...),
		R:               append([]float64(nil), cal.RectificationMatrix.Data...),
		P:               append([]float64(nil), cal.ProjectionMatrix.Data...),
		BinningX:        cal.BinningX,
		BinningY:        cal.BinningY,
		ROI: transform.RegionOfInterest{
			XOffset:   cal.ROI.XOffset,
			YOffset:   cal.ROI.YOffset,
			Width:     cal.ROI.Width,
			Height:    cal.ROI.Height,
			DoRectify: cal.ROI.DoRectify,
		},
	}, nil
}

// NewCalibrationYAML builds the calibration file contents for info.
func NewCalibrationYAML(cameraName string, info *transform.CameraInfo) *CalibrationYAML {
	return &CalibrationYAML{
		ImageWidth:             info.Width,
		ImageHeight:            info.Height,
		CameraName:             cameraName,
		CameraMatrix:           YAMLMatrix{Rows: 3, Cols: 3, Data: info.K},
		DistortionModel:        info.DistortionModel,
		DistortionCoefficients: YAMLMatrix{Rows: 1, Cols: len(info.D), Data: info.D},
		RectificationMatrix:    YAMLMatrix{Rows: 3, Cols: 3, Data: info.R},
		ProjectionMatrix:       YAMLMatrix{Rows: 3, Cols: 4, Data: info.P},
		BinningX:               info.BinningX,
		BinningY:               info.BinningY,
		ROI: YAMLRegionOfInterest{
			XOffset:   info.ROI.XOffset,
			YOffset:   info.ROI.YOffset,
			Width:     info.ROI.Width,
			Height:    info.ROI.Height,
			DoRectify: info.ROI.DoRectify,
		},
	}
}

// ParseCalibrationYAML decodes a camera_info_manager calibration file.
func ParseCalibrationYAML(data []byte) (*transform.CameraInfo, error) {
	var cal CalibrationYAML
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return nil, errors.Wrap(err, "cannot parse calibration yaml")
	}
	return cal.ToCameraInfo()
}

// WriteCalibrationYAML writes info as a camera_info_manager calibration file.
func WriteCalibrationYAML(path, cameraName string, info *transform.CameraInfo) error {
	data, err := yaml.Marshal(NewCalibrationYAML(cameraName, info))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ParseCameraInfoJSON decodes a CameraInfo message in JSON, either bare or wrapped the way
// AllMessagesForTopic returns it.
func ParseCameraInfoJSON(data []byte) (*transform.CameraInfo, error) {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "cannot parse camera info json")
	}
	msg, err := DecodeCameraInfoMessage(raw)
	if err != nil {
		return nil, err
	}
	return msg.ToCameraInfo(), nil
}

// BagSelector picks one CameraInfo message out of a rosbag.
type BagSelector struct {
	Topic string
	// Index of the message on the topic. Negative values count from the last message.
	Index int
}

// ReadCameraInfoFile reads a calibration from a .yaml/.yml camera_info_manager file, a .json
// CameraInfo message or a .bag rosbag. The selector is only used for rosbags.
func ReadCameraInfoFile(path string, sel BagSelector) (*transform.CameraInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".bag" {
		return readCameraInfoBag(path, sel)
	}
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext {
	case ".yaml", ".yml":
		return ParseCalibrationYAML(data)
	case ".json":
		return ParseCameraInfoJSON(data)
	default:
		return nil, errors.Errorf("unsupported calibration file type %q", ext)
	}
}

func readCameraInfoBag(path string, sel BagSelector) (*transform.CameraInfo, error) {
	if sel.Topic == "" {
		return nil, errors.New("a topic is required to read camera info from a rosbag")
	}
	rb, err := ReadBag(path)
	if err != nil {
		return nil, err
	}
	infos, err := CameraInfosFromBag(rb, sel.Topic)
	if err != nil {
		return nil, err
	}
	return sel.pick(infos)
}

// pick returns the selected message out of the ones recorded on the topic.
func (sel BagSelector) pick(infos []*transform.CameraInfo) (*transform.CameraInfo, error) {
	idx := sel.Index
	if idx < 0 {
		idx += len(infos)
	}
	if idx < 0 || idx >= len(infos) {
		return nil, errors.Errorf("topic %s has %d messages, index %d is out of range", sel.Topic, len(infos), sel.Index)
	}
	return infos[idx], nil
}
