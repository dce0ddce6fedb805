package ros

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/camerageometry/rimage/transform"
)

// Stamp is a ROS time. ROS1 encodes it as secs/nsecs and ROS2 as sec/nanosec.
type Stamp struct {
	Secs    int64 `json:"secs"`
	Nsecs   int64 `json:"nsecs"`
	Sec     int64 `json:"sec"`
	Nanosec int64 `json:"nanosec"`
}

// Time returns the stamp as a time.Time. A zero stamp is the zero time.
func (s Stamp) Time() time.Time {
	secs, nsecs := s.Secs+s.Sec, s.Nsecs+s.Nanosec
	if secs == 0 && nsecs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, nsecs).UTC()
}

// Header is a std_msgs/Header.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Stamp  `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// RegionOfInterest is a sensor_msgs/RegionOfInterest.
type RegionOfInterest struct {
	XOffset   int  `json:"x_offset"`
	YOffset   int  `json:"y_offset"`
	Height    int  `json:"height"`
	Width     int  `json:"width"`
	DoRectify bool `json:"do_rectify"`
}

// CameraInfoMessage is a sensor_msgs/CameraInfo. Field names are matched case insensitively, so
// both the ROS1 (D, K, R, P) and ROS2 (d, k, r, p) spellings decode.
type CameraInfoMessage struct {
	Header          Header           `json:"header"`
	Height          int              `json:"height"`
	Width           int              `json:"width"`
	DistortionModel string           `json:"distortion_model"`
	D               []float64        `json:"d"`
	K               []float64        `json:"k"`
	R               []float64        `json:"r"`
	P               []float64        `json:"p"`
	BinningX        int              `json:"binning_x"`
	BinningY        int              `json:"binning_y"`
	ROI             RegionOfInterest `json:"roi"`
}

// ToCameraInfo converts the message into the record loaded by the camera models.
func (msg *CameraInfoMessage) ToCameraInfo() *transform.CameraInfo {
	return &transform.CameraInfo{
		FrameID:         msg.Header.FrameID,
		Stamp:           msg.Header.Stamp.Time(),
		Width:           msg.Width,
		Height:          msg.Height,
		DistortionModel: msg.DistortionModel,
		D:               append([]float64(nil), msg.D...),
		K:               append([]float64(nil), msg.K...),
		R:               append([]float64(nil), msg.R...),
		P:               append([]float64(nil), msg.P...),
		BinningX:        msg.BinningX,
		BinningY:        msg.BinningY,
		ROI: transform.RegionOfInterest{
			XOffset:   msg.ROI.XOffset,
			YOffset:   msg.ROI.YOffset,
			Width:     msg.ROI.Width,
			Height:    msg.ROI.Height,
			DoRectify: msg.ROI.DoRectify,
		},
	}
}

// DecodeCameraInfoMessage decodes a generic CameraInfo message, such as one element of
// AllMessagesForTopic. A bag message with "meta" and "data" is unwrapped first.
func DecodeCameraInfoMessage(raw map[string]interface{}) (*CameraInfoMessage, error) {
	if data, ok := raw["data"].(map[string]interface{}); ok {
		if _, hasMeta := raw["meta"]; hasMeta {
			raw = data
		}
	}
	var msg CameraInfoMessage
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &msg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode CameraInfo message")
	}
	return &msg, nil
}
