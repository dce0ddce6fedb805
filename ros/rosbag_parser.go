// Package ros reads camera calibrations in the formats produced by ROS: CameraInfo messages
// recorded in rosbags or dumped as JSON, and camera_info_manager YAML files.
package ros

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/camerageometry/rimage/transform"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()

	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}

	return rb, nil
}

// bagTopicKey is the key under which the JSON conversion stores a topic's messages.
func bagTopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// AllMessagesForTopic returns all messages for a specific topic in the ros bag. Each message has a
// "meta" object with the record time and a "data" object with the message fields.
func AllMessagesForTopic(rb *rosbag.RosBag, topic string) ([]map[string]interface{}, error) {
	key := bagTopicKey(topic)
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == topic || bagTopicKey(t) == key },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[key]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}

	all := []map[string]interface{}{}

	for {
		data, err := msgs.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		message := map[string]interface{}{}
		err = json.Unmarshal(data, &message)
		if err != nil {
			return nil, err
		}

		all = append(all, message)
	}

	return all, nil
}

// CameraInfosFromBag decodes every sensor_msgs/CameraInfo message recorded on topic.
func CameraInfosFromBag(rb *rosbag.RosBag, topic string) ([]*transform.CameraInfo, error) {
	msgs, err := AllMessagesForTopic(rb, topic)
	if err != nil {
		return nil, err
	}
	infos := make([]*transform.CameraInfo, 0, len(msgs))
	for idx, raw := range msgs {
		msg, err := DecodeCameraInfoMessage(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "message %d on %s", idx, topic)
		}
		infos = append(infos, msg.ToCameraInfo())
	}
	return infos, nil
}
