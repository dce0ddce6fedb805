// Package cli contains the camgeo command line tool, which inspects ROS camera calibrations and runs
// the camera model's projections against them.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagDebug = "debug"

	calibrationFlagPath  = "calibration"
	calibrationFlagTopic = "topic"
	calibrationFlagIndex = "index"

	stereoFlagLeft       = "left"
	stereoFlagRight      = "right"
	stereoFlagLeftTopic  = "left-topic"
	stereoFlagRightTopic = "right-topic"

	rectifyFlagInput  = "input"
	rectifyFlagOutput = "output"

	exportFlagOutput = "output"
	exportFlagName   = "name"

	depthFlagInverse = "inverse"

	checkFlagSamples   = "samples"
	checkFlagTolerance = "tolerance"
)

func bagFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  calibrationFlagTopic,
			Usage: "CameraInfo `TOPIC` when reading a rosbag",
		},
		&cli.IntFlag{
			Name:  calibrationFlagIndex,
			Usage: "message index on the topic, negative counts from the end",
			Value: -1,
		},
	}
}

func monoFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     calibrationFlagPath,
			Aliases:  []string{"c"},
			Usage:    "calibration `FILE` (.yaml, .json or .bag)",
			Required: true,
		},
	}
	flags = append(flags, bagFlags()...)
	return append(flags, extra...)
}

func stereoFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     stereoFlagLeft,
			Usage:    "left camera calibration `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:     stereoFlagRight,
			Usage:    "right camera calibration `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:  stereoFlagLeftTopic,
			Usage: "left CameraInfo `TOPIC` when reading a rosbag, defaults to --topic",
		},
		&cli.StringFlag{
			Name:  stereoFlagRightTopic,
			Usage: "right CameraInfo `TOPIC` when reading a rosbag, defaults to --topic",
		},
	}
	flags = append(flags, bagFlags()...)
	return append(flags, extra...)
}

var app = &cli.App{
	Name:            "camgeo",
	Usage:           "work with calibrated pinhole and stereo cameras",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "info",
			Usage:  "print a camera calibration",
			Flags:  monoFlags(),
			Action: InfoAction,
		},
		{
			Name:  "export",
			Usage: "write a calibration as a camera_info_manager yaml file",
			Flags: monoFlags(
				&cli.StringFlag{
					Name:     exportFlagOutput,
					Aliases:  []string{"o"},
					Usage:    "output `FILE`",
					Required: true,
				},
				&cli.StringFlag{
					Name:  exportFlagName,
					Usage: "camera name, defaults to the frame id",
				},
			),
			Action: ExportAction,
		},
		{
			Name:  "rectify-image",
			Usage: "undistort and rectify an image",
			Flags: monoFlags(
				&cli.StringFlag{
					Name:     rectifyFlagInput,
					Aliases:  []string{"i"},
					Usage:    "raw image `FILE`",
					Required: true,
				},
				&cli.StringFlag{
					Name:     rectifyFlagOutput,
					Aliases:  []string{"o"},
					Usage:    "rectified image `FILE`, the format follows the extension",
					Required: true,
				},
			),
			Action: RectifyImageAction,
		},
		{
			Name:      "rectify-point",
			Usage:     "rectify a raw pixel",
			ArgsUsage: "<u> <v>",
			Flags:     monoFlags(),
			Action:    RectifyPointAction,
		},
		{
			Name:      "project",
			Usage:     "project a 3D point in the camera frame to a rectified pixel",
			ArgsUsage: "<x> <y> <z>",
			Flags:     monoFlags(),
			Action:    ProjectAction,
		},
		{
			Name:      "ray",
			Usage:     "print the unit ray through a rectified pixel",
			ArgsUsage: "<u> <v>",
			Flags:     monoFlags(),
			Action:    RayAction,
		},
		{
			Name:      "stereo-point",
			Usage:     "reconstruct a 3D point from a left rectified pixel and its disparity",
			ArgsUsage: "<u> <v> <disparity>",
			Flags:     stereoFlags(),
			Action:    StereoPointAction,
		},
		{
			Name:      "depth",
			Usage:     "convert a disparity to a depth",
			ArgsUsage: "<disparity>",
			Flags: stereoFlags(
				&cli.BoolFlag{
					Name:  depthFlagInverse,
					Usage: "convert a depth to a disparity instead",
				},
			),
			Action: DepthAction,
		},
		{
			Name:  "check",
			Usage: "check that projections and rectification of a calibration invert each other",
			Flags: monoFlags(
				&cli.IntFlag{
					Name:  checkFlagSamples,
					Usage: "sample an `N`xN pixel grid",
					Value: 16,
				},
				&cli.Float64Flag{
					Name:  checkFlagTolerance,
					Usage: "largest accepted residual in pixels",
					Value: 0.01,
				},
			),
			Action: CheckAction,
		},
		{
			Name:   "watch",
			Usage:  "print a calibration every time its file changes",
			Flags:  monoFlags(),
			Action: WatchAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
