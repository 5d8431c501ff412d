package main

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/opencv"
)

var snapshotImage string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Classify a single camera frame (or --image file) and print the emotion",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotImage, "image", "", "classify this image file instead of the camera")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	clf, err := opencv.OpenClassifier(cfg.Model, cfg.Detect)
	if err != nil {
		return err
	}
	defer clf.Close()

	var img image.Image
	if snapshotImage != "" {
		rgba, err := capture.LoadImage(snapshotImage)
		if err != nil {
			return err
		}
		img = rgba
	} else {
		frame, ok := grabFrame()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), emotion.Neutral)
			return nil
		}
		img = frame
	}

	res, err := clf.Classify(img)
	if err != nil {
		return err
	}
	if res.Detected() {
		log.WithField("region", res.Region).Debug("Face found")
	} else {
		log.Debug("No face found")
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.LabelOr(cfg.NoFaceLabel()))
	return nil
}

// grabFrame reads one frame and releases the camera immediately. A camera
// that opens but cannot deliver a frame counts as neutral, not an error.
func grabFrame() (*image.RGBA, bool) {
	cam, err := opencv.OpenCamera()
	if err != nil {
		log.WithError(err).Warn("Could not open camera, reporting neutral")
		return nil, false
	}
	frame, err := cam.Read()
	cam.Close()
	if err != nil {
		log.WithError(err).Warn("Could not read frame, reporting neutral")
		return nil, false
	}
	return frame.Image, true
}
