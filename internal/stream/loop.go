// Package stream runs the camera → classifier → observer loop.
package stream

import (
	"context"
	"errors"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/emotion"
)

// Opener acquires the frame source for one session.
type Opener func() (capture.Source, error)

// FrameClassifier labels a single frame.
type FrameClassifier interface {
	Classify(img image.Image) (emotion.Result, error)
}

// Observer receives the label for every processed frame, on the loop goroutine.
type Observer func(emotion.Label)

// Chain calls each non-nil observer in order.
func Chain(observers ...Observer) Observer {
	var live []Observer
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	return func(l emotion.Label) {
		for _, o := range live {
			o(l)
		}
	}
}

// Option configures a Loop.
type Option func(*Loop)

// WithNoFaceLabel sets the label reported when a frame has no face.
func WithNoFaceLabel(l emotion.Label) Option {
	return func(lp *Loop) { lp.noFace = l }
}

// WithQuitKey sets the key code that ends the session.
func WithQuitKey(key int) Option {
	return func(lp *Loop) { lp.quitKey = key }
}

// Loop is one capture session. It is not reusable after Run returns.
type Loop struct {
	open       Opener
	classifier FrameClassifier
	display    Display
	noFace     emotion.Label
	quitKey    int
}

// New builds a loop. Defaults: no-face maps to neutral, quit key is 'q'.
func New(open Opener, classifier FrameClassifier, display Display, opts ...Option) *Loop {
	if display == nil {
		display = Headless{}
	}
	l := &Loop{
		open:       open,
		classifier: classifier,
		display:    display,
		noFace:     emotion.Neutral,
		quitKey:    'q',
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes frames until the quit key, a read or classify failure, or
// ctx is done. The source and the display are closed exactly once on return.
// A quit or cancellation returns nil.
func (l *Loop) Run(ctx context.Context, observe Observer) error {
	defer func() {
		if err := l.display.Close(); err != nil {
			log.WithError(err).Warn("Close display")
		}
	}()

	src, err := l.open()
	if err != nil {
		log.WithError(err).Error("Could not access the webcam")
		if !errors.Is(err, capture.ErrCameraUnavailable) {
			err = fmt.Errorf("%w: %v", capture.ErrCameraUnavailable, err)
		}
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.WithError(err).Warn("Close camera")
		}
	}()

	log.Info("Emotion detection started")
	frames := 0
	for {
		frame, err := src.Read()
		if err != nil {
			log.WithError(err).WithField("frames", frames).Error("Could not read frame")
			if !errors.Is(err, capture.ErrReadFailed) {
				err = fmt.Errorf("%w: %v", capture.ErrReadFailed, err)
			}
			return err
		}
		frames++

		res, err := l.classifier.Classify(frame.Image)
		if err != nil {
			return fmt.Errorf("classify frame %d: %w", frame.Index, err)
		}

		if err := l.display.Show(frame, res); err != nil {
			return fmt.Errorf("show frame %d: %w", frame.Index, err)
		}

		label := res.LabelOr(l.noFace)
		log.WithFields(log.Fields{
			"frame":   frame.Index,
			"outcome": res.Outcome,
			"label":   label,
		}).Trace("Frame classified")
		if observe != nil {
			observe(label)
		}

		if l.isQuit(l.display.WaitKey()) {
			log.WithField("frames", frames).Info("Emotion detection stopped by user")
			return nil
		}

		select {
		case <-ctx.Done():
			log.WithField("frames", frames).Info("Emotion detection stopped")
			return nil
		default:
		}
	}
}

func (l *Loop) isQuit(key int) bool {
	// highgui may report modifier bits above the low byte.
	return key >= 0 && key&0xFF == l.quitKey&0xFF
}
