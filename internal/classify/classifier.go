// Package classify turns a camera frame into an emotion result: find the
// largest face, normalise it to the model's 48x48 input, take the argmax.
package classify

import (
	"errors"
	"fmt"
	"image"

	"github.com/junsooki/moodballoon/internal/emotion"
)

// InputSize is the side length of the square grayscale model input.
const InputSize = 48

var (
	// ErrModelNotFound is returned when the trained model artifact is missing.
	ErrModelNotFound = errors.New("model file not found")

	// ErrCascadeNotFound is returned when the face cascade file is missing.
	ErrCascadeNotFound = errors.New("cascade file not found")

	// ErrBadOutput is returned when the model output is not one score per label.
	ErrBadOutput = errors.New("unexpected model output")
)

// FaceDetector finds face rectangles in a grayscale image.
type FaceDetector interface {
	Detect(gray *image.Gray) ([]image.Rectangle, error)
	Close() error
}

// Model scores a normalised InputSize x InputSize face, one value per label
// in emotion model-output order.
type Model interface {
	Predict(input []float32) ([]float32, error)
	Close() error
}

// Classifier owns a detector and a model for the lifetime of the process.
type Classifier struct {
	detector FaceDetector
	model    Model
}

// New wraps an already-initialised detector and model.
func New(detector FaceDetector, model Model) *Classifier {
	return &Classifier{detector: detector, model: model}
}

// Classify returns the emotion of the largest face in img, or a NoFace
// result. No confidence threshold is applied.
func (c *Classifier) Classify(img image.Image) (emotion.Result, error) {
	gray := Grayscale(img)

	faces, err := c.detector.Detect(gray)
	if err != nil {
		return emotion.Result{}, fmt.Errorf("detect faces: %w", err)
	}

	region, ok := Largest(faces)
	if !ok || region.Intersect(gray.Bounds()).Empty() {
		return emotion.NoFaceResult(), nil
	}

	scores, err := c.model.Predict(Preprocess(gray, region))
	if err != nil {
		return emotion.Result{}, fmt.Errorf("predict: %w", err)
	}
	label, err := Argmax(scores)
	if err != nil {
		return emotion.Result{}, err
	}
	return emotion.DetectedResult(label, region), nil
}

// Close releases the detector and the model.
func (c *Classifier) Close() error {
	return errors.Join(c.detector.Close(), c.model.Close())
}

// Largest picks the face with the greatest width x height. On equal areas the
// first in detection order is kept; detector order itself is not guaranteed.
func Largest(faces []image.Rectangle) (image.Rectangle, bool) {
	var best image.Rectangle
	bestArea := 0
	for _, f := range faces {
		if a := f.Dx() * f.Dy(); a > bestArea {
			best, bestArea = f, a
		}
	}
	return best, bestArea > 0
}

// Argmax maps model scores to the highest-scoring label.
func Argmax(scores []float32) (emotion.Label, error) {
	if len(scores) != emotion.Count {
		return 0, fmt.Errorf("%w: got %d scores, want %d", ErrBadOutput, len(scores), emotion.Count)
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return emotion.Label(best), nil
}
