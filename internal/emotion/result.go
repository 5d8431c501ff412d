package emotion

import "image"

// Outcome tags a classification result.
type Outcome int

const (
	// NoFace means the detector found nothing; Label and Region are unset.
	NoFace Outcome = iota
	// Detected means a face was found and classified.
	Detected
)

func (o Outcome) String() string {
	switch o {
	case NoFace:
		return "no-face"
	case Detected:
		return "detected"
	default:
		return "unknown"
	}
}

// Result is what the frame classifier returns for one frame.
type Result struct {
	Outcome Outcome
	Label   Label
	Region  image.Rectangle
}

// NoFaceResult is the result for a frame without a detectable face.
func NoFaceResult() Result {
	return Result{Outcome: NoFace}
}

// DetectedResult builds a result for a classified face.
func DetectedResult(l Label, region image.Rectangle) Result {
	return Result{Outcome: Detected, Label: l, Region: region}
}

// Detected reports whether a face was found.
func (r Result) Detected() bool {
	return r.Outcome == Detected
}

// LabelOr returns the detected label, or def when no face was found.
func (r Result) LabelOr(def Label) Label {
	if r.Detected() {
		return r.Label
	}
	return def
}
