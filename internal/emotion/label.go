// Package emotion defines the closed set of emotion labels and the
// classifier's tagged result.
package emotion

import (
	"errors"
	"fmt"
	"strings"
)

// Label is one of the seven emotions the model can output. The numeric
// value matches the model's output index.
type Label uint8

const (
	Angry Label = iota
	Disgust
	Fear
	Happy
	Sad
	Surprise
	Neutral
)

// Count is the number of labels, and the width of the model's output.
const Count = 7

// ErrUnknownLabel is returned by Parse for names outside the label set.
var ErrUnknownLabel = errors.New("unknown emotion label")

var names = [Count]string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"}

// Labels returns every label in model-output order.
func Labels() []Label {
	out := make([]Label, Count)
	for i := range out {
		out[i] = Label(i)
	}
	return out
}

// Valid reports whether l is a member of the label set.
func (l Label) Valid() bool {
	return int(l) < Count
}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("label(%d)", uint8(l))
	}
	return names[l]
}

// MarshalText encodes the label as its lower-case name.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLabel, uint8(l))
	}
	return []byte(names[l]), nil
}

// UnmarshalText decodes a label name.
func (l *Label) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Parse maps a case-insensitive name to its label.
func Parse(s string) (Label, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}
