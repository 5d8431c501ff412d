package opencv

import (
	"fmt"

	"github.com/junsooki/moodballoon/internal/classify"
	"github.com/junsooki/moodballoon/internal/config"
)

// OpenClassifier loads the cascade and model named in the configuration.
// Both artifacts are held for the life of the returned Classifier.
func OpenClassifier(model config.ModelConfig, detect config.DetectConfig) (*classify.Classifier, error) {
	cascade, err := NewCascade(model.CascadePath, detect.ScaleFactor, detect.MinNeighbors)
	if err != nil {
		return nil, err
	}
	net, err := NewNet(model.Path, model.InputLayout)
	if err != nil {
		cascade.Close()
		return nil, fmt.Errorf("open model: %w", err)
	}
	return classify.New(cascade, net), nil
}
