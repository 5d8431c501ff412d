package main

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/config"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
)

type endlessSource struct {
	reads atomic.Int64
}

func (s *endlessSource) Read() (capture.Frame, error) {
	n := s.reads.Add(1)
	return capture.Frame{Image: image.NewRGBA(image.Rect(0, 0, 8, 8)), Index: int(n)}, nil
}

func (s *endlessSource) Close() error { return nil }

type happyClassifier struct{}

func (happyClassifier) Classify(image.Image) (emotion.Result, error) {
	return emotion.DetectedResult(emotion.Happy, image.Rect(100, 100, 150, 150)), nil
}

func TestFeedFailureKeepsDetecting(t *testing.T) {
	prev := cfg
	cfg = &config.Config{}
	t.Cleanup(func() { cfg = prev })

	slot := mood.NewSlot(emotion.Neutral, mood.DefaultReaction)
	failed := make(chan struct{})
	svc := &services{
		slot: slot,
		serve: func(context.Context) error {
			close(failed)
			return errors.New("listen tcp :8090: bind: address already in use")
		},
	}
	src := &endlessSource{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	svc.goServe(gctx, g)
	svc.goDetect(ctx, g, func() (capture.Source, error) { return src, nil }, happyClassifier{})

	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("feed never started")
	}

	before := src.reads.Load()
	require.Eventually(t, func() bool { return src.reads.Load() > before+10 }, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, gctx.Err())
	assert.Equal(t, emotion.Happy, slot.Read().Label)

	cancel()
	require.NoError(t, g.Wait())
}
