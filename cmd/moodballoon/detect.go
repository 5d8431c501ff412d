package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
	"github.com/junsooki/moodballoon/internal/opencv"
	"github.com/junsooki/moodballoon/internal/stream"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run real-time emotion detection without the game",
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	clf, err := opencv.OpenClassifier(cfg.Model, cfg.Detect)
	if err != nil {
		return err
	}
	defer clf.Close()

	slot := mood.NewSlot(emotion.Neutral, mood.DefaultReaction)
	svc, err := startServices(slot, false)
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	svc.goServe(gctx, g)

	fmt.Fprintf(out, "Real-time emotion detection started. Press '%s' to quit.\n", cfg.Preview.QuitKey)

	last := emotion.Label(emotion.Count)
	printChanges := func(l emotion.Label) {
		if l != last {
			fmt.Fprintf(out, "Emotion: %s\n", l)
			last = l
		}
	}

	runtime.LockOSThread()
	loop := stream.New(
		opencv.OpenSource,
		clf,
		svc.display(),
		stream.WithNoFaceLabel(cfg.NoFaceLabel()),
		stream.WithQuitKey(cfg.QuitKeyCode()),
	)
	runErr := loop.Run(ctx, stream.Chain(svc.observer(), printChanges))
	runtime.UnlockOSThread()

	cancel()
	waitErr := g.Wait()
	if errors.Is(waitErr, context.Canceled) {
		waitErr = nil
	}
	return errors.Join(runErr, waitErr)
}
