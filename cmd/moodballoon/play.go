package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/game"
	"github.com/junsooki/moodballoon/internal/mood"
	"github.com/junsooki/moodballoon/internal/opencv"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run emotion detection and the balloon game (default)",
	RunE:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

var legend = []struct {
	label emotion.Label
	text  string
}{
	{emotion.Happy, "Yellow balloon, fast movement"},
	{emotion.Sad, "Blue balloon, slow movement"},
	{emotion.Angry, "Red balloon, very fast"},
	{emotion.Surprise, "Orange balloon, super fast"},
	{emotion.Fear, "Purple balloon, medium speed"},
	{emotion.Disgust, "Green balloon, slow"},
	{emotion.Neutral, "Pink balloon, normal speed"},
}

func printBanner(w io.Writer, quitKey string) {
	fmt.Fprintln(w, "Starting Emotion Balloon Game...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "How to play:")
	fmt.Fprintln(w, "- Use ARROW KEYS to move the balloon")
	fmt.Fprintln(w, "- Collect yellow stars to score points")
	fmt.Fprintln(w, "- Your emotions change the balloon's color and speed!")
	fmt.Fprintln(w, "- Press ESC to quit the game")
	fmt.Fprintf(w, "- Press '%s' to quit emotion detection\n", quitKey)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Emotions affect the balloon:")
	for _, l := range legend {
		fmt.Fprintf(w, "- %s: %s\n", strings.ToUpper(l.label.String()), l.text)
	}
	fmt.Fprintln(w)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	printBanner(out, cfg.Preview.QuitKey)

	clf, err := opencv.OpenClassifier(cfg.Model, cfg.Detect)
	if err != nil {
		return err
	}
	defer clf.Close()

	slot := mood.NewSlot(emotion.Neutral, mood.DefaultReaction)
	svc, err := startServices(slot, true)
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	log.Info("Starting emotion detection")
	svc.goServe(gctx, g)
	svc.goDetectCamera(ctx, g, clf)

	select {
	case <-time.After(cfg.Game.StartDelay):
	case <-ctx.Done():
	}

	log.Info("Starting balloon game")
	world := game.NewWorld(game.DefaultRules(cfg.Game.Width, cfg.Game.Height), uint64(time.Now().UnixNano()))
	balloon := game.New(world, slot, "Emotion Balloon Game", cfg.Game.TPS)
	go func() {
		<-ctx.Done()
		balloon.Stop()
	}()

	gameErr := balloon.Run()
	cancel()
	waitErr := g.Wait()

	svc.finish(balloon.Score())
	fmt.Fprintf(out, "Game stopped. Final score: %d. Thanks for playing!\n", balloon.Score())

	if errors.Is(waitErr, context.Canceled) {
		waitErr = nil
	}
	return errors.Join(gameErr, waitErr)
}
