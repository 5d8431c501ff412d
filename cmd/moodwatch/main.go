// Command moodwatch shows a running moodballoon's camera feed and mood from
// another machine.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/config"
	"github.com/junsooki/moodballoon/internal/logger"
	"github.com/junsooki/moodballoon/internal/spectate"
	"github.com/junsooki/moodballoon/internal/watch"
)

var (
	feedURL  string
	logLevel string
	noSTUN   bool
)

var rootCmd = &cobra.Command{
	Use:           "moodwatch",
	Short:         "Watch a moodballoon spectator feed",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := logger.Init(config.LogConfig{Level: logLevel})
		if err != nil {
			return err
		}
		defer closeLog()
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&feedURL, "url", "ws://127.0.0.1:8090/ws", "spectator feed websocket URL")
	f.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	f.BoolVar(&noSTUN, "no-stun", false, "use host candidates only (same network)")
}

func run() error {
	ice := spectate.DefaultICEServers
	if noSTUN {
		ice = nil
	}

	viewer := watch.NewViewer("Mood Balloon Spectator")
	onFrame := func(data []byte) {
		img, err := capture.Decode(data)
		if err != nil {
			log.WithError(err).Debug("Drop undecodable frame")
			return
		}
		viewer.SetFrame(img)
	}

	// Handlers run on the client's read goroutine, one at a time.
	var (
		mu   sync.Mutex
		peer *watch.Peer
	)
	var sig *watch.Client
	sig = watch.NewClient(feedURL, watch.Handler{
		OnWelcome: func(id string) {
			log.WithField("id", id).Info("Connected to feed")
			viewer.SetConnected(true)

			p, err := watch.NewPeer(sig, ice, onFrame)
			if err != nil {
				log.WithError(err).Error("Create peer")
				return
			}
			mu.Lock()
			peer = p
			mu.Unlock()
			if err := p.Connect(); err != nil {
				log.WithError(err).Error("Send offer")
			}
		},
		OnMood: viewer.SetMood,
		OnAnswer: func(payload json.RawMessage) {
			if peer == nil {
				return
			}
			if err := peer.HandleAnswer(payload); err != nil {
				log.WithError(err).Warn("Apply answer")
			}
		},
		OnError: func(msg string) {
			log.WithField("msg", msg).Warn("Feed error")
		},
	})

	if err := sig.Connect(); err != nil {
		return err
	}
	defer sig.Close()

	go func() {
		<-sig.Done()
		log.Warn("Feed connection closed")
		viewer.SetConnected(false)
	}()

	// Ebitengine wants the main goroutine.
	runErr := viewer.Run()
	mu.Lock()
	defer mu.Unlock()
	if peer != nil {
		peer.Close()
	}
	return runErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
