package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/junsooki/moodballoon/internal/config"
	"github.com/junsooki/moodballoon/internal/logger"
)

// Version is the application version.
const Version = "0.1.0"

var (
	cfgFile   string
	noPreview bool
	v         = viper.New()
	cfg       *config.Config
	closeLog  = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:           "moodballoon",
	Short:         "Steer a balloon with your face: webcam emotion detection drives an arcade game",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noPreview {
			v.Set("preview.enabled", false)
		}
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		closeFn, err := logger.Init(c.Log)
		if err != nil {
			return err
		}
		cfg, closeLog = c, closeFn
		if used := v.ConfigFileUsed(); used != "" {
			log.WithField("file", used).Debug("Loaded config file")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = closeLog()
	},
	RunE: runPlay,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./moodballoon.yaml or $HOME/.config/moodballoon/moodballoon.yaml)")
	pf.BoolVar(&noPreview, "no-preview", false, "do not open the camera preview window")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("model", "model/emotion_model.onnx", "path to the trained emotion model (ONNX)")
	pf.String("cascade", "data/haarcascade_frontalface_default.xml", "path to the Haar face cascade")
	pf.Bool("spectate", false, "serve the spectator feed")
	pf.Bool("mqtt", false, "publish mood changes to MQTT")
	pf.Bool("history", false, "record finished sessions")

	bind(pf, "log.level", "log-level")
	bind(pf, "model.path", "model")
	bind(pf, "model.cascade_path", "cascade")
	bind(pf, "spectate.enabled", "spectate")
	bind(pf, "mqtt.enabled", "mqtt")
	bind(pf, "history.enabled", "history")
}

// bind maps a flag onto a config key; an unset flag leaves file and env
// values in effect.
func bind(fs *pflag.FlagSet, key, flag string) {
	if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(err)
	}
}
