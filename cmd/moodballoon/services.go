package main

import (
	"context"
	"errors"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/junsooki/moodballoon/internal/classify"
	"github.com/junsooki/moodballoon/internal/history"
	"github.com/junsooki/moodballoon/internal/mood"
	"github.com/junsooki/moodballoon/internal/opencv"
	"github.com/junsooki/moodballoon/internal/publish"
	"github.com/junsooki/moodballoon/internal/spectate"
	"github.com/junsooki/moodballoon/internal/stream"
)

// services are the optional consumers hanging off the inference loop.
type services struct {
	slot     *mood.Slot
	hub      *spectate.Hub
	serve    func(ctx context.Context) error
	mqtt     *publish.MQTT
	store    *history.Store
	recorder *history.Recorder
}

func startServices(slot *mood.Slot, recordHistory bool) (*services, error) {
	s := &services{slot: slot}

	if cfg.Spectate.Enabled {
		hub := spectate.NewHub(slot)
		s.hub = hub
		s.serve = func(ctx context.Context) error { return hub.Serve(ctx, cfg.Spectate.Addr) }
	}
	if cfg.MQTT.Enabled {
		p := publish.NewMQTT(cfg.MQTT, slot)
		if err := p.Start(); err != nil {
			// The broker may come up later; paho keeps retrying.
			log.WithError(err).Warn("MQTT not connected yet")
		}
		s.mqtt = p
	}
	if recordHistory && cfg.History.Enabled {
		store, err := history.Open(cfg.History.File)
		if err != nil {
			s.close()
			return nil, err
		}
		s.store = store
		s.recorder = history.NewRecorder()
	}
	return s, nil
}

// observer updates the slot first so the feed and MQTT read the new mood.
func (s *services) observer() stream.Observer {
	obs := []stream.Observer{s.slot.Observe}
	if s.hub != nil {
		obs = append(obs, s.hub.Observe)
	}
	if s.mqtt != nil {
		obs = append(obs, s.mqtt.Observe)
	}
	if s.recorder != nil {
		obs = append(obs, s.recorder.Observe)
	}
	return stream.Chain(obs...)
}

// display is created on the inference goroutine; highgui needs one thread.
func (s *services) display() stream.Display {
	var ds stream.Multi
	if cfg.Preview.Enabled {
		ds = append(ds, opencv.NewWindow(cfg.Preview.Title))
	}
	if s.hub != nil {
		enc := spectate.NewJPEGEncoder(cfg.Spectate.Quality, 640)
		ds = append(ds, spectate.NewFeed(s.hub, enc, cfg.Spectate.FrameInterval))
	}
	if len(ds) == 0 {
		return stream.Headless{}
	}
	return ds
}

// goServe starts the spectator feed on g when enabled. The feed is optional:
// its failure is logged and never cancels the group.
func (s *services) goServe(ctx context.Context, g *errgroup.Group) {
	if s.serve == nil {
		return
	}
	g.Go(func() error {
		if err := s.serve(ctx); err != nil {
			log.WithError(err).Error("Spectator feed stopped, detection carries on")
		}
		return nil
	})
}

// goDetectCamera runs detection on the webcam.
func (s *services) goDetectCamera(ctx context.Context, g *errgroup.Group, clf *classify.Classifier) {
	s.goDetect(ctx, g, opencv.OpenSource, clf)
}

// goDetect runs the inference loop on its own locked OS thread. A detection
// failure is logged and ends only the loop.
func (s *services) goDetect(ctx context.Context, g *errgroup.Group, open stream.Opener, clf stream.FrameClassifier) {
	g.Go(func() error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		loop := stream.New(
			open,
			clf,
			s.display(),
			stream.WithNoFaceLabel(cfg.NoFaceLabel()),
			stream.WithQuitKey(cfg.QuitKeyCode()),
		)
		if err := loop.Run(ctx, s.observer()); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Emotion detection ended")
		}
		return nil
	})
}

// finish records the session, if history is on.
func (s *services) finish(score int) {
	if s.store == nil {
		return
	}
	if _, err := s.store.Finish(s.recorder, score); err != nil {
		log.WithError(err).Error("Could not save session")
	}
}

func (s *services) close() {
	if s.mqtt != nil {
		s.mqtt.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.WithError(err).Warn("Close history")
		}
	}
}
