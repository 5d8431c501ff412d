package spectate

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"
)

// DefaultICEServers is the ICE configuration used when none is given.
var DefaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

var errNoChannel = errors.New("frames channel not open")

// session is the answering side of one viewer's WebRTC connection. The
// viewer creates the frames channel in its offer; preview JPEGs go out on it.
// Answers carry every local candidate, so nothing is trickled back.
type session struct {
	viewer string
	pc     *webrtc.PeerConnection

	mu     sync.Mutex
	frames *webrtc.DataChannel
}

func newSession(viewer string, ice []webrtc.ICEServer) (*session, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: ice})
	if err != nil {
		return nil, err
	}
	s := &session{viewer: viewer, pc: pc}
	logger := log.WithField("viewer", viewer)

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Debugf("Peer connection state: %s", state)
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != FramesChannel {
			logger.Warnf("Ignoring data channel %q", dc.Label())
			return
		}
		dc.OnOpen(func() {
			logger.Info("Frames channel open")
		})
		s.mu.Lock()
		s.frames = dc
		s.mu.Unlock()
	})

	return s, nil
}

// answer applies a viewer's offer and returns the marshalled answer.
func (s *session) answer(payload json.RawMessage) (json.RawMessage, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return nil, err
	}
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	gathered := webrtc.GatheringCompletePromise(s.pc)
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	<-gathered
	return json.Marshal(s.pc.LocalDescription())
}

func (s *session) addCandidate(payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	return s.pc.AddICECandidate(candidate)
}

// open reports whether frames can be sent.
func (s *session) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames != nil && s.frames.ReadyState() == webrtc.DataChannelStateOpen
}

func (s *session) sendFrame(data []byte) error {
	s.mu.Lock()
	dc := s.frames
	s.mu.Unlock()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return errNoChannel
	}
	return dc.Send(data)
}

func (s *session) close() {
	if err := s.pc.Close(); err != nil {
		log.WithField("viewer", s.viewer).WithError(err).Debug("Close peer connection")
	}
}
