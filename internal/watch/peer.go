package watch

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"

	"github.com/junsooki/moodballoon/internal/spectate"
)

// Peer is the offering side of the preview connection. It opens the frames
// channel and hands every received JPEG to onFrame.
type Peer struct {
	pc  *webrtc.PeerConnection
	sig *Client

	// Candidates gathered before the offer is out are held back so the feed
	// never sees one ahead of the offer.
	mu      sync.Mutex
	offered bool
	pending []json.RawMessage
}

// NewPeer creates the peer connection and its frames channel.
func NewPeer(sig *Client, ice []webrtc.ICEServer, onFrame func(data []byte)) (*Peer, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: ice})
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debugf("Peer connection state: %s", state)
	})

	// Preview frames are disposable: unordered, no retransmits.
	ordered := false
	maxRetransmits := uint16(0)
	dc, err := pc.CreateDataChannel(spectate.FramesChannel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}
	dc.OnOpen(func() {
		log.Info("Frames channel open")
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		onFrame(msg.Data)
	})

	p := &Peer{pc: pc, sig: sig}
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			log.WithError(err).Warn("Marshal ICE candidate")
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.offered {
			p.pending = append(p.pending, data)
			return
		}
		_ = sig.SendICECandidate(data)
	})

	return p, nil
}

// Connect creates and sends the offer.
func (p *Peer) Connect() error {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return err
	}
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.sig.SendOffer(offerJSON); err != nil {
		return err
	}
	p.offered = true
	for _, c := range p.pending {
		_ = p.sig.SendICECandidate(c)
	}
	p.pending = nil
	return nil
}

// HandleAnswer applies the feed's answer.
func (p *Peer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	return p.pc.SetRemoteDescription(answer)
}

// Close shuts down the peer connection.
func (p *Peer) Close() {
	if p.pc != nil {
		p.pc.Close()
	}
}
