// Package publish pushes mood changes to an MQTT broker for home automation.
package publish

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/junsooki/moodballoon/internal/config"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
)

// NewClientFunc builds the underlying paho client. Replaced in tests.
var NewClientFunc = mqtt.NewClient

// MoodReader is the read side of the shared mood slot.
type MoodReader interface {
	Read() mood.Mood
}

// Event is the JSON document published on every mood change.
type Event struct {
	Label     emotion.Label `json:"label"`
	Color     string        `json:"color"`
	Speed     float64       `json:"speed"`
	Timestamp time.Time     `json:"timestamp"`
}

// MQTT publishes the mood as a retained JSON document on Topic and the bare
// label on Topic+"/state". Only label changes are published.
type MQTT struct {
	cfg    config.MQTTConfig
	client mqtt.Client
	moods  MoodReader

	mu   sync.Mutex
	last *emotion.Label
}

// NewMQTT configures the client; call Start to connect.
func NewMQTT(cfg config.MQTTConfig, moods MoodReader) *MQTT {
	p := &MQTT{cfg: cfg, moods: moods}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.brokerURL())
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Error("MQTT connection lost, reconnecting")
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.WithField("broker", p.brokerURL()).Info("Connected to MQTT broker")
	})
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetConnectTimeout(10 * time.Second)

	p.client = NewClientFunc(opts)
	return p
}

func (p *MQTT) brokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", p.cfg.Broker, p.cfg.Port)
}

// Start connects to the broker.
func (p *MQTT) Start() error {
	log.WithField("broker", p.brokerURL()).Info("Connecting to MQTT broker")
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.brokerURL(), token.Error())
	}
	return nil
}

// Stop disconnects, allowing 250ms for in-flight messages.
func (p *MQTT) Stop() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Info("MQTT client disconnected")
	}
}

// Observe publishes the slot's current mood if its label changed. It never
// blocks on the broker.
func (p *MQTT) Observe(emotion.Label) {
	m := p.moods.Read()

	p.mu.Lock()
	if p.last != nil && *p.last == m.Label {
		p.mu.Unlock()
		return
	}
	l := m.Label
	p.last = &l
	p.mu.Unlock()

	c := m.Style.Color
	payload, err := json.Marshal(Event{
		Label:     m.Label,
		Color:     fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
		Speed:     m.Style.Speed,
		Timestamp: m.Updated,
	})
	if err != nil {
		log.WithError(err).Warn("Marshal mood event")
		return
	}

	p.publish(p.cfg.Topic, payload)
	p.publish(p.cfg.Topic+"/state", []byte(m.Label.String()))
}

func (p *MQTT) publish(topic string, payload []byte) {
	token := p.client.Publish(topic, 0, true, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			log.WithField("topic", topic).WithError(err).Warn("MQTT publish failed")
		}
	}()
}
