package publish

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/moodballoon/internal/config"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client
	connectErr error
	opts       *mqtt.ClientOptions

	mu   sync.Mutex
	msgs []published
}

func (c *fakeClient) Connect() mqtt.Token { return doneToken{err: c.connectErr} }
func (c *fakeClient) IsConnected() bool   { return false }

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) published() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.msgs...)
}

func withFakeClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	orig := NewClientFunc
	NewClientFunc = func(o *mqtt.ClientOptions) mqtt.Client {
		fc.opts = o
		return fc
	}
	t.Cleanup(func() { NewClientFunc = orig })
}

var testCfg = config.MQTTConfig{
	Enabled:  true,
	Broker:   "broker.local",
	Port:     1883,
	ClientID: "moodballoon-test",
	Username: "user",
	Topic:    "home/mood",
}

func TestMQTT_Options(t *testing.T) {
	fc := &fakeClient{}
	withFakeClient(t, fc)

	NewMQTT(testCfg, mood.NewSlot(emotion.Neutral, nil))

	require.NotNil(t, fc.opts)
	require.Len(t, fc.opts.Servers, 1)
	assert.Equal(t, "tcp://broker.local:1883", fc.opts.Servers[0].String())
	assert.Equal(t, "moodballoon-test", fc.opts.ClientID)
	assert.Equal(t, "user", fc.opts.Username)
	assert.True(t, fc.opts.AutoReconnect)
}

func TestMQTT_StartError(t *testing.T) {
	fc := &fakeClient{connectErr: errors.New("refused")}
	withFakeClient(t, fc)

	err := NewMQTT(testCfg, mood.NewSlot(emotion.Neutral, nil)).Start()
	assert.ErrorContains(t, err, "refused")
}

func TestMQTT_PublishesOnLabelChange(t *testing.T) {
	fc := &fakeClient{}
	withFakeClient(t, fc)
	slot := mood.NewSlot(emotion.Neutral, nil)
	p := NewMQTT(testCfg, slot)

	for _, l := range []emotion.Label{emotion.Happy, emotion.Happy, emotion.Happy, emotion.Sad, emotion.Sad} {
		slot.Observe(l)
		p.Observe(l)
	}

	msgs := fc.published()
	require.Len(t, msgs, 4)

	assert.Equal(t, "home/mood", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	var ev Event
	require.NoError(t, json.Unmarshal(msgs[0].payload, &ev))
	assert.Equal(t, emotion.Happy, ev.Label)
	assert.Equal(t, "#ffff00", ev.Color)
	assert.Equal(t, 4.0, ev.Speed)

	assert.Equal(t, "home/mood/state", msgs[1].topic)
	assert.Equal(t, "happy", string(msgs[1].payload))
	assert.Equal(t, "sad", string(msgs[3].payload))

	p.Stop()
}
