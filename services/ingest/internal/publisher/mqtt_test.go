package publisher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/config"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/stats"
)

type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	messages     []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestPublishDaily(t *testing.T) {
	fc := &fakeClient{}
	p := &Publisher{client: fc, topicPrefix: "citybike"}

	m := stats.DailyMetrics{Date: "2023-05-14", TotalRides: 12, TotalRidesDelta: -3, AvgDuration: 14.5}
	require.NoError(t, p.PublishDaily(m))

	require.Len(t, fc.messages, 1)
	msg := fc.messages[0]
	assert.Equal(t, "citybike/daily/2023-05-14", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &body))
	assert.Equal(t, 12.0, body["total_rides"])
	assert.Equal(t, 14.5, body["avg_duration"])

	p.Close()
	assert.True(t, fc.disconnected)
}

func TestPublishDailyError(t *testing.T) {
	p := &Publisher{client: &fakeClient{err: errors.New("not connected")}, topicPrefix: "citybike"}

	err := p.PublishDaily(stats.DailyMetrics{Date: "2023-05-14"})
	assert.ErrorContains(t, err, "not connected")
}

func TestNewRequiresBroker(t *testing.T) {
	_, err := New(config.MQTTConfig{})
	assert.Error(t, err)
}
