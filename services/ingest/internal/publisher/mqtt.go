// Package publisher announces finished daily aggregates over MQTT.
package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/config"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/stats"
)

const publishTimeout = 10 * time.Second

// client is the subset of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends daily metrics to an MQTT broker.
type Publisher struct {
	client      client
	topicPrefix string
}

// New connects to the configured broker.
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("MQTT broker address is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("bikestats-ingest")
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: c, topicPrefix: cfg.TopicPrefix}, nil
}

// Topic returns the topic a day's summary is published on.
func (p *Publisher) Topic(date string) string {
	return fmt.Sprintf("%s/daily/%s", p.topicPrefix, date)
}

// PublishDaily sends m as retained JSON so late subscribers get the latest day.
func (p *Publisher) PublishDaily(m stats.DailyMetrics) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.Topic(m.Date), 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing %s: timed out", m.Date)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", m.Date, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}
