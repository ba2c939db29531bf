package console

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloupeer.io/supercar/internal/pkg/metrics"
	"cloupeer.io/supercar/internal/supercar/status"
	"cloupeer.io/supercar/pkg/log"
	"cloupeer.io/supercar/pkg/mqtt"
	"cloupeer.io/supercar/pkg/mqtt/topic"
	"cloupeer.io/supercar/pkg/options"
)

const publishTimeout = 5 * time.Second

// StatusMessage is the payload relayed for every polled status.
type StatusMessage struct {
	DeviceID  string        `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Display   string        `json:"display" yaml:"display"`
	Status    status.Status `json:"status" yaml:"status"`
}

func newStatusMessage(deviceID string, s status.Status, at time.Time) StatusMessage {
	return StatusMessage{
		DeviceID:  deviceID,
		Timestamp: at.UTC(),
		Display:   s.Display(),
		Status:    s,
	}
}

// Relay publishes status snapshots to the MQTT broker. Only the latest
// snapshot is kept while a publish is in flight.
type Relay struct {
	client   mqtt.Client
	topic    string
	deviceID string
	qos      int
	retain   bool

	updates chan StatusMessage
}

// NewRelay creates a relay publishing on {root}/supercar/{deviceID}/status.
func NewRelay(client mqtt.Client, opts *options.MqttOptions, deviceID string) *Relay {
	return &Relay{
		client:   client,
		topic:    topic.NewBuilder(opts.TopicRoot).Status(deviceID),
		deviceID: deviceID,
		qos:      opts.QoS,
		retain:   opts.Retain,
		updates:  make(chan StatusMessage, 1),
	}
}

// Topic returns the topic the relay publishes on.
func (r *Relay) Topic() string {
	return r.topic
}

// Observe queues s for publishing. It never blocks the poller.
func (r *Relay) Observe(s status.Status) {
	msg := newStatusMessage(r.deviceID, s, time.Now())
	for {
		select {
		case r.updates <- msg:
			return
		default:
		}
		// Drop the stale snapshot and retry.
		select {
		case <-r.updates:
		default:
		}
	}
}

// Start connects to the broker and publishes queued snapshots until ctx is done.
// Nothing is published before the first connection is up; the latest snapshot
// stays queued meanwhile.
func (r *Relay) Start(ctx context.Context) error {
	if err := r.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		r.client.Disconnect(disconnectCtx)
	}()

	if err := r.client.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	log.Info("Relaying status snapshots", "topic", r.topic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.updates:
			r.publish(ctx, msg)
		}
	}
}

func (r *Relay) publish(ctx context.Context, msg StatusMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error(err, "Failed to encode status snapshot")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := r.client.Publish(pubCtx, r.topic, r.qos, r.retain, payload); err != nil {
		metrics.RelayPublishedTotal.WithLabelValues("failed").Inc()
		log.Warn("Failed to publish status snapshot", "topic", r.topic, "error", err)
		return
	}
	metrics.RelayPublishedTotal.WithLabelValues("success").Inc()
	log.Debug("Published status snapshot", "topic", r.topic, "power", msg.Status.Power)
}
