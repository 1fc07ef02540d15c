package coordinator

import (
	"encoding/json"
	"strconv"

	"github.com/nerrad567/ewelink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/ewelink-core/internal/uiid"
)

// MQTTPublisher republishes device state on the external MQTT surface.
// State and availability topics are retained so new subscribers see the
// current view; event topics are fire-and-forget.
type MQTTPublisher struct {
	client *mqtt.Client
	logger Logger
}

// NewMQTTPublisher wraps a connected MQTT client.
func NewMQTTPublisher(client *mqtt.Client, logger Logger) *MQTTPublisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTPublisher{client: client, logger: logger}
}

// PublishState publishes a device's full parameter document, retained.
func (p *MQTTPublisher) PublishState(deviceID string, params map[string]any) {
	payload, err := json.Marshal(params)
	if err != nil {
		p.logger.Warn("encoding state payload failed", "device", deviceID, "error", err)
		return
	}
	topic := mqtt.Topics{}.DeviceState(deviceID)
	if err := p.client.PublishRetained(topic, payload); err != nil {
		p.logger.Warn("publishing state failed", "device", deviceID, "error", err)
	}
}

// PublishAvailability publishes "online" or "offline", retained.
func (p *MQTTPublisher) PublishAvailability(deviceID string, online bool) {
	payload := "offline"
	if online {
		payload = "online"
	}
	topic := mqtt.Topics{}.DeviceAvailability(deviceID)
	if err := p.client.PublishRetained(topic, []byte(payload)); err != nil {
		p.logger.Warn("publishing availability failed", "device", deviceID, "error", err)
	}
}

// PublishEvent publishes a stateless device event, never retained.
func (p *MQTTPublisher) PublishEvent(deviceID string, outlet int, event uiid.EventType) {
	payload, err := json.Marshal(map[string]any{
		"outlet": outlet,
		"event":  string(event),
	})
	if err != nil {
		p.logger.Warn("encoding event payload failed", "device", deviceID, "error", err)
		return
	}
	topic := mqtt.Topics{}.DeviceEvent(deviceID)
	if err := p.client.Publish(topic, payload, 1, false); err != nil {
		p.logger.Warn("publishing event failed",
			"device", deviceID, "outlet", strconv.Itoa(outlet), "error", err)
	}
}
