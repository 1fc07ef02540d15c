package mqtt

import "fmt"

// Topic prefixes for the external MQTT surface.
//
// The daemon republishes cloud device state on a flat scheme:
// ewelink/{category}/{deviceid}. Retained state topics let subscribers
// pick up the current view without waiting for the next push.
const (
	// TopicPrefix is the base for all daemon topics.
	TopicPrefix = "ewelink"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ewelink/system"
)

// Topics provides builders for the daemon's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("10004533ae")
//	// Returns: "ewelink/state/10004533ae"
type Topics struct{}

// DeviceState returns the topic carrying a device's parameter document.
// Published retained so new subscribers see the current state.
//
// Example: ewelink/state/10004533ae
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceAvailability returns the topic carrying a device's online flag.
// Published retained.
//
// Example: ewelink/availability/10004533ae
func (Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, deviceID)
}

// DeviceEvent returns the topic for stateless device events such as
// button presses. Never retained.
//
// Example: ewelink/event/10004533ae
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the inbound command topic for a device.
//
// Example: ewelink/command/10004533ae
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the daemon status topic, also used as the LWT target.
//
// Example: ewelink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceCommands returns a pattern matching inbound commands for any
// device.
//
// Pattern: ewelink/command/+
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/command/+", TopicPrefix)
}

// AllDeviceStates returns a pattern matching every device state topic.
//
// Pattern: ewelink/state/+
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}

// AllTopics returns a pattern matching every daemon topic.
// Use with caution - this receives ALL traffic.
//
// Pattern: ewelink/#
func (Topics) AllTopics() string {
	return "ewelink/#"
}

// CommandDeviceID extracts the device id from an inbound command topic.
// Returns "" when the topic is not a command topic.
func CommandDeviceID(topic string) string {
	prefix := TopicPrefix + "/command/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}
