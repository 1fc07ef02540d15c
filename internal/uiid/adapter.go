package uiid

import (
	"errors"

	"github.com/nerrad567/ewelink-core/internal/device"
)

// ErrUnsupported indicates the device family has no wire representation for
// the requested operation.
var ErrUnsupported = errors.New("operation not supported by device family")

// Platform identifies the kind of external surface a device exposes.
type Platform string

// Platform constants.
const (
	PlatformSwitch       Platform = "switch"
	PlatformSensor       Platform = "sensor"
	PlatformLight        Platform = "light"
	PlatformBinarySensor Platform = "binary_sensor"
	PlatformEvent        Platform = "event"
	PlatformSelect       Platform = "select"
)

// Sensor subtypes.
const (
	SensorRSSI        = "rssi"
	SensorTemperature = "temperature"
	SensorHumidity    = "humidity"
	SensorBattery     = "battery"
)

// Binary sensor subtypes.
const (
	BinarySensorDoor  = "door"
	BinarySensorHuman = "human"
)

// EventType is a symbolic stateless device event.
type EventType string

// Event types emitted by wireless buttons.
const (
	EventSinglePress EventType = "single_press"
	EventDoublePress EventType = "double_press"
	EventLongPress   EventType = "long_press"
)

// Startup behaviour options for relay devices.
const (
	StartupOn   = "on"
	StartupOff  = "off"
	StartupStay = "stay"
)

// PlatformConfig describes one surface a device family exposes.
type PlatformConfig struct {
	Platform Platform `json:"platform"`
	Type     string   `json:"type,omitempty"`
	Outlet   int      `json:"outlet,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// RGB is a 0-255 colour triple.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Adapter translates between generic intents and one family's parameter
// document shape. Read accessors return ok=false when the device does not
// carry the attribute; parameter builders return ErrUnsupported when the
// family has no wire representation for the operation.
type Adapter interface {
	// UIID returns the family identifier this adapter serves.
	UIID() int

	// Platforms describes the surfaces devices of this family expose.
	Platforms() []PlatformConfig

	// SwitchState reads the primary relay state.
	SwitchState(dev device.Device) (on bool, ok bool)

	// SwitchParams builds the parameter document that sets the primary relay.
	SwitchParams(on bool) (map[string]any, error)

	// Startup reads the power-restore behaviour for an outlet.
	Startup(dev device.Device, outlet int) (string, bool)

	// StartupParams builds the parameter document that sets the
	// power-restore behaviour for an outlet.
	StartupParams(startup string, outlet int) (map[string]any, error)

	// Brightness reads brightness on the external 1-255 scale.
	Brightness(dev device.Device) (int, bool)

	// BrightnessParams builds the parameter document for a brightness change
	// on the external 1-255 scale.
	BrightnessParams(dev device.Device, brightness int) (map[string]any, error)

	// ColorTempKelvin reads colour temperature in kelvin.
	ColorTempKelvin(dev device.Device) (int, bool)

	// ColorTempParams builds the parameter document for a colour temperature
	// change given kelvin.
	ColorTempParams(dev device.Device, kelvin int) (map[string]any, error)

	// ColorRGB reads the current colour.
	ColorRGB(dev device.Device) (RGB, bool)

	// ColorRGBParams builds the parameter document for a colour change.
	ColorRGBParams(dev device.Device, color RGB) (map[string]any, error)

	// RSSI reads the radio signal strength in dBm.
	RSSI(dev device.Device) (int, bool)

	// Temperature reads the temperature in degrees Celsius.
	Temperature(dev device.Device) (float64, bool)

	// Humidity reads the relative humidity percentage.
	Humidity(dev device.Device) (float64, bool)

	// Battery reads the battery percentage.
	Battery(dev device.Device) (int, bool)

	// DoorOpen reads a door contact sensor.
	DoorOpen(dev device.Device) (open bool, ok bool)

	// HumanPresent reads a presence sensor.
	HumanPresent(dev device.Device) (present bool, ok bool)

	// EventTypes lists the stateless events this family can emit.
	// Empty for families that emit none.
	EventTypes() []EventType

	// KeyToEvent maps a wire key code to its symbolic event.
	KeyToEvent(key int) (EventType, bool)
}
