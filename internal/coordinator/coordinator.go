package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/ewelink-core/internal/device"
	"github.com/nerrad567/ewelink-core/internal/uiid"
	"github.com/nerrad567/ewelink-core/internal/ws"
)

// defaultRefreshInterval is how often the full device list is re-fetched.
const defaultRefreshInterval = 15 * time.Minute

// Logger is the logging interface the coordinator depends on.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Commander sends a command over the realtime channel and waits for its
// acknowledgement. Implemented by ws.Client.
type Commander interface {
	Do(ctx context.Context, deviceID, deviceKey string, params map[string]any) (ws.Ack, error)
}

// Fetcher retrieves the full device list from the cloud. Implemented by
// cloud.Client.
type Fetcher interface {
	Devices(ctx context.Context) (map[string]device.Device, error)
}

// SnapshotSaver persists device trees across restarts. Implemented by
// storage.Snapshots.
type SnapshotSaver interface {
	SaveAll(ctx context.Context, devices []device.Device) error
}

// Publisher pushes state changes to an external surface such as MQTT.
type Publisher interface {
	PublishState(deviceID string, params map[string]any)
	PublishAvailability(deviceID string, online bool)
	PublishEvent(deviceID string, outlet int, event uiid.EventType)
}

// TelemetryWriter records numeric sensor readings. Implemented by
// influxdb.Client.
type TelemetryWriter interface {
	WriteSensorReading(deviceID, sensor string, value float64)
	WriteAvailability(deviceID string, online bool)
}

// EventHandler receives a stateless device event such as a button press.
type EventHandler func(event uiid.EventType)

// eventKey addresses handlers per device and outlet.
type eventKey struct {
	deviceID string
	outlet   int
}

// Options configures a Coordinator. Store, Registry, and Commander are
// required; everything else is optional.
type Options struct {
	Store     *device.Store
	Registry  *uiid.Registry
	Commander Commander

	// Fetcher enables the periodic full refresh. Nil disables it.
	Fetcher Fetcher

	// Snapshots, Publisher, and Telemetry are optional sinks.
	Snapshots SnapshotSaver
	Publisher Publisher
	Telemetry TelemetryWriter

	// RefreshInterval between full device list fetches. Defaults to 15m.
	RefreshInterval time.Duration

	Logger Logger
}

// Coordinator owns the inbound state pipeline and the outbound command
// facade.
type Coordinator struct {
	store     *device.Store
	registry  *uiid.Registry
	commander Commander
	fetcher   Fetcher
	snapshots SnapshotSaver
	publisher Publisher
	telemetry TelemetryWriter
	logger    Logger

	refreshInterval time.Duration

	handlerMu sync.RWMutex
	handlers  map[eventKey][]EventHandler

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a coordinator. It performs no I/O until Start.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	return &Coordinator{
		store:           opts.Store,
		registry:        opts.Registry,
		commander:       opts.Commander,
		fetcher:         opts.Fetcher,
		snapshots:       opts.Snapshots,
		publisher:       opts.Publisher,
		telemetry:       opts.Telemetry,
		logger:          opts.Logger,
		refreshInterval: opts.RefreshInterval,
		handlers:        make(map[eventKey][]EventHandler),
		done:            make(chan struct{}),
	}
}

// Start launches the periodic refresh loop when a fetcher is configured.
func (c *Coordinator) Start(ctx context.Context) {
	if c.fetcher == nil {
		return
	}
	c.wg.Add(1)
	go c.refreshLoop(ctx)
}

// Stop terminates the refresh loop and waits for it to exit.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

func (c *Coordinator) refreshLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("periodic device refresh failed", "error", err)
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Refresh replaces the store contents with a fresh cloud device list,
// persists snapshots, and republishes the current state of every device.
func (c *Coordinator) Refresh(ctx context.Context) error {
	devices, err := c.fetcher.Devices(ctx)
	if err != nil {
		return err
	}
	c.store.Replace(devices)
	c.logger.Info("device list refreshed", "count", len(devices))

	if c.snapshots != nil {
		if err := c.snapshots.SaveAll(ctx, c.store.List()); err != nil {
			c.logger.Warn("persisting device snapshots failed", "error", err)
		}
	}

	if c.publisher != nil {
		for id, dev := range devices {
			c.publisher.PublishState(id, dev.Params())
			c.publisher.PublishAvailability(id, dev.Online())
		}
	}
	return nil
}

// AddEventHandler registers a handler for stateless events from one device
// outlet. Multiple handlers per outlet are allowed.
func (c *Coordinator) AddEventHandler(deviceID string, outlet int, fn EventHandler) {
	key := eventKey{deviceID: deviceID, outlet: outlet}
	c.handlerMu.Lock()
	c.handlers[key] = append(c.handlers[key], fn)
	c.handlerMu.Unlock()
}

// RemoveEventHandlers drops every handler registered for one device outlet.
func (c *Coordinator) RemoveEventHandlers(deviceID string, outlet int) {
	key := eventKey{deviceID: deviceID, outlet: outlet}
	c.handlerMu.Lock()
	delete(c.handlers, key)
	c.handlerMu.Unlock()
}

// HandleUpdate processes a routed state push. Button events are dispatched
// before the merge: they are stateless, and a repeated identical key value
// would otherwise vanish into an unchanged tree.
func (c *Coordinator) HandleUpdate(deviceID string, params map[string]any) {
	dev, err := c.store.Get(deviceID)
	if err != nil {
		c.logger.Warn("state push for unknown device dropped", "device", deviceID)
		return
	}

	adapter := c.registry.Resolve(dev.UIID())

	c.dispatchEvents(deviceID, adapter, params)

	if err := c.store.MergeParams(deviceID, params); err != nil {
		c.logger.Warn("merging state push failed", "device", deviceID, "error", err)
		return
	}

	updated, err := c.store.Get(deviceID)
	if err != nil {
		return
	}
	if c.publisher != nil {
		c.publisher.PublishState(deviceID, updated.Params())
	}
	c.recordTelemetry(deviceID, adapter, updated, params)
}

// HandleAvailability processes a routed availability flip.
func (c *Coordinator) HandleAvailability(deviceID string, online bool) {
	if err := c.store.SetOnline(deviceID, online); err != nil {
		c.logger.Warn("availability for unknown device dropped", "device", deviceID)
		return
	}
	c.logger.Debug("device availability changed", "device", deviceID, "online", online)

	if c.publisher != nil {
		c.publisher.PublishAvailability(deviceID, online)
	}
	if c.telemetry != nil {
		c.telemetry.WriteAvailability(deviceID, online)
	}
}

// dispatchEvents fires button events found in an incoming parameter
// document. Runs before the merge.
func (c *Coordinator) dispatchEvents(deviceID string, adapter uiid.Adapter, params map[string]any) {
	raw, present := params["key"]
	if !present {
		return
	}
	key, ok := asInt(raw)
	if !ok {
		return
	}
	event, ok := adapter.KeyToEvent(key)
	if !ok {
		c.logger.Debug("unmapped key code ignored", "device", deviceID, "key", key)
		return
	}

	outlet := 0
	if v, ok := asInt(params["outlet"]); ok {
		outlet = v
	}

	c.handlerMu.RLock()
	handlers := append([]EventHandler(nil), c.handlers[eventKey{deviceID: deviceID, outlet: outlet}]...)
	c.handlerMu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
	if c.publisher != nil {
		c.publisher.PublishEvent(deviceID, outlet, event)
	}
	c.logger.Debug("device event dispatched",
		"device", deviceID, "outlet", outlet, "event", string(event))
}

// recordTelemetry writes sensor series for readings present in the incoming
// document. Gating on the raw keys avoids re-recording stale values.
func (c *Coordinator) recordTelemetry(deviceID string, adapter uiid.Adapter, dev device.Device, params map[string]any) {
	if c.telemetry == nil {
		return
	}

	if _, present := params["rssi"]; present {
		if v, ok := adapter.RSSI(dev); ok {
			c.telemetry.WriteSensorReading(deviceID, uiid.SensorRSSI, float64(v))
		}
	}
	if _, present := params["temperature"]; present {
		if v, ok := adapter.Temperature(dev); ok {
			c.telemetry.WriteSensorReading(deviceID, uiid.SensorTemperature, v)
		}
	}
	if _, present := params["humidity"]; present {
		if v, ok := adapter.Humidity(dev); ok {
			c.telemetry.WriteSensorReading(deviceID, uiid.SensorHumidity, v)
		}
	}
	if _, present := params["battery"]; present {
		if v, ok := adapter.Battery(dev); ok {
			c.telemetry.WriteSensorReading(deviceID, uiid.SensorBattery, float64(v))
		}
	}
}

// asInt coerces the numeric shapes a decoded JSON value can take.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
