package coordinator

import (
	"context"

	"github.com/nerrad567/ewelink-core/internal/uiid"
	"github.com/nerrad567/ewelink-core/internal/ws"
)

// Control sends a raw parameter document to a device and waits for the
// acknowledgement. On a clean acknowledgement the document is merged into
// the store optimistically, so callers observe the commanded state without
// waiting for the device to echo it back.
//
// A non-zero acknowledgement code is not a transport error; inspect the
// returned Ack. Transport failures (not connected, connection lost) come
// back as errors.
func (c *Coordinator) Control(ctx context.Context, deviceID string, params map[string]any) (ws.Ack, error) {
	dev, err := c.store.Get(deviceID)
	if err != nil {
		return ws.Ack{}, err
	}

	ack, err := c.commander.Do(ctx, deviceID, dev.APIKey(), params)
	if err != nil {
		return ws.Ack{}, err
	}

	if ack.OK() {
		if err := c.store.MergeParams(deviceID, params); err == nil {
			if c.publisher != nil {
				if updated, err := c.store.Get(deviceID); err == nil {
					c.publisher.PublishState(deviceID, updated.Params())
				}
			}
		}
	} else {
		c.logger.Warn("command rejected by device",
			"device", deviceID, "code", ack.Error, "msg", ack.Msg)
	}

	return ack, nil
}

// adapterFor resolves the family adapter for a stored device.
func (c *Coordinator) adapterFor(deviceID string) (uiid.Adapter, error) {
	dev, err := c.store.Get(deviceID)
	if err != nil {
		return nil, err
	}
	return c.registry.Resolve(dev.UIID()), nil
}

// SetSwitch turns a device's primary relay on or off.
func (c *Coordinator) SetSwitch(ctx context.Context, deviceID string, on bool) (ws.Ack, error) {
	adapter, err := c.adapterFor(deviceID)
	if err != nil {
		return ws.Ack{}, err
	}
	params, err := adapter.SwitchParams(on)
	if err != nil {
		return ws.Ack{}, err
	}
	return c.Control(ctx, deviceID, params)
}

// SetBrightness sets a light's brightness on the external 1-255 scale.
func (c *Coordinator) SetBrightness(ctx context.Context, deviceID string, brightness int) (ws.Ack, error) {
	dev, err := c.store.Get(deviceID)
	if err != nil {
		return ws.Ack{}, err
	}
	params, err := c.registry.Resolve(dev.UIID()).BrightnessParams(dev, brightness)
	if err != nil {
		return ws.Ack{}, err
	}
	return c.Control(ctx, deviceID, params)
}

// SetColorTemp sets a light's colour temperature in kelvin.
func (c *Coordinator) SetColorTemp(ctx context.Context, deviceID string, kelvin int) (ws.Ack, error) {
	dev, err := c.store.Get(deviceID)
	if err != nil {
		return ws.Ack{}, err
	}
	params, err := c.registry.Resolve(dev.UIID()).ColorTempParams(dev, kelvin)
	if err != nil {
		return ws.Ack{}, err
	}
	return c.Control(ctx, deviceID, params)
}

// SetColorRGB sets a light's colour.
func (c *Coordinator) SetColorRGB(ctx context.Context, deviceID string, color uiid.RGB) (ws.Ack, error) {
	dev, err := c.store.Get(deviceID)
	if err != nil {
		return ws.Ack{}, err
	}
	params, err := c.registry.Resolve(dev.UIID()).ColorRGBParams(dev, color)
	if err != nil {
		return ws.Ack{}, err
	}
	return c.Control(ctx, deviceID, params)
}

// SetStartup sets a relay's power-restore behaviour for one outlet.
func (c *Coordinator) SetStartup(ctx context.Context, deviceID, startup string, outlet int) (ws.Ack, error) {
	adapter, err := c.adapterFor(deviceID)
	if err != nil {
		return ws.Ack{}, err
	}
	params, err := adapter.StartupParams(startup, outlet)
	if err != nil {
		return ws.Ack{}, err
	}
	return c.Control(ctx, deviceID, params)
}
