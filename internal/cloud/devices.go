package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nerrad567/ewelink-core/internal/device"
)

// Family kinds returned by /v2/family.
const (
	familyTypeOwn    = 1
	familyTypeShared = 2
)

// Thing kinds returned by /v2/device/thing.
const (
	itemTypeOwnDevice    = 1
	itemTypeSharedDevice = 2
)

// Family is a home grouping devices under the account.
type Family struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type familyData struct {
	FamilyList []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		FamilyType int    `json:"familyType"`
	} `json:"familyList"`
}

// Families returns the account's own and shared homes.
func (c *Client) Families(ctx context.Context) ([]Family, error) {
	resp, err := c.get(ctx, "/v2/family", nil)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp.Error, resp.Msg); err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}

	var data familyData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode family list: %w", err)
	}

	families := make([]Family, 0, len(data.FamilyList))
	for _, f := range data.FamilyList {
		if f.FamilyType != familyTypeOwn && f.FamilyType != familyTypeShared {
			continue
		}
		families = append(families, Family{ID: f.ID, Name: f.Name})
	}
	return families, nil
}

type thingData struct {
	ThingList []map[string]any `json:"thingList"`
}

// Devices fetches every device in every family, keyed by device id. Each
// entry is the full thing document so nested params and capability metadata
// survive intact.
func (c *Client) Devices(ctx context.Context) (map[string]device.Device, error) {
	families, err := c.Families(ctx)
	if err != nil {
		return nil, err
	}

	devices := make(map[string]device.Device)
	for _, family := range families {
		resp, err := c.get(ctx, "/v2/device/thing", map[string]string{
			"familyid": family.ID,
			"num":      "0",
			// Negative index pulls the whole list in one page.
			"beginIndex": "-999999",
		})
		if err != nil {
			return nil, err
		}
		if err := checkResponse(resp.Error, resp.Msg); err != nil {
			return nil, fmt.Errorf("list devices for family %s: %w", family.ID, err)
		}

		var data thingData
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("decode thing list: %w", err)
		}

		for _, thing := range data.ThingList {
			if !isDeviceThing(thing["itemType"]) {
				continue
			}
			dev := device.Device(thing)
			id := dev.ID()
			if id == "" {
				c.logger.Warn("thing without a device id skipped", "family", family.ID)
				continue
			}
			devices[id] = dev
		}
		c.logger.Debug("fetched family devices",
			"family", family.Name, "total", strconv.Itoa(len(devices)))
	}
	return devices, nil
}

// isDeviceThing reports whether a thing list entry is a device rather than a
// group or scene.
func isDeviceThing(itemType any) bool {
	t, ok := itemType.(float64)
	if !ok {
		return false
	}
	return int(t) == itemTypeOwnDevice || int(t) == itemTypeSharedDevice
}
