package uiid

// startupSelect is the power-restore behaviour selector relay families expose.
func startupSelect() PlatformConfig {
	return PlatformConfig{
		Platform: PlatformSelect,
		Type:     "startup",
		Options:  []string{StartupOn, StartupOff, StartupStay},
	}
}

// buttonEvents maps wire key codes to symbolic events for wireless buttons.
func buttonEvents() map[int]EventType {
	return map[int]EventType{
		0: EventSinglePress,
		1: EventDoublePress,
		2: EventLongPress,
	}
}

// newFamilyAdapter builds the adapter for a known family identifier.
// Returns nil for unknown families.
func newFamilyAdapter(uiid int) Adapter {
	switch uiid {
	case 1:
		// Basic single relay.
		return &generic{
			uiid:  uiid,
			relay: relaySingle,
			platforms: []PlatformConfig{
				{Platform: PlatformSwitch},
				{Platform: PlatformSensor, Type: SensorRSSI},
				startupSelect(),
			},
		}

	case 104:
		// Dimmable white/colour bulb.
		return &light{generic: generic{
			uiid: uiid,
			platforms: []PlatformConfig{
				{Platform: PlatformLight},
			},
		}}

	case 174:
		// Wireless button: stateless push events on up to six channels.
		platforms := make([]PlatformConfig, 0, 6)
		for outlet := 0; outlet < 6; outlet++ {
			platforms = append(platforms, PlatformConfig{
				Platform: PlatformEvent,
				Type:     "button",
				Outlet:   outlet,
			})
		}
		return &generic{
			uiid:      uiid,
			platforms: platforms,
			events:    buttonEvents(),
		}

	case 191:
		// Four-outlet power strip driven as a single switch.
		return &generic{
			uiid:  uiid,
			relay: relayMultiOutlet,
			platforms: []PlatformConfig{
				{Platform: PlatformSwitch},
				{Platform: PlatformSensor, Type: SensorRSSI},
				startupSelect(),
			},
		}

	case 7003:
		// Door contact sensor.
		return &generic{
			uiid: uiid,
			platforms: []PlatformConfig{
				{Platform: PlatformBinarySensor, Type: BinarySensorDoor},
				{Platform: PlatformSensor, Type: SensorRSSI},
				{Platform: PlatformSensor, Type: SensorBattery},
			},
		}

	case 7014:
		// Temperature and humidity sensor with display.
		return &generic{
			uiid: uiid,
			platforms: []PlatformConfig{
				{Platform: PlatformSensor, Type: SensorTemperature},
				{Platform: PlatformSensor, Type: SensorHumidity},
				{Platform: PlatformSensor, Type: SensorRSSI},
				{Platform: PlatformSensor, Type: SensorBattery},
			},
		}

	case 7016:
		// Human presence sensor.
		return &generic{
			uiid: uiid,
			platforms: []PlatformConfig{
				{Platform: PlatformBinarySensor, Type: BinarySensorHuman},
				{Platform: PlatformSensor, Type: SensorRSSI},
			},
		}

	default:
		return nil
	}
}
