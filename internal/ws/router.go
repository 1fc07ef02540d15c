package ws

import "encoding/json"

// RouterOptions configures a Router.
type RouterOptions struct {
	// Correlator consumes frames whose sequence matches a pending command.
	Correlator *Correlator

	// OnUpdate receives state pushes: a device id and its partial
	// parameter document.
	OnUpdate func(deviceID string, params map[string]any)

	// OnAvailability receives availability transitions.
	OnAvailability func(deviceID string, online bool)

	// Logger is optional.
	Logger Logger
}

// Router classifies inbound frames.
//
// A frame whose sequence matches a pending command is delivered to the
// correlator and not processed further. Otherwise the action field selects
// the handler: "update" frames carry state pushes, "sysmsg" frames carry
// availability transitions. Anything malformed or unrecognised is logged
// and dropped; a bad frame never takes the channel down.
type Router struct {
	correlator     *Correlator
	onUpdate       func(string, map[string]any)
	onAvailability func(string, bool)
	logger         Logger
}

// NewRouter creates a router.
func NewRouter(opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Router{
		correlator:     opts.Correlator,
		onUpdate:       opts.OnUpdate,
		onAvailability: opts.OnAvailability,
		logger:         logger,
	}
}

// Route processes one inbound frame.
func (r *Router) Route(frame []byte) {
	var msg map[string]any
	if err := json.Unmarshal(frame, &msg); err != nil {
		r.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	if seq := sequenceString(msg); seq != "" && r.correlator != nil {
		if r.correlator.Resolve(seq, msg) {
			return
		}
	}

	action, _ := msg["action"].(string)
	switch action {
	case ActionUpdate:
		deviceID, _ := msg["deviceid"].(string)
		params, _ := msg["params"].(map[string]any)
		if deviceID == "" || params == nil {
			r.logger.Warn("dropping update frame without device or params")
			return
		}
		if r.onUpdate != nil {
			r.onUpdate(deviceID, params)
		}

	case ActionSysMsg:
		deviceID, _ := msg["deviceid"].(string)
		params, _ := msg["params"].(map[string]any)
		if deviceID == "" || params == nil {
			r.logger.Warn("dropping sysmsg frame without device or params")
			return
		}
		online, ok := params["online"].(bool)
		if !ok {
			// Other system notices are not modelled.
			r.logger.Debug("ignoring sysmsg without availability", "deviceid", deviceID)
			return
		}
		if r.onAvailability != nil {
			r.onAvailability(deviceID, online)
		}

	default:
		r.logger.Debug("ignoring frame", "action", action)
	}
}
