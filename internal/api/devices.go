package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/ewelink-core/internal/device"
	"github.com/nerrad567/ewelink-core/internal/uiid"
	"github.com/nerrad567/ewelink-core/internal/ws"
)

// deviceSummary is the list-view representation of a device.
type deviceSummary struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Model     string                `json:"model,omitempty"`
	Brand     string                `json:"brand,omitempty"`
	UIID      int                   `json:"uiid"`
	Online    bool                  `json:"online"`
	Platforms []uiid.PlatformConfig `json:"platforms"`
}

// deviceDetail extends the summary with the full parameter document.
type deviceDetail struct {
	deviceSummary
	Params map[string]any `json:"params"`
}

func (s *Server) summarize(dev device.Device) deviceSummary {
	return deviceSummary{
		ID:        dev.ID(),
		Name:      dev.Name(),
		Model:     dev.Model(),
		Brand:     dev.Brand(),
		UIID:      dev.UIID(),
		Online:    dev.Online(),
		Platforms: s.registry.Resolve(dev.UIID()).Platforms(),
	}
}

// handleListDevices returns summaries for every known device.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.store.List()
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID() < devices[j].ID()
	})

	summaries := make([]deviceSummary, 0, len(devices))
	for _, dev := range devices {
		summaries = append(summaries, s.summarize(dev))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": summaries,
		"count":   len(summaries),
	})
}

// handleGetDevice returns one device with its full parameter document.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dev, err := s.store.Get(id)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, deviceDetail{
		deviceSummary: s.summarize(dev),
		Params:        dev.Params(),
	})
}

// handleRefresh re-fetches the full device list from the cloud.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Refresh(r.Context()); err != nil {
		writeUpstreamError(w, "device refresh failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleControl sends a raw parameter document to a device.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Params map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Params) == 0 {
		writeBadRequest(w, "params is required")
		return
	}

	ack, err := s.controller.Control(r.Context(), chi.URLParam(r, "id"), req.Params)
	s.writeCommandResult(w, ack, err)
}

// handleSetSwitch turns a device's primary relay on or off.
func (s *Server) handleSetSwitch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On *bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.On == nil {
		writeBadRequest(w, "on is required")
		return
	}

	ack, err := s.controller.SetSwitch(r.Context(), chi.URLParam(r, "id"), *req.On)
	s.writeCommandResult(w, ack, err)
}

// handleSetBrightness sets a light's brightness on the 1-255 scale.
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Brightness *int `json:"brightness"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Brightness == nil {
		writeBadRequest(w, "brightness is required")
		return
	}

	ack, err := s.controller.SetBrightness(r.Context(), chi.URLParam(r, "id"), *req.Brightness)
	s.writeCommandResult(w, ack, err)
}

// handleSetColorTemp sets a light's colour temperature in kelvin.
func (s *Server) handleSetColorTemp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kelvin *int `json:"kelvin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kelvin == nil {
		writeBadRequest(w, "kelvin is required")
		return
	}

	ack, err := s.controller.SetColorTemp(r.Context(), chi.URLParam(r, "id"), *req.Kelvin)
	s.writeCommandResult(w, ack, err)
}

// handleSetColor sets a light's colour from a 0-255 RGB triple.
func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	var req uiid.RGB
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ack, err := s.controller.SetColorRGB(r.Context(), chi.URLParam(r, "id"), req)
	s.writeCommandResult(w, ack, err)
}

// handleSetStartup sets a relay's power-restore behaviour.
func (s *Server) handleSetStartup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Startup string `json:"startup"`
		Outlet  int    `json:"outlet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Startup == "" {
		writeBadRequest(w, "startup is required")
		return
	}

	ack, err := s.controller.SetStartup(r.Context(), chi.URLParam(r, "id"), req.Startup, req.Outlet)
	s.writeCommandResult(w, ack, err)
}

// writeCommandResult maps a command outcome to an HTTP response. The
// device's acknowledgement is returned verbatim, non-zero codes included;
// only local and transport failures become HTTP errors.
func (s *Server) writeCommandResult(w http.ResponseWriter, ack ws.Ack, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ack)
	case errors.Is(err, device.ErrNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, uiid.ErrUnsupported):
		writeBadRequest(w, "operation not supported by device family")
	default:
		s.logger.Warn("command delivery failed", "error", err)
		writeUpstreamError(w, "command delivery failed")
	}
}
