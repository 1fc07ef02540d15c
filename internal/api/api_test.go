package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/ewelink-core/internal/device"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/config"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/logging"
	"github.com/nerrad567/ewelink-core/internal/uiid"
	"github.com/nerrad567/ewelink-core/internal/ws"
)

// fakeController records intent calls and replies with a scripted outcome.
type fakeController struct {
	mu         sync.Mutex
	calls      []string
	lastParams map[string]any
	ack        ws.Ack
	err        error
	refreshErr error
}

func (f *fakeController) record(name string, params map[string]any) (ws.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.lastParams = params
	return f.ack, f.err
}

func (f *fakeController) Control(_ context.Context, _ string, params map[string]any) (ws.Ack, error) {
	return f.record("control", params)
}

func (f *fakeController) SetSwitch(_ context.Context, _ string, on bool) (ws.Ack, error) {
	return f.record("switch", map[string]any{"on": on})
}

func (f *fakeController) SetBrightness(_ context.Context, _ string, brightness int) (ws.Ack, error) {
	return f.record("brightness", map[string]any{"brightness": brightness})
}

func (f *fakeController) SetColorTemp(_ context.Context, _ string, kelvin int) (ws.Ack, error) {
	return f.record("color_temp", map[string]any{"kelvin": kelvin})
}

func (f *fakeController) SetColorRGB(_ context.Context, _ string, color uiid.RGB) (ws.Ack, error) {
	return f.record("color", map[string]any{"r": color.R, "g": color.G, "b": color.B})
}

func (f *fakeController) SetStartup(_ context.Context, _, startup string, outlet int) (ws.Ack, error) {
	return f.record("startup", map[string]any{"startup": startup, "outlet": outlet})
}

func (f *fakeController) Refresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "refresh")
	return f.refreshErr
}

func testDevice(id string, uiidNum int, params map[string]any) device.Device {
	return device.Device{
		"itemType": float64(1),
		"itemData": map[string]any{
			"deviceid": id,
			"name":     "Test " + id,
			"apikey":   "key-" + id,
			"online":   true,
			"extra":    map[string]any{"uiid": float64(uiidNum)},
			"params":   params,
		},
	}
}

func testServer(t *testing.T, cfg config.APIConfig, devices ...device.Device) (*Server, *fakeController) {
	t.Helper()

	store := device.NewStore(nil)
	byID := make(map[string]device.Device, len(devices))
	for _, dev := range devices {
		byID[dev.ID()] = dev
	}
	store.Replace(byID)

	controller := &fakeController{}
	srv, err := New(Deps{
		Config:     cfg,
		Logger:     logging.Default(),
		Store:      store,
		Registry:   uiid.NewRegistry(),
		Controller: controller,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, controller
}

func doRequest(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return body
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(Deps{Logger: logging.Default()})
	if err == nil {
		t.Fatal("New() accepted missing store")
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t, config.APIConfig{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestListDevices(t *testing.T) {
	srv, _ := testServer(t, config.APIConfig{},
		testDevice("bbb", 1, map[string]any{"switch": "on"}),
		testDevice("aaa", 104, map[string]any{"ltype": "white"}),
	)

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Fatalf("count = %v", body["count"])
	}

	devices, _ := body["devices"].([]any)
	if len(devices) != 2 {
		t.Fatalf("devices = %v", devices)
	}
	first, _ := devices[0].(map[string]any)
	if first["id"] != "aaa" {
		t.Errorf("list not sorted by id: first = %v", first["id"])
	}
	if _, ok := first["platforms"]; !ok {
		t.Error("summary missing platforms")
	}
}

func TestGetDevice(t *testing.T) {
	srv, _ := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, map[string]any{"switch": "on", "rssi": float64(-60)}))

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices/dev-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	params, _ := body["params"].(map[string]any)
	if params["switch"] != "on" {
		t.Errorf("params = %v", params)
	}
	if body["uiid"] != float64(1) {
		t.Errorf("uiid = %v", body["uiid"])
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	srv, _ := testServer(t, config.APIConfig{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["code"] != ErrCodeNotFound {
		t.Error("error envelope missing code")
	}
}

func TestControl(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, map[string]any{"switch": "off"}))

	rec := doRequest(srv, http.MethodPost, "/api/v1/devices/dev-1/control",
		`{"params":{"switch":"on"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["error"] != float64(0) {
		t.Error("ack error not surfaced")
	}
	if controller.lastParams["switch"] != "on" {
		t.Errorf("forwarded params = %v", controller.lastParams)
	}
}

func TestControl_MissingParams(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))

	rec := doRequest(srv, http.MethodPost, "/api/v1/devices/dev-1/control", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(controller.calls) != 0 {
		t.Error("command forwarded despite empty params")
	}
}

func TestControl_RejectedAckSurfaced(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))
	controller.ack = ws.Ack{Error: 504, Msg: "device offline"}

	rec := doRequest(srv, http.MethodPost, "/api/v1/devices/dev-1/control",
		`{"params":{"switch":"on"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != float64(504) || body["msg"] != "device offline" {
		t.Errorf("body = %v", body)
	}
}

func TestControl_TransportError(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))
	controller.err = ws.ErrNotConnected

	rec := doRequest(srv, http.MethodPost, "/api/v1/devices/dev-1/control",
		`{"params":{"switch":"on"}}`, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestControl_UnknownDevice(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{})
	controller.err = device.ErrNotFound

	rec := doRequest(srv, http.MethodPost, "/api/v1/devices/ghost/control",
		`{"params":{"switch":"on"}}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSetSwitch(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))

	rec := doRequest(srv, http.MethodPut, "/api/v1/devices/dev-1/switch",
		`{"on":true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if controller.lastParams["on"] != true {
		t.Errorf("forwarded = %v", controller.lastParams)
	}
}

func TestSetSwitch_MissingField(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))

	rec := doRequest(srv, http.MethodPut, "/api/v1/devices/dev-1/switch", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(controller.calls) != 0 {
		t.Error("command forwarded despite missing field")
	}
}

func TestSetBrightness_Unsupported(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))
	controller.err = uiid.ErrUnsupported

	rec := doRequest(srv, http.MethodPut, "/api/v1/devices/dev-1/brightness",
		`{"brightness":128}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSetColor(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("bulb-1", 104, nil))

	rec := doRequest(srv, http.MethodPut, "/api/v1/devices/bulb-1/color",
		`{"r":255,"g":128,"b":0}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if controller.lastParams["r"] != 255 || controller.lastParams["b"] != 0 {
		t.Errorf("forwarded = %v", controller.lastParams)
	}
}

func TestSetStartup(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{},
		testDevice("dev-1", 1, nil))

	rec := doRequest(srv, http.MethodPut, "/api/v1/devices/dev-1/startup",
		`{"startup":"stay","outlet":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if controller.lastParams["startup"] != "stay" || controller.lastParams["outlet"] != 1 {
		t.Errorf("forwarded = %v", controller.lastParams)
	}
}

func TestRefresh(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{})

	rec := doRequest(srv, http.MethodPost, "/api/v1/refresh", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(controller.calls) != 1 || controller.calls[0] != "refresh" {
		t.Errorf("calls = %v", controller.calls)
	}
}

func TestRefresh_UpstreamError(t *testing.T) {
	srv, controller := testServer(t, config.APIConfig{})
	controller.refreshErr = ws.ErrNotConnected

	rec := doRequest(srv, http.MethodPost, "/api/v1/refresh", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	srv, _ := testServer(t, config.APIConfig{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request ID assigned")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := testServer(t, config.APIConfig{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/health", "",
		map[string]string{"X-Request-ID": "req-42"})
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func authedConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:   true,
			JWTSecret: "0123456789abcdef0123456789abcdef",
		},
	}
}

func TestAuth_MissingToken(t *testing.T) {
	srv, _ := testServer(t, authedConfig(), testDevice("dev-1", 1, nil))

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuth_HealthBypassesAuth(t *testing.T) {
	srv, _ := testServer(t, authedConfig())

	rec := doRequest(srv, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	cfg := authedConfig()
	srv, _ := testServer(t, cfg, testDevice("dev-1", 1, nil))

	token, err := IssueToken(cfg.Auth.JWTSecret, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices", "",
		map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	srv, _ := testServer(t, authedConfig())

	token, err := IssueToken("another-secret-another-secret-xx", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices", "",
		map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	cfg := authedConfig()
	srv, _ := testServer(t, cfg)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "local",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	token, err := expired.SignedString([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	rec := doRequest(srv, http.MethodGet, "/api/v1/devices", "",
		map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}
