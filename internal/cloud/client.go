package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"
)

// accessTokenTTL is how long the cloud honours an access token.
const accessTokenTTL = 15 * 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Logger is the logging interface the client depends on.
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

// Session holds the credentials issued by a successful login.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserAPIKey   string `json:"userApiKey"`
	// UpdatedAt is the issue time in milliseconds since the Unix epoch.
	UpdatedAt int64 `json:"updatedAt"`
}

// Valid reports whether the session still carries a usable access token.
func (s Session) Valid() bool {
	if s.AccessToken == "" || s.UserAPIKey == "" {
		return false
	}
	issued := time.UnixMilli(s.UpdatedAt)
	return time.Since(issued) < accessTokenTTL
}

// Config carries the account and application identity for the cloud client.
type Config struct {
	// BaseURL is the regional REST endpoint, e.g. from APIBaseURL.
	BaseURL string

	// Email and Password identify the account. CountryCode is required
	// when Email is a phone number, e.g. "+44".
	Email       string
	Password    string
	CountryCode string

	// AppID and AppSecret are the registered application credentials used
	// to sign unauthenticated requests.
	AppID     string
	AppSecret string

	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger Logger
}

// Client talks to the eWeLink cloud REST API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger Logger

	mu      sync.RWMutex
	session Session
}

// New creates a cloud client. It performs no I/O.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// RestoreSession installs a previously persisted session if it is still
// valid. It returns true when the session was accepted.
func (c *Client) RestoreSession(s Session) bool {
	if !s.Valid() {
		return false
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.logger.Info("cloud session restored", "issued", time.UnixMilli(s.UpdatedAt))
	return true
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// LoggedIn reports whether the client holds a valid session.
func (c *Client) LoggedIn() bool {
	return c.Session().Valid()
}

// apiResponse is the envelope every cloud endpoint wraps its payload in.
type apiResponse struct {
	Error int             `json:"error"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

// loginRequest is signed with the app secret, so field order is fixed by
// the struct layout and the signature covers the exact marshaled bytes.
type loginRequest struct {
	CountryCode string `json:"countryCode,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type loginData struct {
	User struct {
		APIKey string `json:"apikey"`
	} `json:"user"`
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt"`
}

// Login authenticates the configured account and stores the resulting
// session on the client.
func (c *Client) Login(ctx context.Context) error {
	req := loginRequest{Password: c.cfg.Password}
	if emailPattern.MatchString(c.cfg.Email) {
		req.Email = c.cfg.Email
	} else {
		req.CountryCode = c.cfg.CountryCode
		req.PhoneNumber = c.cfg.CountryCode + c.cfg.Email
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	resp, err := c.post(ctx, "/v2/user/login", body, true)
	if err != nil {
		return err
	}

	switch resp.Error {
	case codeOK:
	case codeAccountNotFound:
		return ErrAccountNotFound
	case codeBadPassword, codeBadAccount:
		return ErrBadCredentials
	case codeNoConnection:
		return fmt.Errorf("%w: %s", ErrUnreachable, resp.Msg)
	default:
		return &APIError{Code: resp.Error, Msg: resp.Msg}
	}

	var data loginData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}

	c.mu.Lock()
	c.session = Session{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		UserAPIKey:   data.User.APIKey,
		UpdatedAt:    time.Now().UnixMilli(),
	}
	c.mu.Unlock()

	c.logger.Info("logged in to ewelink cloud", "apikey", data.User.APIKey)
	return nil
}

// post sends a JSON body. When signed is true the request carries an
// HMAC signature instead of the bearer token.
func (c *Client) post(ctx context.Context, path string, body []byte, signed bool) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set("Authorization", "Sign "+sign(c.cfg.AppSecret, body))
	}
	return c.do(req, signed)
}

// get sends a query-string request signed by the bearer token.
func (c *Client) get(ctx context.Context, path string, params map[string]string) (*apiResponse, error) {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req, false)
}

func (c *Client) do(req *http.Request, signed bool) (*apiResponse, error) {
	req.Header.Set("X-CK-Appid", c.cfg.AppID)
	req.Header.Set("X-CK-Nonce", randomNonce())
	if !signed {
		session := c.Session()
		if session.AccessToken == "" {
			return nil, ErrReauthRequired
		}
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.Error != codeOK {
		c.logger.Debug("cloud request failed",
			"path", req.URL.Path, "code", resp.Error, "msg", resp.Msg)
	}
	return &resp, nil
}
