package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// resolveEndpoint asks the dispatch service which gateway host this session
// should connect to. The assignment can change between calls, so it is
// re-resolved on every connect cycle.
func (c *Client) resolveEndpoint(ctx context.Context) (string, error) {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint, nil
	}

	url := c.cfg.DispatchURL + "/dispatch/app"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: dispatch returned status %d", ErrDispatchFailed, resp.StatusCode)
	}

	var out struct {
		Error  int    `json:"error"`
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding dispatch response: %w", ErrDispatchFailed, err)
	}
	if out.Error != 0 || out.Domain == "" {
		return "", fmt.Errorf("%w: dispatch error %d", ErrDispatchFailed, out.Error)
	}

	return fmt.Sprintf("wss://%s/api/ws", out.Domain), nil
}
