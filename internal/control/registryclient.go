package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/roomclimate/internal/auth"
	"github.com/nerrad567/roomclimate/internal/catalog"
)

// maxRegistryResponse bounds the device list body.
const maxRegistryResponse = 8 << 20

// tokenSubject identifies the control loop in tokens it signs for itself.
const tokenSubject = "controller"

// RegistryClient lists devices from a remote registry over HTTP.
type RegistryClient struct {
	baseURL string
	http    *http.Client
	secret  string
}

// NewRegistryClient creates a client for the registry at baseURL (including
// the api prefix, e.g. http://localhost:8080/api).
//
// When secret is non-empty every request carries a freshly signed bearer token.
func NewRegistryClient(baseURL string, timeout time.Duration, secret string) *RegistryClient {
	return &RegistryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		secret:  secret,
	}
}

// ListDevices fetches GET {base}/devices with the filter as query parameters.
// A single object in the response is treated as a one-element list.
func (c *RegistryClient) ListDevices(ctx context.Context, filter catalog.DeviceFilter) ([]catalog.Device, error) {
	q := url.Values{}
	if filter.ID != "" {
		q.Set("id", filter.ID)
	}
	if filter.Room != "" {
		q.Set("room", filter.Room)
	}
	if filter.Kind != "" {
		q.Set("type", filter.Kind)
	}
	target := c.baseURL + "/devices"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrRegistryUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		token, err := auth.IssueToken(c.secret, tokenSubject, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("%w: signing token: %w", ErrRegistryUnavailable, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRegistryResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrRegistryUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrRegistryUnavailable, target, resp.StatusCode)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var d catalog.Device
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, fmt.Errorf("%w: decoding device: %w", ErrRegistryUnavailable, err)
		}
		return []catalog.Device{d}, nil
	}

	var devices []catalog.Device
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, fmt.Errorf("%w: decoding devices: %w", ErrRegistryUnavailable, err)
	}
	return devices, nil
}
