package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scbrown/shelf/internal/model"
)

// RemoteStore implements Store by reading the catalog of a shelf serve instance.
type RemoteStore struct {
	baseURL string
	client  *http.Client
}

// NewRemote creates a RemoteStore pointing at the given base URL (e.g., "http://localhost:7480").
func NewRemote(baseURL string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Products fetches the server's full catalog in load order.
func (r *RemoteStore) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.getJSON(ctx, "/api/v1/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Stats fetches the server's catalog statistics.
func (r *RemoteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := r.getJSON(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// String describes the store for log messages.
func (r *RemoteStore) String() string {
	return "remote:" + r.baseURL
}

// Close is a no-op for the remote store.
func (r *RemoteStore) Close() error {
	return nil
}

// getJSON performs a GET request and decodes the JSON response into dst.
func (r *RemoteStore) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return remoteError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// remoteError reads an error response from the server and returns it as an error.
func remoteError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("remote store (%d): %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("remote store (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
