package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
	"github.com/banshee-data/depthcluster/internal/httputil"
)

// Client talks to a running depth server.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
}

// NewClient creates a client for the server at baseURL (for example
// "http://localhost:8082"). A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Cluster posts cloud in binary form and returns the server's frame.
func (c *Client) Cluster(ctx context.Context, cloud l1points.Cloud, withMesh bool) (*ClusterResponse, error) {
	url := c.baseURL + "/api/depth/clusters"
	if withMesh {
		url += "?mesh=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(l1points.EncodeBinary(cloud)))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", httputil.ContentTypeBinary)

	var out ClusterResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Last fetches the most recent frame the server clustered.
func (c *Client) Last(ctx context.Context) (*l4clusters.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/depth/last", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var frame l4clusters.Frame
	if err := c.do(req, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httputil.ReadError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
