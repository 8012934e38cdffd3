package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/mapty/internal/app"
	"github.com/meltforce/mapty/internal/models"
	"github.com/meltforce/mapty/internal/render"
)

// HTTPClient implements DataSource by calling the mapty REST API. Used for
// remote MCP mode where the binary runs locally (stdio) but the workouts
// live on the server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.Status, e.Message)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpclient: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := string(data)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{Path: path, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, kind string) ([]render.Item, error) {
	params := url.Values{}
	if kind != "" {
		params.Set("kind", kind)
	}
	var items []render.Item
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts", params, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, id string) (render.Item, error) {
	var item render.Item
	err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+url.PathEscape(id), nil, nil, &item)
	return item, err
}

// logRequest matches the body accepted by POST /api/v1/workouts.
type logRequest struct {
	app.FormInput
	Coords *models.Coords `json:"coords,omitempty"`
}

func (c *HTTPClient) LogWorkout(ctx context.Context, coords models.Coords, in app.FormInput) (render.Item, error) {
	var item render.Item
	err := c.do(ctx, http.MethodPost, "/api/v1/workouts", nil, logRequest{FormInput: in, Coords: &coords}, &item)
	return item, err
}

func (c *HTTPClient) GetSummary(ctx context.Context) (models.Summary, error) {
	var s models.Summary
	err := c.do(ctx, http.MethodGet, "/api/v1/summary", nil, nil, &s)
	return s, err
}

func (c *HTTPClient) FocusWorkout(ctx context.Context, id string) (render.Item, error) {
	var item render.Item
	err := c.do(ctx, http.MethodPost, "/api/v1/workouts/"+url.PathEscape(id)+"/focus", nil, nil, &item)
	return item, err
}
