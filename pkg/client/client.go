// Package client is a Go client for the exoplanet classifier HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// Prediction is the response of /predict and /api/predict.
type Prediction struct {
	Prediction    string             `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Features is the response of /api/features.
type Features struct {
	Schema   string             `json:"schema"`
	Columns  int                `json:"columns"`
	Features map[string]float64 `json:"features"`
}

// IngestAck is the response of /tess, /kepler and /k2.
type IngestAck struct {
	Dataset string            `json:"dataset"`
	Count   int               `json:"count"`
	Records []json.RawMessage `json:"records"`
}

// Health is the response of /health.
type Health struct {
	Status string          `json:"status"`
	Model  json.RawMessage `json:"model"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int         `json:"-"`
	RequestID  string      `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exoclass: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to one classifier service.
type Client struct {
	base string
	rest *resty.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(baseURL, "/"), rest: r}
}

// Predict scores a basic-schema observation. obs may be any value that
// marshals to a JSON object, or raw JSON bytes.
func (c *Client) Predict(ctx context.Context, obs any) (*Prediction, error) {
	out := &Prediction{}
	if err := c.post(ctx, "/predict", obs, out); err != nil {
		return nil, err
	}
	return out, nil
}

// PredictMission scores a mission-schema observation.
func (c *Client) PredictMission(ctx context.Context, obs any) (*Prediction, error) {
	out := &Prediction{}
	if err := c.post(ctx, "/api/predict", obs, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Features returns the engineered feature vector for obs. An empty schema
// uses the server default.
func (c *Client) Features(ctx context.Context, schema string, obs any) (*Features, error) {
	path := "/api/features"
	if schema != "" {
		path += "?schema=" + schema
	}
	out := &Features{}
	if err := c.post(ctx, path, obs, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ingest posts raw mission records. dataset is TESS, Kepler or K2.
func (c *Client) Ingest(ctx context.Context, dataset string, records any) (*IngestAck, error) {
	out := &IngestAck{}
	if err := c.post(ctx, "/"+strings.ToLower(dataset), records, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports service health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	out := &Health{}
	apiErr := &APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader(headerRequestID, uuid.NewString()).
		SetResult(out).
		SetError(apiErr).
		Get(c.base + "/health")
	if err != nil {
		return nil, fmt.Errorf("health request: %w", err)
	}
	if resp.IsError() {
		// An unhealthy service still answers with a health body.
		if resp.StatusCode() == http.StatusServiceUnavailable {
			_ = json.Unmarshal(resp.Body(), out)
			return out, asAPIError(resp, apiErr)
		}
		return nil, asAPIError(resp, apiErr)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	if raw, ok := body.([]byte); ok {
		body = json.RawMessage(raw)
	}

	apiErr := &APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader(headerRequestID, uuid.NewString()).
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post(c.base + path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return asAPIError(resp, apiErr)
	}
	return nil
}

func asAPIError(resp *resty.Response, apiErr *APIError) *APIError {
	apiErr.StatusCode = resp.StatusCode()
	apiErr.RequestID = resp.Header().Get(headerRequestID)
	if apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode())
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	return apiErr
}
