package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"food-webapp/models"
)

const maxSinkResponseBytes = 1 << 20

// HTTPSink posts orders as JSON to a script endpoint. Google Apps Script
// web apps answer POSTs with a 302 to the result page; the default client
// follows it with a GET, which is what the endpoint expects.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink returns a sink for url. A zero timeout waits for the
// endpoint indefinitely.
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSink) Send(ctx context.Context, order models.OrderRequest) (models.SinkResponse, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return models.SinkResponse{}, fmt.Errorf("marshal order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return models.SinkResponse{}, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.SinkResponse{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSinkResponseBytes))
	if err != nil {
		return models.SinkResponse{}, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.SinkResponse{}, &TransportError{Err: fmt.Errorf("sink returned %s", resp.Status)}
	}

	var out struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.SinkResponse{}, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Success == nil {
		return models.SinkResponse{}, &TransportError{Err: fmt.Errorf("response has no success field")}
	}
	return models.SinkResponse{Success: *out.Success, Message: out.Message}, nil
}
