package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

func newAPIClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiAddr).
		SetTimeout(DefaultClientTimeout).
		SetHeader("Content-Type", "application/json")
}

func apiResult(resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

// apiGet performs a GET request to the API with timeout.
func apiGet(path string) ([]byte, error) {
	return apiResult(newAPIClient().R().Get(path))
}

// apiPost performs a POST request to the API with timeout.
func apiPost(path string, data any) ([]byte, error) {
	return apiResult(newAPIClient().R().SetBody(data).Post(path))
}

func apiPut(path string, data any) ([]byte, error) {
	return apiResult(newAPIClient().R().SetBody(data).Put(path))
}

// CheckHealth checks if the daemon is healthy and returns the health response.
// The parsed payload is returned alongside the error on non-200 responses.
func CheckHealth() (*HealthResponse, error) {
	var health HealthResponse
	resp, err := newAPIClient().
		SetTimeout(500 * time.Millisecond).
		R().
		SetResult(&health).
		SetError(&health).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode(), resp.String())
	}
	return &health, nil
}

// HealthResponse matches the server's health response structure.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
