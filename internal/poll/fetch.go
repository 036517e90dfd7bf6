// Package poll fetches samples from the data source on a fixed interval
// and drives a session from a single event-loop goroutine.
package poll

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/luki/aquadash/internal/sensor"
)

// DefaultInterval is the time between polls.
const DefaultInterval = 1500 * time.Millisecond

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Fetcher returns the latest sample from the data source.
type Fetcher interface {
	Fetch(ctx context.Context) (sensor.Sample, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("data source returned %s", e.Status)
}

// HTTPFetcher GETs samples from a JSON endpoint.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher with a request timeout shorter than the
// poll interval.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Fetch performs one GET. Transport errors, non-2xx statuses and bodies that
// do not decode are all returned as errors.
func (f *HTTPFetcher) Fetch(ctx context.Context) (sensor.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return sensor.Sample{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return sensor.Sample{}, fmt.Errorf("fetch %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return sensor.Sample{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return sensor.Sample{}, fmt.Errorf("read body: %w", err)
	}
	return sensor.Decode(data)
}
