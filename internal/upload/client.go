package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrExists is returned when the server already has a program of that name.
var ErrExists = errors.New("program already exists on server")

// RejectedError is a 4xx answer other than a name conflict. It is not retried.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server rejected program (status %d): %s", e.Status, e.Body)
}

// Client sends program files to a FitTrack server over HTTP.
type Client struct {
	serverURL  string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the FitTrack server.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// ServerURL returns the base URL uploads go to.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// FetchPrograms returns the names of the programs already on the server.
func (c *Client) FetchPrograms(ctx context.Context) (map[string]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/v1/programs", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching programs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("programs request failed (status %d): %s", resp.StatusCode, body)
	}

	var programs []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&programs); err != nil {
		return nil, fmt.Errorf("decoding programs: %w", err)
	}
	names := make(map[string]bool, len(programs))
	for _, p := range programs {
		names[p.Name] = true
	}
	return names, nil
}

// SendProgram POSTs a program file to the server's import endpoint.
// Transport errors and 5xx answers are retried up to 3 times with
// exponential backoff; a 409 returns ErrExists and other 4xx answers a
// *RejectedError.
func (c *Client) SendProgram(ctx context.Context, name, format string, data []byte) error {
	q := url.Values{}
	q.Set("format", format)
	q.Set("name", name)
	target := c.serverURL + "/api/v1/programs/import?" + q.Encode()

	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", contentType(format))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrExists, name)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return &RejectedError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		lastErr = fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
	}

	return fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func contentType(format string) string {
	if format == "csv" {
		return "text/csv"
	}
	return "application/json"
}
