// Package httpjson holds the JSON-over-HTTP plumbing shared by the collaborator adapters.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

// StatusError reports a non-2xx response.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s", e.Service, e.Status)
	}
	return fmt.Sprintf("%s %s: %s", e.Service, e.Status, e.Body)
}

// PostJSON sends in as a JSON body and decodes a 2xx response into out.
func PostJSON(ctx context.Context, hc *http.Client, service, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return Do(hc, req, service, out)
}

// GetJSON issues a GET and decodes a 2xx response into out.
func GetJSON(ctx context.Context, hc *http.Client, service, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	return Do(hc, req, service, out)
}

// Do executes req and decodes a 2xx JSON response into out. The body is
// always drained and closed.
func Do(hc *http.Client, req *http.Request, service string, out any) (err error) {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s response body: %w", service, closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return errors.Join(
				&StatusError{Service: service, StatusCode: resp.StatusCode, Status: resp.Status},
				fmt.Errorf("read %s error response: %w", service, readErr),
			)
		}
		return &StatusError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}
