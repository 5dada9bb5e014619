// Why this file: ./internal/tools/client.go
// This holds the shared plumbing for every external collaborator: a typed
// error for failed calls and one JSON GET helper with bounded timeouts.
// Tool clients never propagate raw errors past this package - every call
// degrades into a zero-confidence ToolResult with user-safe advisory.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// CollaboratorError wraps a failed call to an external service.
type CollaboratorError struct {
	Service string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// httpClient is shared by all tool clients. Per-call deadlines come
// from the request context; this timeout is the hard ceiling covering
// Render cold starts on the disease service.
var httpClient = &http.Client{Timeout: 120 * time.Second}

// getJSON performs a GET against base+params and decodes the JSON body
// into out. The context bounds the whole call.
func getJSON(ctx context.Context, service, base string, params url.Values, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := base
	if len(params) > 0 {
		u = base + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &CollaboratorError{Service: service, Err: err}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &CollaboratorError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &CollaboratorError{
			Service: service,
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CollaboratorError{Service: service, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
