package clouddns

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

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// APIError is a failure reported by the DNS backend. It preserves the HTTP
// status so the retry classifier and not-found mapping can branch on it.
type APIError struct {
	StatusCode int
	Status     string // backend reason, e.g. "notFound", "rateLimitExceeded"
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("clouddns: server returned status %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("clouddns: server returned status %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// IsRetryable classifies a failure as transient: rate-limit and server-side
// errors are retried, everything else is fatal. This is the default
// classifier wired into the service's retry policy.
func IsRetryable(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
}

// IsNotFound reports whether err is the backend's not-found response.
// Single-resource getters map it to a nil result instead of surfacing it.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

// ErrNotFound is returned (wrapped) by operations that require an existing
// record, such as Zone.ModifyRecord.
var ErrNotFound = errors.New("record not found")

// transport issues authenticated JSON requests against the DNS API.
type transport struct {
	base   string // endpoint including the project path, no trailing slash
	token  string
	client *http.Client
	log    logr.Logger
}

// do executes one request and decodes the JSON response into out (when
// non-nil). Non-2xx responses become *APIError.
func (t *transport) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("clouddns: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := t.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("clouddns: build request: %w", err)
	}

	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("clouddns: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	t.log.V(1).Info("request completed", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("clouddns: decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// errorEnvelope is the backend's error body shape.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiError(resp *http.Response) error {
	ae := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil && (env.Error.Message != "" || env.Error.Status != "") {
		ae.Status = env.Error.Status
		ae.Message = env.Error.Message
	} else {
		ae.Message = strings.TrimSpace(string(data))
	}
	return ae
}
