/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package earthengine

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unikorn-cloud/geefixture/pkg/auth"
	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/constants"
	"github.com/unikorn-cloud/geefixture/pkg/metrics"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Client is an Earth Engine REST API client bound to a single project.
type Client struct {
	baseURL   string
	client    *http.Client
	projectID string
	config    *config.Config
	endpoints *Endpoints
	limiter   *rate.Limiter
}

// New creates a client that authorizes with the given credentials.
func New(ctx context.Context, c *config.Config, credentials *auth.Credentials) *Client {
	client := credentials.HTTPClient(ctx)
	client.Timeout = c.RequestTimeout

	return NewWithHTTPClient(c, credentials.ProjectID, client)
}

// NewWithHTTPClient creates a client using a preconfigured HTTP client.
func NewWithHTTPClient(c *config.Config, projectID string, client *http.Client) *Client {
	burst := max(1, int(c.RequestsPerSecond))

	return &Client{
		baseURL:   strings.TrimSuffix(c.BaseURL, "/"),
		client:    client,
		projectID: projectID,
		config:    c,
		endpoints: NewEndpoints(),
		limiter:   rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst),
	}
}

// ProjectID is the project requests are made against.
func (c *Client) ProjectID() string {
	return c.projectID
}

// Root is the project's top level asset folder.
func (c *Client) Root() string {
	return "projects/" + c.projectID + "/assets"
}

// generateTraceID creates a new W3C trace ID.
// Every request gets its own so a failure can be found in the server logs.
func generateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// generateSpanID creates a new W3C span ID.
func generateSpanID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// createTraceParent creates a W3C traceparent header value.
func createTraceParent() string {
	traceID := generateTraceID()
	spanID := generateSpanID()

	return fmt.Sprintf("00-%s-%s-01", traceID, spanID)
}

// extractTraceID extracts the trace ID from a traceparent header value.
func extractTraceID(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) >= 2 {
		return parts[1]
	}

	return traceParent
}

// request describes a single API call.
type request struct {
	// operation names the call for logs and metrics.
	operation string
	method    string
	path      string
	query     url.Values
	body      any
}

//nolint:cyclop
func (c *Client) doRequest(ctx context.Context, r *request) ([]byte, error) {
	log := log.FromContext(ctx).WithValues("operation", r.operation)

	if err := c.limiter.Wait(ctx); err != nil {
		// The limiter refuses early when the wait would pass the deadline.
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			return nil, fmt.Errorf("rate limiting: %w: %w", context.DeadlineExceeded, err)
		}

		return nil, fmt.Errorf("rate limiting: %w", err)
	}

	fullURL := c.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	var body io.Reader

	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Add W3C Trace Context headers
	traceParent := createTraceParent()
	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("User-Agent", constants.VersionString())
	req.Header.Set("X-Goog-User-Project", c.projectID)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	metrics.RemoteRequestDuration.WithLabelValues(r.operation).Observe(duration.Seconds())

	if err != nil {
		metrics.RemoteRequests.WithLabelValues(r.operation, "error").Inc()
		log.Error(err, "http request failed", "method", r.method, "path", r.path, "duration", duration, "traceID", extractTraceID(traceParent))

		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	metrics.RemoteRequests.WithLabelValues(r.operation, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.config.LogRequests {
		log.Info("request", "method", r.method, "path", r.path, "status", resp.StatusCode, "duration", duration, "traceID", extractTraceID(traceParent))
	}

	if c.config.LogResponses && len(respBody) > 0 && isJSON(resp) {
		log.Info("response", "body", string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			TraceID:    extractTraceID(traceParent),
		}

		var envelope ErrorResponse
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Status = envelope.Error
		} else {
			apiErr.Status = Status{Code: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}

		log.V(1).Info("unexpected status", "method", r.method, "path", r.path, "status", resp.StatusCode, "message", apiErr.Status.Message, "traceID", apiErr.TraceID)

		return nil, apiErr
	}

	return respBody, nil
}

// doJSON performs a request and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, r *request, out any) error {
	body, err := c.doRequest(ctx, r)
	if err != nil {
		return fmt.Errorf("%s: %w", r.operation, err)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", r.operation, err)
	}

	return nil
}

func isJSON(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}
