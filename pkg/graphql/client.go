package graphql

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

	"github.com/google/uuid"

	"github.com/honeycarbs/mixer-client/pkg/logging"
)

const maxErrorBody = 4096

// NewClient instantiates a GraphQL client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("graphql: endpoint is required")
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("graphql: parse endpoint: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("graphql: endpoint %q must be an absolute URL", cfg.Endpoint)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Client{
		endpoint:   u.String(),
		httpClient: httpClient,
		logger:     logger.Named("graphql"),
		headers:    cfg.Headers.Clone(),
	}, nil
}

// Endpoint returns the URL operations are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do sends a query or mutation as JSON and returns the raw data payload
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("graphql: client is nil")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: encode request: %w", err)
	}

	env, err := c.post(ctx, OpRequest, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	return env.Data, nil
}

// Query sends a query or mutation and decodes data into T
func Query[T any](ctx context.Context, c *Client, query string, variables map[string]any) (T, error) {
	var out T

	raw, err := c.Do(ctx, Request{Query: query, Variables: variables})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ProtocolError{Reason: "decode GraphQL data", Err: err}
	}

	return out, nil
}

// post sends body and validates the response envelope. The returned
// envelope always has non-null data.
func (c *Client) post(ctx context.Context, op string, body io.Reader, contentType string) (envelope, error) {
	requestID := uuid.NewString()
	log := c.logger.With("request_id", requestID, "op", op)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return envelope{}, fmt.Errorf("graphql: build request: %w", err)
	}
	for k, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("graphql request failed", "err", err)
		return envelope{}, canceled(ctx, fmt.Errorf("graphql: %s failed: %w", op, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	log.Debug("graphql response received", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		body := strings.TrimSpace(string(excerpt))
		log.Debug("graphql non-2xx response", "status", resp.StatusCode, "body", body)
		return envelope{}, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, canceled(ctx, &ProtocolError{Reason: "decode GraphQL response", Err: err})
	}

	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return envelope{}, &GraphQLError{Messages: msgs}
	}

	if isNull(env.Data) {
		return envelope{}, &ProtocolError{Reason: msgMissingData}
	}

	return env, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
