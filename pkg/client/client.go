// Package client provides the Shopify Admin GraphQL client with cost
// throttling, error classification and request metrics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/shopify-unhold/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Shopify client operations.
var (
	shopifyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_requests_total",
		Help: "Total Shopify GraphQL requests by operation and status",
	}, []string{"operation", "status"})

	shopifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopify_request_duration_seconds",
		Help:    "Shopify GraphQL request duration in seconds by operation",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	shopifyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_errors_total",
		Help: "Total Shopify errors by class",
	}, []string{"class"})
)

const (
	// DefaultAPIVersion is the Admin API version requests are sent to.
	DefaultAPIVersion = "2024-07"

	// DefaultRequestCost is the cost reserved before each request; a page of
	// 250 nodes costs a little over 250 points.
	DefaultRequestCost = 260

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Request is a GraphQL request document with its variables.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Client is the Shopify Admin GraphQL client.
type Client struct {
	httpClient *http.Client
	endpoint   string
	throttle   *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Store is the myshopify.com subdomain, e.g. "demo-shop" for demo-shop.myshopify.com.
	Store string

	// AccessToken is the Admin API access token (X-Shopify-Access-Token).
	AccessToken string

	// APIVersion selects the versioned Admin API endpoint.
	APIVersion string

	// Endpoint overrides the URL derived from Store and APIVersion.
	Endpoint string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration

	// Throttle gates requests on the store's cost bucket. Optional.
	Throttle *ratelimit.Tracker

	// RequestCost is the number of cost points a request is expected to use.
	RequestCost float64
}

// DefaultConfig returns a default configuration for the given store and token.
func DefaultConfig(store, accessToken string) Config {
	return Config{
		Store:       store,
		AccessToken: accessToken,
		APIVersion:  DefaultAPIVersion,
		UserAgent:   "shopify-unhold/0.1.0",
		Timeout:     30 * time.Second,
		RequestCost: DefaultRequestCost,
	}
}

// New creates a new Shopify client.
func New(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	if cfg.Store == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("store or endpoint is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestCost <= 0 {
		cfg.RequestCost = DefaultRequestCost
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", cfg.Store, cfg.APIVersion)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: endpoint,
		throttle: cfg.Throttle,
		config:   cfg,
		logger:   log.With().Str("component", "shopify-client").Logger(),
	}, nil
}

// envelope is the top-level shape of every GraphQL response.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Errors     []ErrorItem     `json:"errors"`
	Extensions struct {
		Cost *struct {
			RequestedQueryCost float64                  `json:"requestedQueryCost"`
			ActualQueryCost    float64                  `json:"actualQueryCost"`
			ThrottleStatus     ratelimit.ThrottleStatus `json:"throttleStatus"`
		} `json:"cost"`
	} `json:"extensions"`
}

// Do sends a GraphQL request and decodes the response data into out.
// Requests are never retried; failures are returned as *APIError or *GraphQLError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	operation := req.OperationName
	if operation == "" {
		operation = "anonymous"
	}

	startTime := time.Now()
	defer func() {
		shopifyRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Wait for the cost bucket
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, c.config.RequestCost); err != nil {
			return err
		}
	}

	// Step 2: Build the HTTP request
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("operation", operation).
		Msg("Executing Shopify request")

	// Step 3: Execute
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("operation", operation).Msg("HTTP request failed")
		return c.fail(operation, "network_error", &APIError{
			Operation:  operation,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(operation, "network_error", &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		})
	}

	// Step 4: Handle HTTP errors
	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		c.logger.Warn().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Shopify request error")

		return c.fail(operation, strconv.Itoa(resp.StatusCode), &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		})
	}

	// Step 5: Decode the envelope
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.fail(operation, "decode_error", &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response",
			Err:        err,
		})
	}

	// Step 6: Update throttle state
	if env.Extensions.Cost != nil && c.throttle != nil {
		if err := c.throttle.Update(ctx, env.Extensions.Cost.ThrottleStatus); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update throttle state")
		}
	}

	// Step 7: Handle GraphQL errors
	if len(env.Errors) > 0 {
		gqlErr := &GraphQLError{
			Operation:  operation,
			ErrorClass: classifyGraphQLErrors(env.Errors),
			Errors:     env.Errors,
		}
		c.logger.Warn().
			Str("operation", operation).
			Str("error_class", string(gqlErr.ErrorClass)).
			Int("errors", len(env.Errors)).
			Msg("Shopify GraphQL errors")
		return c.fail(operation, "graphql_error", gqlErr)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return c.fail(operation, "decode_error", &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response",
			Err:        ErrEmptyData,
		})
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return c.fail(operation, "decode_error", &APIError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassDecode,
				Message:    "decode data",
				Err:        err,
			})
		}
	}

	shopifyRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
	return nil
}

// fail records metrics for a failed request and returns err.
func (c *Client) fail(operation, status string, err error) error {
	var class ErrorClass
	switch e := err.(type) {
	case *APIError:
		class = e.ErrorClass
	case *GraphQLError:
		class = e.ErrorClass
	}
	shopifyErrorsTotal.WithLabelValues(string(class)).Inc()
	shopifyRequestsTotal.WithLabelValues(operation, status).Inc()
	return err
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
