// Package testutil provides testing utilities for the Shopify client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// GraphQLPath is the request path served by the mock, matching the Admin API.
const GraphQLPath = "/admin/api/2024-07/graphql.json"

// MockResponse defines the behavior for one mock GraphQL response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// GraphQLRequest is a request received by the mock.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Header        http.Header    `json:"-"`
}

// MockShopify is a configurable mock Shopify Admin GraphQL server.
// Responses are selected by the request's operationName.
type MockShopify struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(req GraphQLRequest) MockResponse

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	Requests          []GraphQLRequest
}

// NewMockShopify creates a new mock Shopify server.
func NewMockShopify() *MockShopify {
	mock := &MockShopify{
		handlers: make(map[string]func(req GraphQLRequest) MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GraphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"errors":[{"message":"invalid json"}]}`, http.StatusBadRequest)
			return
		}
		req.Header = r.Header.Clone()

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = req.Header
		mock.Requests = append(mock.Requests, req)
		handler, exists := mock.handlers[req.OperationName]
		mock.mu.Unlock()

		resp := MockResponse{
			StatusCode: http.StatusOK,
			Body:       `{"errors":[{"message":"unknown operation"}]}`,
		}
		if exists {
			resp = handler(req)
		}
		writeResponse(w, resp)
	}))

	return mock
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	w.Header().Set("Content-Type", "application/json")
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server base URL.
func (m *MockShopify) URL() string {
	return m.server.URL
}

// Endpoint returns the full GraphQL endpoint URL of the mock.
func (m *MockShopify) Endpoint() string {
	return m.server.URL + GraphQLPath
}

// Close shuts down the mock server.
func (m *MockShopify) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockShopify) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.Requests = nil
}

// SetHandler sets a custom handler for an operation.
func (m *MockShopify) SetHandler(operation string, handler func(req GraphQLRequest) MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[operation] = handler
}

// SetResponse configures a fixed response for an operation.
func (m *MockShopify) SetResponse(operation string, resp MockResponse) {
	m.SetHandler(operation, func(GraphQLRequest) MockResponse { return resp })
}

// SetSequence configures responses returned in order for an operation.
// The last response is repeated once the sequence is exhausted.
func (m *MockShopify) SetSequence(operation string, responses ...MockResponse) {
	var (
		mu   sync.Mutex
		next int
	)
	m.SetHandler(operation, func(GraphQLRequest) MockResponse {
		mu.Lock()
		defer mu.Unlock()
		resp := responses[next]
		if next < len(responses)-1 {
			next++
		}
		return resp
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockShopify) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// RequestsFor returns the requests received for an operation, in order.
func (m *MockShopify) RequestsFor(operation string) []GraphQLRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []GraphQLRequest
	for _, req := range m.Requests {
		if req.OperationName == operation {
			out = append(out, req)
		}
	}
	return out
}

// NewDataResponse creates a 200 OK response carrying data and a healthy
// cost extension.
func NewDataResponse(data any) MockResponse {
	return NewDataResponseWithCost(data, 1990, 2000, 100)
}

// NewDataResponseWithCost creates a 200 OK response carrying data and the
// given throttle status.
func NewDataResponseWithCost(data any, currentlyAvailable, maximumAvailable, restoreRate float64) MockResponse {
	body, err := json.Marshal(map[string]any{
		"data": data,
		"extensions": map[string]any{
			"cost": map[string]any{
				"requestedQueryCost": 10,
				"actualQueryCost":    10,
				"throttleStatus": map[string]any{
					"maximumAvailable":   maximumAvailable,
					"currentlyAvailable": currentlyAvailable,
					"restoreRate":        restoreRate,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewGraphQLErrorResponse creates a 200 OK response with top-level GraphQL errors.
func NewGraphQLErrorResponse(code string, messages ...string) MockResponse {
	items := make([]map[string]any, 0, len(messages))
	for _, message := range messages {
		item := map[string]any{"message": message}
		if code != "" {
			item["extensions"] = map[string]any{"code": code}
		}
		items = append(items, item)
	}
	body, err := json.Marshal(map[string]any{"errors": items})
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewThrottledResponse creates a THROTTLED GraphQL error response.
func NewThrottledResponse() MockResponse {
	return NewGraphQLErrorResponse("THROTTLED", "Throttled")
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors":"Internal Server Error"}`,
	}
}

// NewUnauthorizedResponse creates a 401 response as sent for a bad access token.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"errors":"[API] Invalid API key or access token (unrecognized login or wrong password)"}`,
	}
}
