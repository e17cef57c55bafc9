package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyData is returned when a successful response carries no data.
var ErrEmptyData = errors.New("response has no data")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassThrottled represents 429 responses and THROTTLED GraphQL errors.
	ErrorClassThrottled ErrorClass = "throttled"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassGraphQL represents top-level GraphQL errors.
	ErrorClassGraphQL ErrorClass = "graphql"

	// ErrorClassDecode represents malformed or empty responses.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError is a transport level failure of a Shopify request.
type APIError struct {
	Operation  string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shopify %s error (%s, status %d): %s: %v",
			e.ErrorClass, e.Operation, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("shopify %s error (%s, status %d): %s",
		e.ErrorClass, e.Operation, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorItem is one entry of the top-level "errors" list of a GraphQL response.
type ErrorItem struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions"`
}

// GraphQLError reports a response whose top-level "errors" list was not empty.
type GraphQLError struct {
	Operation  string
	ErrorClass ErrorClass
	Errors     []ErrorItem
}

// Error implements the error interface.
func (e *GraphQLError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		messages = append(messages, item.Message)
	}
	return fmt.Sprintf("shopify %s error (%s): %s", e.ErrorClass, e.Operation, strings.Join(messages, "; "))
}

// IsThrottled reports whether err was caused by Shopify throttling.
func IsThrottled(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass == ErrorClassThrottled
	}
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr.ErrorClass == ErrorClassThrottled
	}
	return false
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassThrottled
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyGraphQLErrors categorizes a non-empty GraphQL error list.
func classifyGraphQLErrors(items []ErrorItem) ErrorClass {
	for _, item := range items {
		if item.Extensions.Code == "THROTTLED" {
			return ErrorClassThrottled
		}
	}
	return ErrorClassGraphQL
}
