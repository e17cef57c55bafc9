// Package unhold releases manual holds on Shopify fulfillment orders.
//
// A run goes through three stages:
//
//   - order name arguments are expanded into individual names (package orderid),
//   - the Locator pages through all on-hold fulfillment orders and matches
//     them against the requested names,
//   - the Releaser submits one fulfillmentOrdersReleaseHolds mutation, polls
//     the resulting job until it is done and reconciles the job result with
//     the submitted handles.
//
// Unholder chains the stages. Every stage may end the run early; business
// outcomes are returned as typed errors, see Kind and KindOf.
package unhold

import "strings"

// RemoteOrder is a fulfillment order as returned by a page of the remote collection.
type RemoteOrder struct {
	ID           string
	DisplayName  string
	LocationName string
}

// PageInfo carries the cursor pagination state of a page.
type PageInfo struct {
	HasNextPage bool
	EndCursor   string
}

// Page is one page of fulfillment orders.
type Page struct {
	Nodes    []RemoteOrder
	PageInfo PageInfo
}

// ReleaseJob is a snapshot of the asynchronous job created by a release.
// Result is only present once the job is done.
type ReleaseJob struct {
	ID     string
	Done   bool
	Result *Page
}

// UserError is a business rule rejection reported by the release mutation.
type UserError struct {
	// Field is the path to the offending input field, nil when not field specific.
	Field   []string
	Message string
}

// FieldPath returns the field path joined by dots, or "" when absent.
func (e UserError) FieldPath() string {
	return strings.Join(e.Field, ".")
}

// ReleaseResponse is the outcome of submitting the release mutation:
// either user errors or a job.
type ReleaseResponse struct {
	Job        *ReleaseJob
	UserErrors []UserError
}
