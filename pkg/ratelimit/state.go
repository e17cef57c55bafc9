// Package ratelimit implements Shopify GraphQL cost throttle tracking.
// It follows the leaky bucket reported in extensions.cost.throttleStatus of
// every Admin API response and delays requests that would overdraw it.
package ratelimit

import (
	"math"
	"time"
)

// RedisKeyPrefix prefixes the per-store throttle state key.
const RedisKeyPrefix = "shopify:throttle:"

// StateTTL bounds how long a stored throttle state is kept.
// After a minute without requests the bucket is full again on any plan.
const StateTTL = 60 * time.Second

// ThrottleStatus mirrors extensions.cost.throttleStatus of a GraphQL response.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// ThrottleState is the last known bucket state of one store.
type ThrottleState struct {
	// MaximumAvailable is the bucket size in cost points.
	MaximumAvailable float64 `json:"maximum_available"`

	// CurrentlyAvailable is the number of points left when LastUpdate was taken.
	CurrentlyAvailable float64 `json:"currently_available"`

	// RestoreRate is the number of points restored per second.
	RestoreRate float64 `json:"restore_rate"`

	// LastUpdate is when the state was read from a response.
	LastUpdate time.Time `json:"last_update"`
}

// NewThrottleState creates a state from a response throttle status observed at now.
func NewThrottleState(status ThrottleStatus, now time.Time) *ThrottleState {
	return &ThrottleState{
		MaximumAvailable:   status.MaximumAvailable,
		CurrentlyAvailable: status.CurrentlyAvailable,
		RestoreRate:        status.RestoreRate,
		LastUpdate:         now,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *ThrottleState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// AvailableAt projects the points available at the given time, assuming no
// other requests were made since LastUpdate.
func (s *ThrottleState) AvailableAt(now time.Time) float64 {
	elapsed := now.Sub(s.LastUpdate).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Min(s.MaximumAvailable, s.CurrentlyAvailable+elapsed*s.RestoreRate)
}

// WaitFor returns how long to wait at now before cost points are available.
// Returns 0 when the request can go out immediately.
func (s *ThrottleState) WaitFor(cost float64, now time.Time) time.Duration {
	available := s.AvailableAt(now)
	if available >= cost || s.RestoreRate <= 0 {
		return 0
	}
	if cost > s.MaximumAvailable {
		// The bucket can never hold that much; wait for a full bucket instead.
		cost = s.MaximumAvailable
	}
	seconds := (cost - available) / s.RestoreRate
	return time.Duration(math.Ceil(seconds*1000)) * time.Millisecond
}
