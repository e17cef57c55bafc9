package unhold

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LocateResult is the outcome of matching order names against held orders.
type LocateResult struct {
	// Matched holds the remote ids of the held orders at the location whose
	// display name was requested.
	Matched []string

	// Missing holds the requested names without a match, deduplicated and
	// in request order.
	Missing []string
}

// Locator finds the held fulfillment orders of one location.
type Locator struct {
	remote   Remote
	location string
	logger   zerolog.Logger
}

// NewLocator creates a locator for held orders assigned to location.
// An empty location matches held orders at every location.
func NewLocator(remote Remote, location string, logger zerolog.Logger) *Locator {
	return &Locator{
		remote:   remote,
		location: location,
		logger:   logger,
	}
}

// Locate fetches every held fulfillment order and matches the requested
// names against those assigned to the locator's location.
func (l *Locator) Locate(ctx context.Context, names []string) (LocateResult, error) {
	orders, err := l.fetchAll(ctx)
	if err != nil {
		return LocateResult{}, err
	}

	requested := make(map[string]struct{}, len(names))
	for _, name := range names {
		requested[name] = struct{}{}
	}

	var result LocateResult
	found := make(map[string]struct{})
	for _, order := range orders {
		if l.location != "" && order.LocationName != l.location {
			continue
		}
		if _, ok := requested[order.DisplayName]; !ok {
			continue
		}
		result.Matched = append(result.Matched, order.ID)
		found[order.DisplayName] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, name := range names {
		if _, ok := found[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result.Missing = append(result.Missing, name)
	}

	ordersLocatedTotal.Add(float64(len(found)))
	ordersMissingTotal.Add(float64(len(result.Missing)))

	l.logger.Info().
		Int("held", len(orders)).
		Int("matched", len(result.Matched)).
		Str("location", l.location).
		Msg("Matched held fulfillment orders")

	if len(result.Missing) > 0 {
		l.logger.Warn().
			Strs("missing", result.Missing).
			Msg("Order names without a held fulfillment order")
	}

	return result, nil
}

// fetchAll walks the held order collection page by page.
func (l *Locator) fetchAll(ctx context.Context) ([]RemoteOrder, error) {
	var (
		orders []RemoteOrder
		cursor string
	)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch held orders: %w", err)
		}

		p, err := l.remote.OnHoldPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch held orders page %d: %w", page, err)
		}

		l.logger.Info().
			Int("page", page).
			Int("page_size", len(p.Nodes)).
			Msg("Got page of held fulfillment orders")

		orders = append(orders, p.Nodes...)

		if !p.PageInfo.HasNextPage {
			return orders, nil
		}
		if p.PageInfo.EndCursor == "" {
			return nil, fmt.Errorf("fetch held orders page %d: %w", page, ErrMissingCursor)
		}
		cursor = p.PageInfo.EndCursor
	}
}
