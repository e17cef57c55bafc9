package unhold

import (
	"context"

	"github.com/Sternrassler/shopify-unhold/pkg/orderid"
	"github.com/rs/zerolog"
)

// Config holds the settings of an Unholder.
type Config struct {
	// Location is the name of the location whose held orders are released.
	Location string

	// Poll controls how the release job is awaited.
	Poll PollConfig
}

// Report summarizes a run. Counts are filled as far as the run got.
type Report struct {
	// Requested is the number of order names after expansion, duplicates included.
	Requested int

	// Matched is the number of held fulfillment orders found for the names.
	Matched int

	// Released is the number of fulfillment orders whose hold was lifted.
	Released int
}

// Unholder runs the expand, locate and release stages for one location.
type Unholder struct {
	locator  *Locator
	releaser *Releaser
	logger   zerolog.Logger
}

// New creates an Unholder talking to remote.
func New(remote Remote, cfg Config, logger zerolog.Logger) *Unholder {
	return &Unholder{
		locator:  NewLocator(remote, cfg.Location, logger.With().Str("stage", "locate").Logger()),
		releaser: NewReleaser(remote, cfg.Poll, logger.With().Str("stage", "release").Logger()),
		logger:   logger,
	}
}

// Run expands the order name arguments in args and releases the holds on
// the fulfillment orders they name, see RunNames.
func (u *Unholder) Run(ctx context.Context, args []string) (Report, error) {
	names, err := orderid.Expand(args)
	if err != nil {
		runsTotal.WithLabelValues(KindOf(err).String()).Inc()
		return Report{}, err
	}
	return u.RunNames(ctx, names)
}

// RunNames releases the holds on the fulfillment orders named by the
// already expanded names.
//
// Any requested name without a held fulfillment order at the location aborts
// the run with *NotFoundError before anything is released.
func (u *Unholder) RunNames(ctx context.Context, names []string) (report Report, err error) {
	defer func() {
		runsTotal.WithLabelValues(KindOf(err).String()).Inc()
	}()

	report.Requested = len(names)
	if len(names) == 0 {
		u.logger.Info().Msg("No orders input")
		return report, nil
	}

	u.logger.Info().Int("count", len(names)).Msg("Releasing holds for order names")

	located, err := u.locator.Locate(ctx, names)
	if err != nil {
		return report, err
	}
	report.Matched = len(located.Matched)

	if len(located.Missing) > 0 {
		return report, &NotFoundError{Names: located.Missing}
	}

	report.Released, err = u.releaser.Release(ctx, located.Matched)
	return report, err
}
