package unhold

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PollConfig controls how a release job is awaited.
type PollConfig struct {
	// Interval is the wait before each poll.
	Interval time.Duration

	// MaxAttempts bounds the number of polls before giving up.
	MaxAttempts int

	// ResultPageSize caps the page size used to read the job result.
	ResultPageSize int
}

// DefaultPollConfig returns the default poll settings: one poll per second
// for up to two minutes.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:       time.Second,
		MaxAttempts:    120,
		ResultPageSize: PageSize,
	}
}

// Releaser releases holds in one asynchronous job and verifies the outcome.
type Releaser struct {
	remote Remote
	config PollConfig
	logger zerolog.Logger
	newID  func() uuid.UUID
}

// NewReleaser creates a releaser. Zero fields of cfg take their defaults.
func NewReleaser(remote Remote, cfg PollConfig, logger zerolog.Logger) *Releaser {
	defaults := DefaultPollConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.ResultPageSize <= 0 || cfg.ResultPageSize > PageSize {
		cfg.ResultPageSize = defaults.ResultPageSize
	}

	return &Releaser{
		remote: remote,
		config: cfg,
		logger: logger,
		newID:  uuid.New,
	}
}

// Canonicalize returns ids sorted and without duplicates.
func Canonicalize(ids []string) []string {
	set := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Release lifts the holds on ids and returns how many were released.
// An empty ids list sends nothing.
//
// On *UnmodifiedOrdersError the count still reports the orders the job did release.
func (r *Releaser) Release(ctx context.Context, ids []string) (int, error) {
	canonical := Canonicalize(ids)
	if len(canonical) == 0 {
		return 0, nil
	}

	externalID := r.newID().String()
	logger := r.logger.With().Str("correlation_id", externalID).Logger()

	logger.Info().
		Int("count", len(canonical)).
		Msg("Releasing holds")

	resp, err := r.remote.ReleaseHolds(ctx, externalID, canonical)
	if err != nil {
		return 0, fmt.Errorf("release holds: %w", err)
	}

	if len(resp.UserErrors) > 0 {
		for _, ue := range resp.UserErrors {
			logger.Error().
				Str("field", ue.FieldPath()).
				Str("message", ue.Message).
				Msg("Release rejected")
		}
		return 0, &UserErrorsError{Errors: resp.UserErrors}
	}
	if resp.Job == nil {
		return 0, ErrNoJob
	}

	jobID := resp.Job.ID
	logger = logger.With().Str("job_id", jobID).Logger()
	logger.Info().Msg("Release job created")

	startTime := time.Now()
	job, err := r.await(ctx, logger, jobID, len(canonical))
	jobDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		return 0, err
	}

	pending, err := r.reconcile(ctx, jobID, job, canonical)
	if err != nil {
		return 0, err
	}

	released := len(canonical) - len(pending)
	ordersReleasedTotal.Add(float64(released))

	if len(pending) > 0 {
		ordersUnmodifiedTotal.Add(float64(len(pending)))
		logger.Error().
			Strs("unmodified", pending).
			Msg("Job finished without releasing every order")
		return released, &UnmodifiedOrdersError{JobID: jobID, IDs: pending}
	}

	logger.Info().
		Int("released", released).
		Msg("Holds released")

	return released, nil
}

// await polls the job until it is done. Every poll is preceded by one interval.
func (r *Releaser) await(ctx context.Context, logger zerolog.Logger, jobID string, expected int) (ReleaseJob, error) {
	first := min(expected, r.config.ResultPageSize)

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := sleep(ctx, r.config.Interval); err != nil {
			return ReleaseJob{}, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		jobPollsTotal.Inc()
		job, err := r.remote.Job(ctx, jobID, first, "")
		if err != nil {
			return ReleaseJob{}, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		logger.Debug().
			Int("attempt", attempt).
			Bool("done", job.Done).
			Msg("Polled release job")

		if job.Done {
			logger.Info().Int("attempts", attempt).Msg("Release job done")
			return job, nil
		}
	}

	logger.Error().
		Int("attempts", r.config.MaxAttempts).
		Dur("interval", r.config.Interval).
		Msg("Release job not done, giving up")

	return ReleaseJob{}, &JobTimeoutError{JobID: jobID, Attempts: r.config.MaxAttempts}
}

// reconcile reads the result of a done job and returns the submitted ids it
// did not report, in canonical order. The result holds at most as many
// entries as ids were submitted: further pages are only fetched while fewer
// nodes than that have been seen and submitted ids are unaccounted for.
func (r *Releaser) reconcile(ctx context.Context, jobID string, job ReleaseJob, canonical []string) ([]string, error) {
	if job.Result == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrMissingJobResult)
	}

	pending := make(map[string]struct{}, len(canonical))
	for _, id := range canonical {
		pending[id] = struct{}{}
	}

	expected := len(canonical)
	first := min(expected, r.config.ResultPageSize)
	page := *job.Result
	seen := 0
	for {
		for _, order := range page.Nodes {
			delete(pending, order.ID)
		}
		seen += len(page.Nodes)

		if len(pending) == 0 || seen >= expected || !page.PageInfo.HasNextPage {
			break
		}
		if page.PageInfo.EndCursor == "" {
			return nil, fmt.Errorf("job %s result: %w", jobID, ErrMissingCursor)
		}

		next, err := r.remote.Job(ctx, jobID, first, page.PageInfo.EndCursor)
		if err != nil {
			return nil, fmt.Errorf("fetch job %s result: %w", jobID, err)
		}
		if next.Result == nil {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrMissingJobResult)
		}
		page = *next.Result
	}

	unmodified := make([]string, 0, len(pending))
	for _, id := range canonical {
		if _, ok := pending[id]; ok {
			unmodified = append(unmodified, id)
		}
	}
	return unmodified, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
