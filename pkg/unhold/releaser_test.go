package unhold

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJobID = "gid://shopify/Job/42"

var testCorrelationID = uuid.MustParse("8b0e1c2d-3f4a-4b5c-9d6e-7f8091a2b3c4")

func newTestReleaser(remote Remote, cfg PollConfig) *Releaser {
	if cfg.Interval == 0 {
		cfg.Interval = time.Millisecond
	}
	r := NewReleaser(remote, cfg, zerolog.Nop())
	r.newID = func() uuid.UUID { return testCorrelationID }
	return r
}

func pendingJob() ReleaseJob {
	return ReleaseJob{ID: testJobID}
}

func doneJob(result Page) ReleaseJob {
	return ReleaseJob{ID: testJobID, Done: true, Result: &result}
}

func released(ids ...string) []RemoteOrder {
	nodes := make([]RemoteOrder, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, RemoteOrder{ID: id})
	}
	return nodes
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Canonicalize([]string{"c", "a", "b", "a"}))
	assert.Empty(t, Canonicalize(nil))
}

func TestNewReleaser_Defaults(t *testing.T) {
	r := NewReleaser(new(mockRemote), PollConfig{ResultPageSize: 1000}, zerolog.Nop())
	assert.Equal(t, DefaultPollConfig(), r.config)
}

func TestRelease_Empty(t *testing.T) {
	remote := new(mockRemote)
	r := newTestReleaser(remote, PollConfig{})

	count, err := r.Release(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, count)
	remote.AssertNotCalled(t, "ReleaseHolds", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelease_Success(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, testCorrelationID.String(), []string{"a", "b", "c"}).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil).Once()
	remote.On("Job", mock.Anything, testJobID, 3, "").Return(pendingJob(), nil).Once()
	remote.On("Job", mock.Anything, testJobID, 3, "").
		Return(doneJob(Page{Nodes: released("c", "b", "a", "z")}), nil).Once()

	r := newTestReleaser(remote, PollConfig{})
	count, err := r.Release(context.Background(), []string{"c", "a", "b", "a"})

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	remote.AssertExpectations(t)
	remote.AssertNumberOfCalls(t, "Job", 2)
}

func TestRelease_Unmodified(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, []string{"a", "b", "c"}).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)
	remote.On("Job", mock.Anything, testJobID, 3, "").
		Return(doneJob(Page{Nodes: released("b")}), nil)

	r := newTestReleaser(remote, PollConfig{})
	count, err := r.Release(context.Background(), []string{"a", "b", "c"})

	require.Error(t, err)
	var unmodified *UnmodifiedOrdersError
	require.ErrorAs(t, err, &unmodified)
	assert.Equal(t, testJobID, unmodified.JobID)
	assert.Equal(t, []string{"a", "c"}, unmodified.IDs)
	assert.Equal(t, KindUnmodified, KindOf(err))
	assert.Equal(t, 1, count)
}

func TestRelease_UserErrors(t *testing.T) {
	userErrors := []UserError{
		{Field: []string{"ids", "0"}, Message: "Fulfillment order is not on hold"},
		{Message: "Something else"},
	}
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{UserErrors: userErrors}, nil)

	r := newTestReleaser(remote, PollConfig{})
	count, err := r.Release(context.Background(), []string{"a"})

	require.Error(t, err)
	var ue *UserErrorsError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, userErrors, ue.Errors)
	assert.Equal(t, KindUserErrors, KindOf(err))
	assert.Zero(t, count)
	remote.AssertNotCalled(t, "Job", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRelease_NoJob(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{}, nil)

	r := newTestReleaser(remote, PollConfig{})
	_, err := r.Release(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, ErrNoJob)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestRelease_MutationFailure(t *testing.T) {
	boom := errors.New("connection reset")
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{}, boom)

	r := newTestReleaser(remote, PollConfig{})
	_, err := r.Release(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestRelease_JobTimeout(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)
	remote.On("Job", mock.Anything, testJobID, 1, "").Return(pendingJob(), nil)

	r := newTestReleaser(remote, PollConfig{MaxAttempts: 3})
	_, err := r.Release(context.Background(), []string{"a"})

	require.Error(t, err)
	var timeout *JobTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, testJobID, timeout.JobID)
	assert.Equal(t, 3, timeout.Attempts)
	assert.Equal(t, KindJobTimeout, KindOf(err))
	remote.AssertNumberOfCalls(t, "Job", 3)
}

func TestRelease_MissingResult(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)
	remote.On("Job", mock.Anything, testJobID, 1, "").
		Return(ReleaseJob{ID: testJobID, Done: true}, nil)

	r := newTestReleaser(remote, PollConfig{})
	_, err := r.Release(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, ErrMissingJobResult)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestRelease_ResultPages(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, []string{"a", "b", "c"}).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)
	remote.On("Job", mock.Anything, testJobID, 2, "").
		Return(doneJob(nextPage("r1", released("a", "x")...)), nil).Once()
	remote.On("Job", mock.Anything, testJobID, 2, "r1").
		Return(doneJob(nextPage("r2", released("b", "c")...)), nil).Once()

	r := newTestReleaser(remote, PollConfig{ResultPageSize: 2})
	count, err := r.Release(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	// Every id is accounted for after the second page, r2 is never fetched.
	remote.AssertExpectations(t)
	remote.AssertNumberOfCalls(t, "Job", 2)
}

func TestRelease_ResultBoundedBySubmittedCount(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, []string{"a", "b"}).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)
	remote.On("Job", mock.Anything, testJobID, 2, "").
		Return(doneJob(nextPage("r1", released("b")...)), nil).Once()
	remote.On("Job", mock.Anything, testJobID, 2, "r1").
		Return(doneJob(nextPage("r2", released("unrelated")...)), nil).Once()
	remote.On("Job", mock.Anything, testJobID, 2, mock.Anything).
		Return(doneJob(nextPage("rn", released("unrelated")...)), nil)

	r := newTestReleaser(remote, PollConfig{})
	count, err := r.Release(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	var unmodified *UnmodifiedOrdersError
	require.ErrorAs(t, err, &unmodified)
	assert.Equal(t, []string{"a"}, unmodified.IDs)
	assert.Equal(t, 1, count)
	// Two result nodes were seen for two submitted ids, r2 is never fetched.
	remote.AssertNumberOfCalls(t, "Job", 2)
}

func TestRelease_ResultMissingCursor(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)
	remote.On("Job", mock.Anything, testJobID, 2, "").
		Return(doneJob(nextPage("", released("a")...)), nil)

	r := newTestReleaser(remote, PollConfig{})
	_, err := r.Release(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, ErrMissingCursor)
}

func TestRelease_CancelledWhilePolling(t *testing.T) {
	remote := new(mockRemote)
	remote.On("ReleaseHolds", mock.Anything, mock.Anything, mock.Anything).
		Return(ReleaseResponse{Job: &ReleaseJob{ID: testJobID}}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := newTestReleaser(remote, PollConfig{Interval: time.Minute})
	start := time.Now()
	_, err := r.Release(ctx, []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
	remote.AssertNotCalled(t, "Job", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
