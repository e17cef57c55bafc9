package unhold

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) OnHoldPage(ctx context.Context, after string) (Page, error) {
	args := m.Called(ctx, after)
	return args.Get(0).(Page), args.Error(1)
}

func (m *mockRemote) ReleaseHolds(ctx context.Context, externalID string, ids []string) (ReleaseResponse, error) {
	args := m.Called(ctx, externalID, ids)
	return args.Get(0).(ReleaseResponse), args.Error(1)
}

func (m *mockRemote) Job(ctx context.Context, id string, first int, after string) (ReleaseJob, error) {
	args := m.Called(ctx, id, first, after)
	return args.Get(0).(ReleaseJob), args.Error(1)
}

func order(id, name, location string) RemoteOrder {
	return RemoteOrder{ID: id, DisplayName: name, LocationName: location}
}

func lastPage(nodes ...RemoteOrder) Page {
	return Page{Nodes: nodes}
}

func nextPage(cursor string, nodes ...RemoteOrder) Page {
	return Page{Nodes: nodes, PageInfo: PageInfo{HasNextPage: true, EndCursor: cursor}}
}
