package unhold

import (
	"context"
	"fmt"

	"github.com/Sternrassler/shopify-unhold/pkg/client"
)

// PageSize is the number of fulfillment orders requested per page.
const PageSize = 250

// Remote is the store side of an unhold run.
type Remote interface {
	// OnHoldPage returns one page of on-hold fulfillment orders starting
	// after the given cursor; an empty cursor returns the first page.
	OnHoldPage(ctx context.Context, after string) (Page, error)

	// ReleaseHolds submits one release for all ids, tagged with externalID.
	ReleaseHolds(ctx context.Context, externalID string, ids []string) (ReleaseResponse, error)

	// Job fetches the job state. Once done, the result holds up to first
	// affected fulfillment orders starting after the given cursor.
	Job(ctx context.Context, id string, first int, after string) (ReleaseJob, error)
}

// Doer executes a GraphQL request. *client.Client implements it.
type Doer interface {
	Do(ctx context.Context, req client.Request, out any) error
}

const onHoldQuery = `query OnHoldFulfillmentOrders($first: Int!, $after: String) {
  fulfillmentOrders(first: $first, after: $after, query: "status:ON_HOLD") {
    nodes {
      id
      orderName
      assignedLocation {
        name
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const releaseHoldsMutation = `mutation ReleaseHolds($ids: [ID!]!, $externalId: String) {
  fulfillmentOrdersReleaseHolds(ids: $ids, externalId: $externalId) {
    job {
      id
      done
    }
    userErrors {
      field
      message
    }
  }
}`

const jobQuery = `query ReleaseHoldsJob($id: ID!, $first: Int!, $after: String) {
  job(id: $id) {
    id
    done
    query {
      fulfillmentOrders(first: $first, after: $after, sortKey: UPDATED_AT, reverse: true, query: "status:OPEN") {
        nodes {
          id
          orderName
          assignedLocation {
            name
          }
        }
        pageInfo {
          hasNextPage
          endCursor
        }
      }
    }
  }
}`

// Operation names sent with each request; they label the client metrics.
const (
	OperationOnHold       = "OnHoldFulfillmentOrders"
	OperationReleaseHolds = "ReleaseHolds"
	OperationJob          = "ReleaseHoldsJob"
)

type fulfillmentOrderNode struct {
	ID               string `json:"id"`
	OrderName        string `json:"orderName"`
	AssignedLocation *struct {
		Name string `json:"name"`
	} `json:"assignedLocation"`
}

type fulfillmentOrderConnection struct {
	Nodes    []fulfillmentOrderNode `json:"nodes"`
	PageInfo struct {
		HasNextPage bool    `json:"hasNextPage"`
		EndCursor   *string `json:"endCursor"`
	} `json:"pageInfo"`
}

func (c fulfillmentOrderConnection) page() Page {
	page := Page{
		Nodes:    make([]RemoteOrder, 0, len(c.Nodes)),
		PageInfo: PageInfo{HasNextPage: c.PageInfo.HasNextPage},
	}
	if c.PageInfo.EndCursor != nil {
		page.PageInfo.EndCursor = *c.PageInfo.EndCursor
	}
	for _, node := range c.Nodes {
		order := RemoteOrder{ID: node.ID, DisplayName: node.OrderName}
		if node.AssignedLocation != nil {
			order.LocationName = node.AssignedLocation.Name
		}
		page.Nodes = append(page.Nodes, order)
	}
	return page
}

type jobNode struct {
	ID    string `json:"id"`
	Done  bool   `json:"done"`
	Query *struct {
		FulfillmentOrders *fulfillmentOrderConnection `json:"fulfillmentOrders"`
	} `json:"query"`
}

func (j jobNode) job() ReleaseJob {
	job := ReleaseJob{ID: j.ID, Done: j.Done}
	if j.Query != nil && j.Query.FulfillmentOrders != nil {
		result := j.Query.FulfillmentOrders.page()
		job.Result = &result
	}
	return job
}

// ShopifyRemote implements Remote on the Shopify Admin GraphQL API.
type ShopifyRemote struct {
	doer Doer
}

// NewShopifyRemote creates a remote that sends its requests through doer.
func NewShopifyRemote(doer Doer) *ShopifyRemote {
	return &ShopifyRemote{doer: doer}
}

// OnHoldPage implements Remote.
func (r *ShopifyRemote) OnHoldPage(ctx context.Context, after string) (Page, error) {
	var out struct {
		FulfillmentOrders *fulfillmentOrderConnection `json:"fulfillmentOrders"`
	}
	req := client.Request{
		Query:         onHoldQuery,
		OperationName: OperationOnHold,
		Variables: map[string]any{
			"first": PageSize,
			"after": cursorVariable(after),
		},
	}
	if err := r.doer.Do(ctx, req, &out); err != nil {
		return Page{}, err
	}
	if out.FulfillmentOrders == nil {
		return Page{}, fmt.Errorf("%s: response has no fulfillmentOrders", OperationOnHold)
	}
	return out.FulfillmentOrders.page(), nil
}

// ReleaseHolds implements Remote.
func (r *ShopifyRemote) ReleaseHolds(ctx context.Context, externalID string, ids []string) (ReleaseResponse, error) {
	var out struct {
		Payload *struct {
			Job        *jobNode `json:"job"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"fulfillmentOrdersReleaseHolds"`
	}
	req := client.Request{
		Query:         releaseHoldsMutation,
		OperationName: OperationReleaseHolds,
		Variables: map[string]any{
			"ids":        ids,
			"externalId": externalID,
		},
	}
	if err := r.doer.Do(ctx, req, &out); err != nil {
		return ReleaseResponse{}, err
	}
	if out.Payload == nil {
		return ReleaseResponse{}, fmt.Errorf("%s: response has no payload", OperationReleaseHolds)
	}

	var resp ReleaseResponse
	for _, ue := range out.Payload.UserErrors {
		resp.UserErrors = append(resp.UserErrors, UserError{Field: ue.Field, Message: ue.Message})
	}
	if out.Payload.Job != nil {
		job := out.Payload.Job.job()
		resp.Job = &job
	}
	return resp, nil
}

// Job implements Remote.
func (r *ShopifyRemote) Job(ctx context.Context, id string, first int, after string) (ReleaseJob, error) {
	var out struct {
		Job *jobNode `json:"job"`
	}
	req := client.Request{
		Query:         jobQuery,
		OperationName: OperationJob,
		Variables: map[string]any{
			"id":    id,
			"first": first,
			"after": cursorVariable(after),
		},
	}
	if err := r.doer.Do(ctx, req, &out); err != nil {
		return ReleaseJob{}, err
	}
	if out.Job == nil {
		return ReleaseJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return out.Job.job(), nil
}

// cursorVariable maps the empty cursor to a GraphQL null.
func cursorVariable(after string) any {
	if after == "" {
		return nil
	}
	return after
}
