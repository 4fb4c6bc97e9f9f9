package eventstore_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcdev12/raceboard/go/clients"
	"github.com/mcdev12/raceboard/go/internal/models"
)

var (
	// ErrStoreUnavailable is returned on transport failures and non-2xx reads.
	ErrStoreUnavailable = errors.New("event store unavailable")
	// ErrMalformedResponse is returned when GET /events is not a JSON array.
	ErrMalformedResponse = errors.New("malformed event store response")
	// ErrDeleteFailed is returned when a delete request does not complete.
	ErrDeleteFailed = errors.New("event delete failed")
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("event not found")
)

type EventStoreClient struct {
	*clients.BaseClient
}

func NewEventStoreClient(baseURL string) *EventStoreClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &EventStoreClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(AcceptHeader, JSONMimeType)

	return client
}

// FetchAll reads every event in store order.
func (c *EventStoreClient) FetchAll(ctx context.Context) ([]models.TimerItem, error) {
	resp, err := c.Get(ctx, EventsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var items []models.TimerItem
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return items, nil
}

// FetchOne reads a single event by id.
func (c *EventStoreClient) FetchOne(ctx context.Context, id string) (*models.TimerItem, error) {
	resp, err := c.Get(ctx, EventsEndpoint+"/"+url.PathEscape(id))
	if err != nil {
		var statusErr *clients.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var item models.TimerItem
	if err := json.Unmarshal(resp.Body, &item); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &item, nil
}

// DeleteOne removes the event matching both name and time exactly. It
// reports false when the store had no such event.
func (c *EventStoreClient) DeleteOne(ctx context.Context, name, time string) (bool, error) {
	query := url.Values{}
	query.Set(NameParam, name)
	query.Set(TimeParam, time)

	resp, err := c.Delete(ctx, EventsEndpoint+"?"+query.Encode())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	return resp.StatusCode == http.StatusOK, nil
}

// DeleteByID removes the event with the given id.
func (c *EventStoreClient) DeleteByID(ctx context.Context, id string) (bool, error) {
	resp, err := c.Delete(ctx, EventsEndpoint+"/"+url.PathEscape(id))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	return resp.StatusCode == http.StatusOK, nil
}
