package backend

import (
	"context"
	"fmt"
)

// ListItems fetches one page of items matching filters.
func (c *Client) ListItems(ctx context.Context, filters ItemFilters) (ItemList, error) {
	var list ItemList
	if err := c.get(ctx, filters.Endpoint(), &list); err != nil {
		return ItemList{}, err
	}
	return list, nil
}

// GetItem fetches one item with photos, tags and history.
func (c *Client) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	if err := c.get(ctx, fmt.Sprintf("/items/%d", id), &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// CreateItem creates an item and returns it with relations resolved.
func (c *Client) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	var item Item
	if err := c.post(ctx, "/items/", in, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateItem sends the full payload as a PATCH.
func (c *Client) UpdateItem(ctx context.Context, id int64, in ItemInput) (Item, error) {
	var item Item
	if err := c.patch(ctx, fmt.Sprintf("/items/%d", id), in, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// DeleteItem removes an item. The backend answers 204.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.del(ctx, fmt.Sprintf("/items/%d", id))
}

// ItemHistory lists an item's history events, newest first.
func (c *Client) ItemHistory(ctx context.Context, id int64) ([]HistoryEvent, error) {
	var events []HistoryEvent
	if err := c.get(ctx, fmt.Sprintf("/items/%d/history", id), &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []HistoryEvent{}
	}
	return events, nil
}

// Health calls the backend liveness probe.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return Health{}, err
	}
	return h, nil
}
