package backend

import "context"

// BulkResult is the backend's summary of a bulk operation.
type BulkResult struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	DeletedCount int    `json:"deleted_count"`
}

// BulkPriceInput changes pricing on many items. Nil fields are sent as null,
// which the backend treats as leave unchanged.
type BulkPriceInput struct {
	Price     *Price `json:"price"`
	OnSale    *bool  `json:"on_sale"`
	SalePrice *Price `json:"sale_price"`
}

type bulkStatusRequest struct {
	ItemIDs  []int64 `json:"item_ids"`
	StatusID int64   `json:"status_id"`
	Notes    *string `json:"notes"`
}

type bulkLocationRequest struct {
	ItemIDs    []int64 `json:"item_ids"`
	LocationID int64   `json:"location_id"`
	Notes      *string `json:"notes"`
}

type bulkPriceRequest struct {
	ItemIDs []int64 `json:"item_ids"`
	BulkPriceInput
}

type bulkDeleteRequest struct {
	ItemIDs []int64 `json:"item_ids"`
	Reason  *string `json:"reason"`
}

// BulkUpdateStatus moves every listed item to statusID.
func (c *Client) BulkUpdateStatus(ctx context.Context, itemIDs []int64, statusID int64, notes *string) (BulkResult, error) {
	var res BulkResult
	err := c.post(ctx, "/items/bulk/update-status", bulkStatusRequest{ItemIDs: nonNilIDs(itemIDs), StatusID: statusID, Notes: notes}, &res)
	return res, err
}

// BulkUpdateLocation moves every listed item to locationID.
func (c *Client) BulkUpdateLocation(ctx context.Context, itemIDs []int64, locationID int64, notes *string) (BulkResult, error) {
	var res BulkResult
	err := c.post(ctx, "/items/bulk/update-location", bulkLocationRequest{ItemIDs: nonNilIDs(itemIDs), LocationID: locationID, Notes: notes}, &res)
	return res, err
}

// BulkUpdatePrice applies the provided pricing fields to every listed item.
func (c *Client) BulkUpdatePrice(ctx context.Context, itemIDs []int64, in BulkPriceInput) (BulkResult, error) {
	var res BulkResult
	err := c.post(ctx, "/items/bulk/update-price", bulkPriceRequest{ItemIDs: nonNilIDs(itemIDs), BulkPriceInput: in}, &res)
	return res, err
}

// BulkDelete deletes every listed item.
func (c *Client) BulkDelete(ctx context.Context, itemIDs []int64, reason *string) (BulkResult, error) {
	var res BulkResult
	err := c.post(ctx, "/items/bulk/delete", bulkDeleteRequest{ItemIDs: nonNilIDs(itemIDs), Reason: reason}, &res)
	return res, err
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
