package backend

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// ItemFilters is the query record for GET /items/. Nil pointers, empty
// strings and nil slices are unset and never sent.
type ItemFilters struct {
	Page           *int
	PageSize       *int
	Search         string
	DepartmentID   *int64
	CategoryID     *int64
	ItemTypeID     *int64
	StatusID       *int64
	ConditionID    *int64
	LocationID     *int64
	SizeID         *int64
	ColorPrimaryID *int64
	Brand          string
	Season         string
	OnSale         *bool
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	TagIDs         []int64
	SortBy         string
	SortOrder      string
}

// Values encodes the set options. Tag ids become repeated tag_ids values in
// the order given.
func (f ItemFilters) Values() url.Values {
	v := url.Values{}
	setInt := func(key string, p *int) {
		if p != nil {
			v.Set(key, strconv.Itoa(*p))
		}
	}
	setID := func(key string, p *int64) {
		if p != nil {
			v.Set(key, strconv.FormatInt(*p, 10))
		}
	}
	setString := func(key, s string) {
		if s != "" {
			v.Set(key, s)
		}
	}
	setDecimal := func(key string, d *decimal.Decimal) {
		if d != nil {
			v.Set(key, d.String())
		}
	}

	setInt("page", f.Page)
	setInt("page_size", f.PageSize)
	setString("search", f.Search)
	setID("department_id", f.DepartmentID)
	setID("category_id", f.CategoryID)
	setID("item_type_id", f.ItemTypeID)
	setID("status_id", f.StatusID)
	setID("condition_id", f.ConditionID)
	setID("location_id", f.LocationID)
	setID("size_id", f.SizeID)
	setID("color_primary_id", f.ColorPrimaryID)
	setString("brand", f.Brand)
	setString("season", f.Season)
	if f.OnSale != nil {
		v.Set("on_sale", strconv.FormatBool(*f.OnSale))
	}
	setDecimal("min_price", f.MinPrice)
	setDecimal("max_price", f.MaxPrice)
	for _, id := range f.TagIDs {
		v.Add("tag_ids", strconv.FormatInt(id, 10))
	}
	setString("sort_by", f.SortBy)
	setString("sort_order", f.SortOrder)
	return v
}

// Key is the canonical serialisation. Two filter records with equal keys
// describe the same request.
func (f ItemFilters) Key() string {
	return f.Values().Encode()
}

// Endpoint returns the list path with its query string, if any.
func (f ItemFilters) Endpoint() string {
	if q := f.Key(); q != "" {
		return "/items/?" + q
	}
	return "/items/"
}
