package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
)

// filterKeys are the query parameters the list page understands. Anything
// else in the query string is ignored so stray parameters never reach the
// backend.
var filterKeys = []string{
	"page", "page_size", "search", "department_id", "category_id", "item_type_id",
	"status_id", "condition_id", "location_id", "size_id", "color_primary_id",
	"brand", "season", "on_sale", "min_price", "max_price", "tag_ids", "sort_by", "sort_order",
}

var sortColumns = map[string]bool{
	"date_added": true, "price": true, "brand": true, "item_id": true,
}

// parseFilters reads the list filters from a query string. Blank and
// malformed values are treated as unset.
func parseFilters(q url.Values) backend.ItemFilters {
	var f backend.ItemFilters
	f.Page = positiveInt(q.Get("page"))
	f.PageSize = positiveInt(q.Get("page_size"))
	f.Search = strings.TrimSpace(q.Get("search"))
	f.DepartmentID = optionalID(q.Get("department_id"))
	f.CategoryID = optionalID(q.Get("category_id"))
	f.ItemTypeID = optionalID(q.Get("item_type_id"))
	f.StatusID = optionalID(q.Get("status_id"))
	f.ConditionID = optionalID(q.Get("condition_id"))
	f.LocationID = optionalID(q.Get("location_id"))
	f.SizeID = optionalID(q.Get("size_id"))
	f.ColorPrimaryID = optionalID(q.Get("color_primary_id"))
	f.Brand = strings.TrimSpace(q.Get("brand"))
	f.Season = strings.TrimSpace(q.Get("season"))
	if v, err := strconv.ParseBool(q.Get("on_sale")); err == nil {
		f.OnSale = &v
	}
	f.MinPrice = optionalDecimal(q.Get("min_price"))
	f.MaxPrice = optionalDecimal(q.Get("max_price"))
	for _, raw := range q["tag_ids"] {
		if id := optionalID(raw); id != nil {
			f.TagIDs = append(f.TagIDs, *id)
		}
	}
	if sortColumns[q.Get("sort_by")] {
		f.SortBy = q.Get("sort_by")
		if order := q.Get("sort_order"); order == "asc" || order == "desc" {
			f.SortOrder = order
		}
	}
	return f
}

// pruneCascade drops a category that is not under the chosen department and
// an item type that is not under the chosen category. This happens when the
// operator changes a parent select without clearing its children.
func pruneCascade(f backend.ItemFilters, snap *refdata.Snapshot) backend.ItemFilters {
	if snap == nil {
		return f
	}
	if f.DepartmentID != nil && f.CategoryID != nil && !containsCategory(snap.CategoriesByDepartment(*f.DepartmentID), *f.CategoryID) {
		f.CategoryID = nil
	}
	if f.CategoryID != nil && f.ItemTypeID != nil && !containsItemType(snap.ItemTypesByCategory(*f.CategoryID), *f.ItemTypeID) {
		f.ItemTypeID = nil
	}
	return f
}

func containsCategory(rows []backend.Category, id int64) bool {
	for _, c := range rows {
		if c.CategoryID == id {
			return true
		}
	}
	return false
}

func containsItemType(rows []backend.ItemType, id int64) bool {
	for _, t := range rows {
		if t.ItemTypeID == id {
			return true
		}
	}
	return false
}

// filterQuery keeps only the list parameters of q.
func filterQuery(q url.Values) url.Values {
	out := url.Values{}
	for _, key := range filterKeys {
		for _, v := range q[key] {
			if strings.TrimSpace(v) != "" {
				out.Add(key, v)
			}
		}
	}
	return out
}

func positiveInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func optionalID(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func optionalDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
