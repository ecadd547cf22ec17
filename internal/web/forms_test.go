package web

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
)

func testSnapshot() *refdata.Snapshot {
	return &refdata.Snapshot{
		Departments: []backend.Department{{DepartmentID: 1, DepartmentName: "Womens"}, {DepartmentID: 2, DepartmentName: "Mens"}},
		Categories: []backend.Category{
			{CategoryID: 10, CategoryName: "Outerwear", DepartmentID: 1},
			{CategoryID: 11, CategoryName: "Shirts", DepartmentID: 2},
		},
		ItemTypes: []backend.ItemType{
			{ItemTypeID: 20, ItemTypeName: "Trench Coat", CategoryID: 10},
			{ItemTypeID: 21, ItemTypeName: "Oxford", CategoryID: 11},
		},
		Tags: []backend.Tag{
			{TagID: 1, TagName: "Vintage", TagCategory: "Style"},
			{TagID: 2, TagName: "Wool", TagCategory: "Material"},
			{TagID: 3, TagName: "Boho", TagCategory: "Style"},
			{TagID: 4, TagName: "Misc"},
		},
	}
}

func TestParseFilters(t *testing.T) {
	q := url.Values{
		"page":        {"2"},
		"page_size":   {"-5"},
		"search":      {"  trench "},
		"status_id":   {"5"},
		"size_id":     {"abc"},
		"on_sale":     {"true"},
		"min_price":   {"10.50"},
		"max_price":   {"-1"},
		"tag_ids":     {"3", "x", "4"},
		"sort_by":     {"price"},
		"sort_order":  {"asc"},
		"category_id": {""},
	}
	f := parseFilters(q)

	require.NotNil(t, f.Page)
	assert.Equal(t, 2, *f.Page)
	assert.Nil(t, f.PageSize)
	assert.Equal(t, "trench", f.Search)
	require.NotNil(t, f.StatusID)
	assert.Equal(t, int64(5), *f.StatusID)
	assert.Nil(t, f.SizeID)
	assert.Nil(t, f.CategoryID)
	require.NotNil(t, f.OnSale)
	assert.True(t, *f.OnSale)
	require.NotNil(t, f.MinPrice)
	assert.Equal(t, "10.5", f.MinPrice.String())
	assert.Nil(t, f.MaxPrice)
	assert.Equal(t, []int64{3, 4}, f.TagIDs)
	assert.Equal(t, "price", f.SortBy)
	assert.Equal(t, "asc", f.SortOrder)
}

func TestParseFiltersIgnoresUnknownSort(t *testing.T) {
	f := parseFilters(url.Values{"sort_by": {"internal_notes"}, "sort_order": {"asc"}})
	assert.Empty(t, f.SortBy)
	assert.Empty(t, f.SortOrder)
}

func TestFilterQueryDropsStrayParams(t *testing.T) {
	q := filterQuery(url.Values{"status_id": {"5"}, "search": {" "}, "csrf_token": {"abc"}, "tag_ids": {"1", "2"}})
	assert.Equal(t, url.Values{"status_id": {"5"}, "tag_ids": {"1", "2"}}, q)
}

func TestPruneCascade(t *testing.T) {
	snap := testSnapshot()
	id := func(n int64) *int64 { return &n }

	f := pruneCascade(backend.ItemFilters{DepartmentID: id(2), CategoryID: id(10), ItemTypeID: id(20)}, snap)
	assert.Nil(t, f.CategoryID, "category 10 belongs to department 1")
	require.NotNil(t, f.ItemTypeID, "item type is kept once its category is gone")

	f = pruneCascade(backend.ItemFilters{DepartmentID: id(1), CategoryID: id(10), ItemTypeID: id(21)}, snap)
	require.NotNil(t, f.CategoryID)
	assert.Nil(t, f.ItemTypeID)

	f = pruneCascade(backend.ItemFilters{DepartmentID: id(1), CategoryID: id(10), ItemTypeID: id(20)}, snap)
	assert.NotNil(t, f.CategoryID)
	assert.NotNil(t, f.ItemTypeID)
}

func TestItemFormInputDropsSalePriceWhenNotOnSale(t *testing.T) {
	form := parseItemForm(url.Values{
		"department_id": {"1"}, "category_id": {"10"}, "item_type_id": {"20"},
		"size_id": {"30"}, "color_primary_id": {"40"}, "condition_id": {"60"}, "status_id": {"5"},
		"description": {"Trench"}, "price": {"45"}, "sale_price": {"30"}, "brand": {"  "},
	})
	require.NoError(t, newValidator().Struct(form))

	in, err := form.Input()
	require.NoError(t, err)
	assert.Nil(t, in.SalePrice)
	assert.Nil(t, in.Brand)
	assert.Nil(t, in.ColorSecondaryID)
	assert.NotNil(t, in.TagIDs)
	assert.Empty(t, in.TagIDs)
	assert.Equal(t, "45", in.Price.String())

	form.OnSale = true
	in, err = form.Input()
	require.NoError(t, err)
	require.NotNil(t, in.SalePrice)
	assert.Equal(t, "30", in.SalePrice.String())
}

func TestItemFormValidationKeys(t *testing.T) {
	form := parseItemForm(url.Values{"price": {"abc"}, "original_price": {"-2"}})
	errs := fieldErrors(newValidator().Struct(form))

	assert.Equal(t, "This field is required.", errs["department_id"])
	assert.Equal(t, "This field is required.", errs["description"])
	assert.Equal(t, "Enter an amount of zero or more, like 19.99.", errs["price"])
	assert.Equal(t, "Enter an amount of zero or more, like 19.99.", errs["original_price"])
	assert.NotContains(t, errs, "brand")
}

func TestBulkForm(t *testing.T) {
	v := newValidator()

	form := parseBulkForm(url.Values{"action": {"status"}, "item_ids": {"3", "3", "7"}})
	errs := fieldErrors(v.Struct(form))
	assert.Equal(t, []int64{3, 7}, form.ItemIDs)
	assert.Contains(t, errs, "status_id")

	form = parseBulkForm(url.Values{"action": {"price"}, "item_ids": {"3"}, "on_sale": {"false"}})
	require.NoError(t, v.Struct(form))
	in, err := form.PriceInput()
	require.NoError(t, err)
	assert.Nil(t, in.Price)
	assert.Nil(t, in.SalePrice)
	require.NotNil(t, in.OnSale)
	assert.False(t, *in.OnSale)

	form = parseBulkForm(url.Values{"action": {"explode"}, "item_ids": {"3"}})
	assert.Contains(t, fieldErrors(v.Struct(form)), "action")

	form = parseBulkForm(url.Values{"action": {"delete"}, "item_ids": {"3"}, "confirm": {"yes"}})
	assert.True(t, form.Destructive())
	assert.True(t, form.Confirmed)
}

func TestHiddenFields(t *testing.T) {
	fields := hiddenFields(url.Values{
		"item_ids":   {"3", "7"},
		"action":     {"delete"},
		"csrf_token": {"secret"},
		"confirm":    {"yes"},
	})
	assert.Equal(t, []hiddenField{
		{Name: "action", Value: "delete"},
		{Name: "item_ids", Value: "3"},
		{Name: "item_ids", Value: "7"},
	}, fields)
}

func TestGroupTags(t *testing.T) {
	groups := groupTags(testSnapshot())
	require.Len(t, groups, 3)
	assert.Equal(t, "Material", groups[0].Category)
	assert.Equal(t, "Other", groups[1].Category)
	assert.Equal(t, "Style", groups[2].Category)
	require.Len(t, groups[2].Tags, 2)
	assert.Equal(t, "Vintage", groups[2].Tags[0].TagName)
	assert.Equal(t, "Boho", groups[2].Tags[1].TagName)
}

func TestParseReferenceForm(t *testing.T) {
	v := newValidator()

	payload, values, errs := parseReferenceForm(v, backend.KindCategories, url.Values{
		"category_name": {"Knitwear"},
		"department_id": {"1"},
		"sort_order":    {""},
	})
	assert.Empty(t, errs)
	assert.Equal(t, "Knitwear", payload["category_name"])
	assert.Equal(t, int64(1), payload["department_id"])
	assert.Equal(t, int64(0), payload["sort_order"])
	assert.Equal(t, false, payload["active"])
	assert.Equal(t, "1", values["department_id"])

	_, _, errs = parseReferenceForm(v, backend.KindColors, url.Values{
		"color_name":   {"Teal"},
		"color_family": {"Blue"},
		"hex_code":     {"teal"},
	})
	assert.Equal(t, "Use a hex colour like #1a2b3c.", errs["hex_code"])

	payload, _, errs = parseReferenceForm(v, backend.KindTags, url.Values{"tag_name": {"Linen"}, "tag_category": {"Material"}})
	assert.Empty(t, errs)
	assert.Nil(t, payload["description"])

	_, _, errs = parseReferenceForm(v, backend.KindItemTypes, url.Values{"item_type_name": {"Parka"}})
	assert.Equal(t, "This field is required.", errs["category_id"])
}

func TestToReferenceRowsResolvesParents(t *testing.T) {
	store := refdata.NewStore(backend.NewClient(newFakeInventory().server(t).URL))
	require.NoError(t, store.Ensure(context.Background()))

	rows := toReferenceRows(backend.KindCategories, []backend.Fields{
		{"category_id": float64(10), "category_name": "Outerwear", "department_id": float64(1), "sort_order": float64(1), "active": true},
	}, store.Snapshot())
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].ID)
	assert.Equal(t, []string{"Outerwear", "Womens", "1", "Yes"}, rows[0].Cells)
}
