package backend

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind names one reference collection by its URL segment.
type Kind string

const (
	KindDepartments Kind = "departments"
	KindCategories  Kind = "categories"
	KindItemTypes   Kind = "item-types"
	KindSizes       Kind = "sizes"
	KindColors      Kind = "colors"
	KindTags        Kind = "tags"
	KindConditions  Kind = "conditions"
	KindStatuses    Kind = "item-statuses"
	KindLocations   Kind = "locations"
)

// Kinds lists every reference collection in load order.
var Kinds = []Kind{
	KindDepartments,
	KindCategories,
	KindItemTypes,
	KindSizes,
	KindColors,
	KindTags,
	KindConditions,
	KindStatuses,
	KindLocations,
}

type kindMeta struct {
	listKey string
	idField string
	label   string
}

var kindTable = map[Kind]kindMeta{
	KindDepartments: {listKey: "departments", idField: "department_id", label: "Departments"},
	KindCategories:  {listKey: "categories", idField: "category_id", label: "Categories"},
	KindItemTypes:   {listKey: "item_types", idField: "item_type_id", label: "Item Types"},
	KindSizes:       {listKey: "sizes", idField: "size_id", label: "Sizes"},
	KindColors:      {listKey: "colors", idField: "color_id", label: "Colors"},
	KindTags:        {listKey: "tags", idField: "tag_id", label: "Tags"},
	KindConditions:  {listKey: "conditions", idField: "condition_id", label: "Conditions"},
	KindStatuses:    {listKey: "statuses", idField: "status_id", label: "Statuses"},
	KindLocations:   {listKey: "locations", idField: "location_id", label: "Locations"},
}

// ParseKind validates a URL segment.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindTable[k]; !ok {
		return "", fmt.Errorf("backend: unknown reference kind %q", s)
	}
	return k, nil
}

// Path is the collection path, e.g. "/item-types/".
func (k Kind) Path() string { return "/" + string(k) + "/" }

// ListKey is the envelope field holding the collection.
func (k Kind) ListKey() string { return kindTable[k].listKey }

// IDField is the entity's primary key name.
func (k Kind) IDField() string { return kindTable[k].idField }

// Label is a human-readable plural.
func (k Kind) Label() string { return kindTable[k].label }

func (k Kind) itemPath(id int64) string {
	return fmt.Sprintf("/%s/%d", k, id)
}

// listReference decodes the kind's envelope and normalises a missing array
// to an empty slice.
func listReference[T any](ctx context.Context, c *Client, kind Kind, endpoint string) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	out := []T{}
	if raw, ok := envelope[kind.ListKey()]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("backend: decode %s: %w", kind.ListKey(), err)
		}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func createReference[T any](ctx context.Context, c *Client, kind Kind, in any) (T, error) {
	var out T
	err := c.post(ctx, kind.Path(), in, &out)
	return out, err
}

func updateReference[T any](ctx context.Context, c *Client, kind Kind, id int64, in any) (T, error) {
	var out T
	err := c.patch(ctx, kind.itemPath(id), in, &out)
	return out, err
}

// Fields is an untyped reference payload keyed by backend field name.
type Fields map[string]any

// ListReference fetches any collection as untyped rows.
func (c *Client) ListReference(ctx context.Context, kind Kind) ([]Fields, error) {
	return listReference[Fields](ctx, c, kind, kind.Path())
}

// CreateReference creates an entity of any kind from raw fields.
func (c *Client) CreateReference(ctx context.Context, kind Kind, in Fields) (Fields, error) {
	return createReference[Fields](ctx, c, kind, in)
}

// UpdateReference patches an entity of any kind.
func (c *Client) UpdateReference(ctx context.Context, kind Kind, id int64, in Fields) (Fields, error) {
	return updateReference[Fields](ctx, c, kind, id, in)
}

// DeleteReference deletes an entity of any kind.
func (c *Client) DeleteReference(ctx context.Context, kind Kind, id int64) error {
	return c.del(ctx, kind.itemPath(id))
}

func (c *Client) ListDepartments(ctx context.Context) ([]Department, error) {
	return listReference[Department](ctx, c, KindDepartments, KindDepartments.Path())
}

// ListCategories lists categories, optionally restricted to one department.
func (c *Client) ListCategories(ctx context.Context, departmentID *int64) ([]Category, error) {
	endpoint := KindCategories.Path()
	if departmentID != nil {
		endpoint = fmt.Sprintf("%s?department_id=%d", endpoint, *departmentID)
	}
	return listReference[Category](ctx, c, KindCategories, endpoint)
}

// ListItemTypes lists item types, optionally restricted to one category.
func (c *Client) ListItemTypes(ctx context.Context, categoryID *int64) ([]ItemType, error) {
	endpoint := KindItemTypes.Path()
	if categoryID != nil {
		endpoint = fmt.Sprintf("%s?category_id=%d", endpoint, *categoryID)
	}
	return listReference[ItemType](ctx, c, KindItemTypes, endpoint)
}

func (c *Client) ListSizes(ctx context.Context) ([]Size, error) {
	return listReference[Size](ctx, c, KindSizes, KindSizes.Path())
}

func (c *Client) ListColors(ctx context.Context) ([]Color, error) {
	return listReference[Color](ctx, c, KindColors, KindColors.Path())
}

func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	return listReference[Tag](ctx, c, KindTags, KindTags.Path())
}

func (c *Client) ListConditions(ctx context.Context) ([]Condition, error) {
	return listReference[Condition](ctx, c, KindConditions, KindConditions.Path())
}

func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	return listReference[Status](ctx, c, KindStatuses, KindStatuses.Path())
}

func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	return listReference[Location](ctx, c, KindLocations, KindLocations.Path())
}

func (c *Client) CreateDepartment(ctx context.Context, in Department) (Department, error) {
	return createReference[Department](ctx, c, KindDepartments, in)
}

func (c *Client) UpdateDepartment(ctx context.Context, id int64, in Department) (Department, error) {
	return updateReference[Department](ctx, c, KindDepartments, id, in)
}

func (c *Client) DeleteDepartment(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindDepartments, id)
}

func (c *Client) CreateCategory(ctx context.Context, in Category) (Category, error) {
	return createReference[Category](ctx, c, KindCategories, in)
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in Category) (Category, error) {
	return updateReference[Category](ctx, c, KindCategories, id, in)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindCategories, id)
}

func (c *Client) CreateItemType(ctx context.Context, in ItemType) (ItemType, error) {
	return createReference[ItemType](ctx, c, KindItemTypes, in)
}

func (c *Client) UpdateItemType(ctx context.Context, id int64, in ItemType) (ItemType, error) {
	return updateReference[ItemType](ctx, c, KindItemTypes, id, in)
}

func (c *Client) DeleteItemType(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindItemTypes, id)
}

func (c *Client) CreateSize(ctx context.Context, in Size) (Size, error) {
	return createReference[Size](ctx, c, KindSizes, in)
}

func (c *Client) UpdateSize(ctx context.Context, id int64, in Size) (Size, error) {
	return updateReference[Size](ctx, c, KindSizes, id, in)
}

func (c *Client) DeleteSize(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindSizes, id)
}

func (c *Client) CreateColor(ctx context.Context, in Color) (Color, error) {
	return createReference[Color](ctx, c, KindColors, in)
}

func (c *Client) UpdateColor(ctx context.Context, id int64, in Color) (Color, error) {
	return updateReference[Color](ctx, c, KindColors, id, in)
}

func (c *Client) DeleteColor(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindColors, id)
}

func (c *Client) CreateTag(ctx context.Context, in Tag) (Tag, error) {
	return createReference[Tag](ctx, c, KindTags, in)
}

func (c *Client) UpdateTag(ctx context.Context, id int64, in Tag) (Tag, error) {
	return updateReference[Tag](ctx, c, KindTags, id, in)
}

func (c *Client) DeleteTag(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindTags, id)
}

func (c *Client) CreateCondition(ctx context.Context, in Condition) (Condition, error) {
	return createReference[Condition](ctx, c, KindConditions, in)
}

func (c *Client) UpdateCondition(ctx context.Context, id int64, in Condition) (Condition, error) {
	return updateReference[Condition](ctx, c, KindConditions, id, in)
}

func (c *Client) DeleteCondition(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindConditions, id)
}

func (c *Client) CreateStatus(ctx context.Context, in Status) (Status, error) {
	return createReference[Status](ctx, c, KindStatuses, in)
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, in Status) (Status, error) {
	return updateReference[Status](ctx, c, KindStatuses, id, in)
}

func (c *Client) DeleteStatus(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindStatuses, id)
}

func (c *Client) CreateLocation(ctx context.Context, in Location) (Location, error) {
	return createReference[Location](ctx, c, KindLocations, in)
}

func (c *Client) UpdateLocation(ctx context.Context, id int64, in Location) (Location, error) {
	return updateReference[Location](ctx, c, KindLocations, id, in)
}

func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return c.DeleteReference(ctx, KindLocations, id)
}
