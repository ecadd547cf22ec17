package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
)

type fieldType int

const (
	fieldText fieldType = iota
	fieldTextarea
	fieldInt
	fieldBool
	fieldDepartment
	fieldCategory
)

// refField describes one editable column of a reference kind.
type refField struct {
	Name  string
	Label string
	Type  fieldType
	Rule  string
}

func (f refField) IsText() bool       { return f.Type == fieldText }
func (f refField) IsTextarea() bool   { return f.Type == fieldTextarea }
func (f refField) IsInt() bool        { return f.Type == fieldInt }
func (f refField) IsBool() bool       { return f.Type == fieldBool }
func (f refField) IsDepartment() bool { return f.Type == fieldDepartment }
func (f refField) IsCategory() bool   { return f.Type == fieldCategory }

var (
	sortOrderField = refField{Name: "sort_order", Label: "Sort order", Type: fieldInt, Rule: "gte=0"}
	activeField    = refField{Name: "active", Label: "Active", Type: fieldBool}
	descField      = refField{Name: "description", Label: "Description", Type: fieldTextarea, Rule: "max=500"}
)

// referenceSchemas lists the editable fields per kind in display order. The
// first field is the display name.
var referenceSchemas = map[backend.Kind][]refField{
	backend.KindDepartments: {
		{Name: "department_name", Label: "Name", Rule: "required,max=100"},
		sortOrderField, activeField,
	},
	backend.KindCategories: {
		{Name: "category_name", Label: "Name", Rule: "required,max=100"},
		{Name: "department_id", Label: "Department", Type: fieldDepartment, Rule: "required"},
		sortOrderField, activeField,
	},
	backend.KindItemTypes: {
		{Name: "item_type_name", Label: "Name", Rule: "required,max=100"},
		{Name: "category_id", Label: "Category", Type: fieldCategory, Rule: "required"},
		sortOrderField, activeField,
	},
	backend.KindSizes: {
		{Name: "size_value", Label: "Size", Rule: "required,max=50"},
		{Name: "size_system", Label: "System", Rule: "required,max=50"},
		sortOrderField,
		{Name: "notes", Label: "Notes", Type: fieldTextarea, Rule: "max=500"},
	},
	backend.KindColors: {
		{Name: "color_name", Label: "Name", Rule: "required,max=50"},
		{Name: "color_family", Label: "Family", Rule: "required,max=50"},
		{Name: "hex_code", Label: "Hex code", Rule: "omitempty,hexcolor"},
		sortOrderField,
	},
	backend.KindTags: {
		{Name: "tag_name", Label: "Name", Rule: "required,max=50"},
		{Name: "tag_category", Label: "Category", Rule: "required,max=50"},
		descField, activeField,
	},
	backend.KindConditions: {
		{Name: "condition_name", Label: "Name", Rule: "required,max=50"},
		descField, sortOrderField,
	},
	backend.KindStatuses: {
		{Name: "status_name", Label: "Name", Rule: "required,max=50"},
		descField,
		{Name: "is_available_for_sale", Label: "Available for sale", Type: fieldBool},
		sortOrderField,
	},
	backend.KindLocations: {
		{Name: "location_name", Label: "Name", Rule: "required,max=100"},
		{Name: "location_type", Label: "Type", Rule: "required,max=50"},
		descField, activeField,
	},
}

// referenceRow is one entity prepared for the table and its inline edit form.
type referenceRow struct {
	ID     int64
	Cells  []string
	Values map[string]string
}

func toReferenceRows(kind backend.Kind, rows []backend.Fields, snap *refdata.Snapshot) []referenceRow {
	schema := referenceSchemas[kind]
	out := make([]referenceRow, 0, len(rows))
	for _, row := range rows {
		r := referenceRow{ID: fieldInt64(row[kind.IDField()]), Values: map[string]string{}}
		for _, f := range schema {
			raw := fieldString(row[f.Name])
			r.Values[f.Name] = raw
			r.Cells = append(r.Cells, displayCell(f, raw, snap))
		}
		out = append(out, r)
	}
	return out
}

func displayCell(f refField, raw string, snap *refdata.Snapshot) string {
	switch f.Type {
	case fieldBool:
		if raw == "true" {
			return "Yes"
		}
		return "No"
	case fieldDepartment:
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && snap != nil {
			if name := snap.DepartmentName(id); name != "" {
				return name
			}
		}
	case fieldCategory:
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && snap != nil {
			if name := snap.CategoryName(id); name != "" {
				return name
			}
		}
	}
	return raw
}

// parseReferenceForm validates the submitted fields for kind and builds the
// payload. Empty optional text fields are sent as null.
func parseReferenceForm(v *validator.Validate, kind backend.Kind, form url.Values) (backend.Fields, map[string]string, map[string]string) {
	values := map[string]string{}
	errs := map[string]string{}
	out := backend.Fields{}
	for _, f := range referenceSchemas[kind] {
		raw := strings.TrimSpace(form.Get(f.Name))
		switch f.Type {
		case fieldBool:
			b := formBool(form, f.Name)
			values[f.Name] = strconv.FormatBool(b)
			out[f.Name] = b
			continue
		case fieldInt, fieldDepartment, fieldCategory:
			values[f.Name] = raw
			if raw == "" {
				if strings.Contains(f.Rule, "required") {
					errs[f.Name] = "This field is required."
					continue
				}
				raw = "0"
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs[f.Name] = "Enter a whole number."
				continue
			}
			if f.Rule != "" {
				if err := v.Var(n, f.Rule); err != nil {
					errs[f.Name] = varMessage(err)
					continue
				}
			}
			out[f.Name] = n
			continue
		}
		values[f.Name] = raw
		if f.Rule != "" {
			if err := v.Var(raw, f.Rule); err != nil {
				errs[f.Name] = varMessage(err)
				continue
			}
		}
		if raw == "" {
			out[f.Name] = nil
		} else {
			out[f.Name] = raw
		}
	}
	return out, values, errs
}

func varMessage(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return messageFor(verrs[0])
	}
	return "Invalid value."
}

func fieldInt64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case int64:
		return x
	case int:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}

func fieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
