package web

import (
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/thriftstock/thriftstock/internal/backend"
)

// newValidator reports field errors under the HTML form names and knows
// the non-negative "price" rule.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	return v
}

// fieldErrors maps validation failures to operator facing messages keyed by
// form field name.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["general"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "gt":
		return "This field is required."
	case "price":
		return "Enter an amount of zero or more, like 19.99."
	case "max":
		return "Must be at most " + fe.Param() + " characters."
	case "min":
		return "Select at least " + fe.Param() + "."
	case "oneof":
		return "Choose one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "hexcolor":
		return "Use a hex colour like #1a2b3c."
	default:
		return "Invalid value."
	}
}

// itemForm is the add/edit item form.
type itemForm struct {
	DepartmentID      int64   `form:"department_id" validate:"required"`
	CategoryID        int64   `form:"category_id" validate:"required"`
	ItemTypeID        int64   `form:"item_type_id" validate:"required"`
	SizeID            int64   `form:"size_id" validate:"required"`
	ColorPrimaryID    int64   `form:"color_primary_id" validate:"required"`
	ColorSecondaryID  int64   `form:"color_secondary_id"`
	ConditionID       int64   `form:"condition_id" validate:"required"`
	StatusID          int64   `form:"status_id" validate:"required"`
	CurrentLocationID int64   `form:"current_location_id"`
	Brand             string  `form:"brand" validate:"max=100"`
	Material          string  `form:"material" validate:"max=100"`
	Season            string  `form:"season" validate:"max=50"`
	Description       string  `form:"description" validate:"required,max=2000"`
	InternalNotes     string  `form:"internal_notes" validate:"max=2000"`
	CustomerNotes     string  `form:"customer_notes" validate:"max=2000"`
	Price             string  `form:"price" validate:"required,price"`
	OriginalPrice     string  `form:"original_price" validate:"omitempty,price"`
	OnSale            bool    `form:"on_sale"`
	SalePrice         string  `form:"sale_price" validate:"omitempty,price"`
	TagIDs            []int64 `form:"tag_ids"`
}

func parseItemForm(form url.Values) itemForm {
	return itemForm{
		DepartmentID:      formID(form, "department_id"),
		CategoryID:        formID(form, "category_id"),
		ItemTypeID:        formID(form, "item_type_id"),
		SizeID:            formID(form, "size_id"),
		ColorPrimaryID:    formID(form, "color_primary_id"),
		ColorSecondaryID:  formID(form, "color_secondary_id"),
		ConditionID:       formID(form, "condition_id"),
		StatusID:          formID(form, "status_id"),
		CurrentLocationID: formID(form, "current_location_id"),
		Brand:             strings.TrimSpace(form.Get("brand")),
		Material:          strings.TrimSpace(form.Get("material")),
		Season:            strings.TrimSpace(form.Get("season")),
		Description:       strings.TrimSpace(form.Get("description")),
		InternalNotes:     strings.TrimSpace(form.Get("internal_notes")),
		CustomerNotes:     strings.TrimSpace(form.Get("customer_notes")),
		Price:             strings.TrimSpace(form.Get("price")),
		OriginalPrice:     strings.TrimSpace(form.Get("original_price")),
		OnSale:            formBool(form, "on_sale"),
		SalePrice:         strings.TrimSpace(form.Get("sale_price")),
		TagIDs:            formIDs(form, "tag_ids"),
	}
}

// itemFormFrom seeds the edit form from a fetched item.
func itemFormFrom(it backend.Item) itemForm {
	f := itemForm{
		DepartmentID:   it.DepartmentID,
		CategoryID:     it.CategoryID,
		ItemTypeID:     it.ItemTypeID,
		SizeID:         it.SizeID,
		ColorPrimaryID: it.ColorPrimaryID,
		ConditionID:    it.ConditionID,
		StatusID:       it.StatusID,
		Brand:          it.Brand,
		Material:       it.Material,
		Season:         it.Season,
		Description:    it.Description,
		InternalNotes:  it.InternalNotes,
		CustomerNotes:  it.CustomerNotes,
		Price:          it.Price.String(),
		OnSale:         it.OnSale,
		TagIDs:         it.TagIDs(),
	}
	if it.ColorSecondaryID != nil {
		f.ColorSecondaryID = *it.ColorSecondaryID
	}
	if it.CurrentLocationID != nil {
		f.CurrentLocationID = *it.CurrentLocationID
	}
	if it.OriginalPrice != nil {
		f.OriginalPrice = it.OriginalPrice.String()
	}
	if it.SalePrice != nil {
		f.SalePrice = it.SalePrice.String()
	}
	return f
}

// Input converts a validated form into the backend payload. A sale price
// without on_sale is dropped.
func (f itemForm) Input() (backend.ItemInput, error) {
	price, err := backend.ParsePrice(f.Price)
	if err != nil {
		return backend.ItemInput{}, err
	}
	in := backend.ItemInput{
		DepartmentID:      f.DepartmentID,
		CategoryID:        f.CategoryID,
		ItemTypeID:        f.ItemTypeID,
		Brand:             optionalString(f.Brand),
		SizeID:            f.SizeID,
		ColorPrimaryID:    f.ColorPrimaryID,
		ColorSecondaryID:  nonZero(f.ColorSecondaryID),
		Material:          optionalString(f.Material),
		ConditionID:       f.ConditionID,
		StatusID:          f.StatusID,
		CurrentLocationID: nonZero(f.CurrentLocationID),
		Price:             price,
		OnSale:            f.OnSale,
		Description:       f.Description,
		InternalNotes:     optionalString(f.InternalNotes),
		CustomerNotes:     optionalString(f.CustomerNotes),
		Season:            optionalString(f.Season),
		TagIDs:            f.TagIDs,
	}
	if in.TagIDs == nil {
		in.TagIDs = []int64{}
	}
	if f.OriginalPrice != "" {
		p, err := backend.ParsePrice(f.OriginalPrice)
		if err != nil {
			return backend.ItemInput{}, err
		}
		in.OriginalPrice = &p
	}
	if f.OnSale && f.SalePrice != "" {
		p, err := backend.ParsePrice(f.SalePrice)
		if err != nil {
			return backend.ItemInput{}, err
		}
		in.SalePrice = &p
	}
	return in, nil
}

// bulkForm drives POST /items/bulk.
type bulkForm struct {
	Action     string  `form:"action" validate:"required,oneof=status location price delete"`
	ItemIDs    []int64 `form:"item_ids" validate:"required,min=1,dive,gt=0"`
	StatusID   int64   `form:"status_id" validate:"required_if=Action status"`
	LocationID int64   `form:"location_id" validate:"required_if=Action location"`
	Price      string  `form:"price" validate:"omitempty,price"`
	OnSale     string  `form:"on_sale" validate:"omitempty,oneof=true false"`
	SalePrice  string  `form:"sale_price" validate:"omitempty,price"`
	Notes      string  `form:"notes" validate:"max=500"`
	Confirmed  bool    `form:"confirm"`
}

func parseBulkForm(form url.Values) bulkForm {
	return bulkForm{
		Action:     strings.TrimSpace(form.Get("action")),
		ItemIDs:    formIDs(form, "item_ids"),
		StatusID:   formID(form, "status_id"),
		LocationID: formID(form, "location_id"),
		Price:      strings.TrimSpace(form.Get("price")),
		OnSale:     strings.TrimSpace(form.Get("on_sale")),
		SalePrice:  strings.TrimSpace(form.Get("sale_price")),
		Notes:      strings.TrimSpace(form.Get("notes")),
		Confirmed:  form.Get("confirm") == "yes",
	}
}

// PriceInput sends only the fields the operator filled in.
func (f bulkForm) PriceInput() (backend.BulkPriceInput, error) {
	var in backend.BulkPriceInput
	if f.Price != "" {
		p, err := backend.ParsePrice(f.Price)
		if err != nil {
			return in, err
		}
		in.Price = &p
	}
	if f.OnSale != "" {
		onSale := f.OnSale == "true"
		in.OnSale = &onSale
	}
	if f.SalePrice != "" {
		p, err := backend.ParsePrice(f.SalePrice)
		if err != nil {
			return in, err
		}
		in.SalePrice = &p
	}
	return in, nil
}

// Destructive reports whether the action needs a confirmation step.
func (f bulkForm) Destructive() bool {
	return f.Action == "delete"
}

func formID(form url.Values, key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(form.Get(key)), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func formIDs(form url.Values, key string) []int64 {
	var ids []int64
	seen := map[int64]bool{}
	for _, raw := range form[key] {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		ids = append(ids, n)
	}
	return ids
}

func formBool(form url.Values, key string) bool {
	v := strings.ToLower(strings.TrimSpace(form.Get(key)))
	return v == "on" || v == "true" || v == "1" || v == "yes"
}

func nonZero(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
