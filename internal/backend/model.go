package backend

// Department is the top level of the item hierarchy.
type Department struct {
	DepartmentID   int64  `json:"department_id"`
	DepartmentName string `json:"department_name"`
	SortOrder      int    `json:"sort_order"`
	Active         bool   `json:"active"`
}

// Category belongs to exactly one department.
type Category struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	DepartmentID int64  `json:"department_id"`
	SortOrder    int    `json:"sort_order"`
	Active       bool   `json:"active"`
}

// ItemType belongs to exactly one category.
type ItemType struct {
	ItemTypeID   int64  `json:"item_type_id"`
	ItemTypeName string `json:"item_type_name"`
	CategoryID   int64  `json:"category_id"`
	SortOrder    int    `json:"sort_order"`
	Active       bool   `json:"active"`
}

type Size struct {
	SizeID     int64  `json:"size_id"`
	SizeValue  string `json:"size_value"`
	SizeSystem string `json:"size_system"`
	SortOrder  int    `json:"sort_order"`
	Notes      string `json:"notes,omitempty"`
}

type Color struct {
	ColorID     int64  `json:"color_id"`
	ColorName   string `json:"color_name"`
	ColorFamily string `json:"color_family"`
	HexCode     string `json:"hex_code,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

type Tag struct {
	TagID       int64  `json:"tag_id"`
	TagName     string `json:"tag_name"`
	TagCategory string `json:"tag_category"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

type Condition struct {
	ConditionID   int64  `json:"condition_id"`
	ConditionName string `json:"condition_name"`
	Description   string `json:"description,omitempty"`
	SortOrder     int    `json:"sort_order"`
}

// Status is an item lifecycle state such as "Available" or "Sold".
type Status struct {
	StatusID           int64  `json:"status_id"`
	StatusName         string `json:"status_name"`
	Description        string `json:"description,omitempty"`
	IsAvailableForSale bool   `json:"is_available_for_sale"`
	SortOrder          int    `json:"sort_order"`
}

type Location struct {
	LocationID   int64  `json:"location_id"`
	LocationName string `json:"location_name"`
	LocationType string `json:"location_type"`
	Description  string `json:"description,omitempty"`
	Active       bool   `json:"active"`
}

// Photo references an image stored by the backend.
type Photo struct {
	PhotoID      int64     `json:"photo_id"`
	ItemID       int64     `json:"item_id"`
	FilePath     string    `json:"file_path"`
	IsPrimary    bool      `json:"is_primary"`
	SortOrder    int       `json:"sort_order"`
	UploadedDate Timestamp `json:"uploaded_date"`
}

// HistoryEvent is an immutable audit entry on an item.
type HistoryEvent struct {
	HistoryID  int64     `json:"history_id"`
	ItemID     int64     `json:"item_id"`
	Action     string    `json:"action"`
	ActionDate Timestamp `json:"action_date"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// Item is a single inventory piece as returned by the backend. The list
// endpoint embeds resolved reference objects; the detail endpoint adds history.
type Item struct {
	ItemID            int64      `json:"item_id"`
	DepartmentID      int64      `json:"department_id"`
	CategoryID        int64      `json:"category_id"`
	ItemTypeID        int64      `json:"item_type_id"`
	Brand             string     `json:"brand,omitempty"`
	SizeID            int64      `json:"size_id"`
	ColorPrimaryID    int64      `json:"color_primary_id"`
	ColorSecondaryID  *int64     `json:"color_secondary_id,omitempty"`
	Material          string     `json:"material,omitempty"`
	ConditionID       int64      `json:"condition_id"`
	StatusID          int64      `json:"status_id"`
	CurrentLocationID *int64     `json:"current_location_id,omitempty"`
	Price             Price      `json:"price"`
	OriginalPrice     *Price     `json:"original_price,omitempty"`
	OnSale            bool       `json:"on_sale"`
	SalePrice         *Price     `json:"sale_price,omitempty"`
	Description       string     `json:"description"`
	InternalNotes     string     `json:"internal_notes,omitempty"`
	CustomerNotes     string     `json:"customer_notes,omitempty"`
	Season            string     `json:"season,omitempty"`
	DateAdded         Timestamp  `json:"date_added"`
	DateSold          *Timestamp `json:"date_sold,omitempty"`

	Department      *Department `json:"department,omitempty"`
	Category        *Category   `json:"category,omitempty"`
	ItemType        *ItemType   `json:"item_type,omitempty"`
	Size            *Size       `json:"size,omitempty"`
	ColorPrimary    *Color      `json:"color_primary,omitempty"`
	ColorSecondary  *Color      `json:"color_secondary,omitempty"`
	Condition       *Condition  `json:"condition,omitempty"`
	Status          *Status     `json:"status,omitempty"`
	CurrentLocation *Location   `json:"current_location,omitempty"`

	Tags    []Tag          `json:"tags"`
	Photos  []Photo        `json:"photos"`
	History []HistoryEvent `json:"history,omitempty"`
}

// PrimaryPhoto returns the flagged primary photo, falling back to the first.
func (it Item) PrimaryPhoto() *Photo {
	for i := range it.Photos {
		if it.Photos[i].IsPrimary {
			return &it.Photos[i]
		}
	}
	if len(it.Photos) > 0 {
		return &it.Photos[0]
	}
	return nil
}

// TagIDs lists the ids of the attached tags.
func (it Item) TagIDs() []int64 {
	ids := make([]int64, 0, len(it.Tags))
	for _, t := range it.Tags {
		ids = append(ids, t.TagID)
	}
	return ids
}

// HasTag reports whether the tag is attached.
func (it Item) HasTag(id int64) bool {
	for _, t := range it.Tags {
		if t.TagID == id {
			return true
		}
	}
	return false
}

// EffectivePrice is the sale price while the item is on sale, else the price.
func (it Item) EffectivePrice() Price {
	if it.OnSale && it.SalePrice != nil && it.SalePrice.Valid() {
		return *it.SalePrice
	}
	return it.Price
}

// ItemInput is the create/update payload. Optional fields are sent as null
// when nil so an update can clear them.
type ItemInput struct {
	DepartmentID      int64   `json:"department_id"`
	CategoryID        int64   `json:"category_id"`
	ItemTypeID        int64   `json:"item_type_id"`
	Brand             *string `json:"brand"`
	SizeID            int64   `json:"size_id"`
	ColorPrimaryID    int64   `json:"color_primary_id"`
	ColorSecondaryID  *int64  `json:"color_secondary_id"`
	Material          *string `json:"material"`
	ConditionID       int64   `json:"condition_id"`
	StatusID          int64   `json:"status_id"`
	CurrentLocationID *int64  `json:"current_location_id"`
	Price             Price   `json:"price"`
	OriginalPrice     *Price  `json:"original_price"`
	OnSale            bool    `json:"on_sale"`
	SalePrice         *Price  `json:"sale_price"`
	Description       string  `json:"description"`
	InternalNotes     *string `json:"internal_notes"`
	CustomerNotes     *string `json:"customer_notes"`
	Season            *string `json:"season"`
	TagIDs            []int64 `json:"tag_ids"`
}

// ItemList is the paginated envelope of GET /items/.
type ItemList struct {
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// PhotoInput registers an already-stored file against an item.
type PhotoInput struct {
	ItemID    int64  `json:"item_id"`
	FilePath  string `json:"file_path"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

// PhotoPatch changes photo metadata; nil fields are left alone.
type PhotoPatch struct {
	FilePath  *string `json:"file_path,omitempty"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

// Health is the backend liveness answer.
type Health struct {
	Status string `json:"status"`
}
