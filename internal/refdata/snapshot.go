package refdata

import (
	"time"

	"github.com/thriftstock/thriftstock/internal/backend"
)

// Snapshot is one complete, immutable load of every reference collection.
type Snapshot struct {
	Departments []backend.Department
	Categories  []backend.Category
	ItemTypes   []backend.ItemType
	Sizes       []backend.Size
	Colors      []backend.Color
	Tags        []backend.Tag
	Conditions  []backend.Condition
	Statuses    []backend.Status
	Locations   []backend.Location
	LoadedAt    time.Time

	departmentNames map[int64]string
	categoryNames   map[int64]string
	itemTypeNames   map[int64]string
	sizeNames       map[int64]string
	sizeSystems     map[int64]string
	colorNames      map[int64]string
	conditionNames  map[int64]string
	statusNames     map[int64]string
	locationNames   map[int64]string
	tagNames        map[int64]string
}

func emptySnapshot() *Snapshot {
	s := &Snapshot{}
	s.normalise()
	s.index()
	return s
}

func (s *Snapshot) normalise() {
	if s.Departments == nil {
		s.Departments = []backend.Department{}
	}
	if s.Categories == nil {
		s.Categories = []backend.Category{}
	}
	if s.ItemTypes == nil {
		s.ItemTypes = []backend.ItemType{}
	}
	if s.Sizes == nil {
		s.Sizes = []backend.Size{}
	}
	if s.Colors == nil {
		s.Colors = []backend.Color{}
	}
	if s.Tags == nil {
		s.Tags = []backend.Tag{}
	}
	if s.Conditions == nil {
		s.Conditions = []backend.Condition{}
	}
	if s.Statuses == nil {
		s.Statuses = []backend.Status{}
	}
	if s.Locations == nil {
		s.Locations = []backend.Location{}
	}
}

// index builds the id lookups. The first entry wins on duplicate ids.
func (s *Snapshot) index() {
	s.departmentNames = indexBy(s.Departments, func(d backend.Department) (int64, string) { return d.DepartmentID, d.DepartmentName })
	s.categoryNames = indexBy(s.Categories, func(c backend.Category) (int64, string) { return c.CategoryID, c.CategoryName })
	s.itemTypeNames = indexBy(s.ItemTypes, func(t backend.ItemType) (int64, string) { return t.ItemTypeID, t.ItemTypeName })
	s.sizeNames = indexBy(s.Sizes, func(z backend.Size) (int64, string) { return z.SizeID, z.SizeValue })
	s.sizeSystems = indexBy(s.Sizes, func(z backend.Size) (int64, string) { return z.SizeID, z.SizeSystem })
	s.colorNames = indexBy(s.Colors, func(c backend.Color) (int64, string) { return c.ColorID, c.ColorName })
	s.conditionNames = indexBy(s.Conditions, func(c backend.Condition) (int64, string) { return c.ConditionID, c.ConditionName })
	s.statusNames = indexBy(s.Statuses, func(st backend.Status) (int64, string) { return st.StatusID, st.StatusName })
	s.locationNames = indexBy(s.Locations, func(l backend.Location) (int64, string) { return l.LocationID, l.LocationName })
	s.tagNames = indexBy(s.Tags, func(t backend.Tag) (int64, string) { return t.TagID, t.TagName })
}

func indexBy[T any](rows []T, key func(T) (int64, string)) map[int64]string {
	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		id, name := key(row)
		if _, seen := out[id]; !seen {
			out[id] = name
		}
	}
	return out
}

func (s *Snapshot) DepartmentName(id int64) string { return s.departmentNames[id] }
func (s *Snapshot) CategoryName(id int64) string   { return s.categoryNames[id] }
func (s *Snapshot) ItemTypeName(id int64) string   { return s.itemTypeNames[id] }
func (s *Snapshot) SizeName(id int64) string       { return s.sizeNames[id] }
func (s *Snapshot) SizeSystem(id int64) string     { return s.sizeSystems[id] }
func (s *Snapshot) ColorName(id int64) string      { return s.colorNames[id] }
func (s *Snapshot) ConditionName(id int64) string  { return s.conditionNames[id] }
func (s *Snapshot) StatusName(id int64) string     { return s.statusNames[id] }
func (s *Snapshot) LocationName(id int64) string   { return s.locationNames[id] }
func (s *Snapshot) TagName(id int64) string        { return s.tagNames[id] }

// CategoriesByDepartment keeps load order. Unknown departments give an empty slice.
func (s *Snapshot) CategoriesByDepartment(departmentID int64) []backend.Category {
	out := []backend.Category{}
	for _, c := range s.Categories {
		if c.DepartmentID == departmentID {
			out = append(out, c)
		}
	}
	return out
}

// ItemTypesByCategory keeps load order. Unknown categories give an empty slice.
func (s *Snapshot) ItemTypesByCategory(categoryID int64) []backend.ItemType {
	out := []backend.ItemType{}
	for _, t := range s.ItemTypes {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out
}

// Counts reports collection sizes keyed by reference kind.
func (s *Snapshot) Counts() map[backend.Kind]int {
	return map[backend.Kind]int{
		backend.KindDepartments: len(s.Departments),
		backend.KindCategories:  len(s.Categories),
		backend.KindItemTypes:   len(s.ItemTypes),
		backend.KindSizes:       len(s.Sizes),
		backend.KindColors:      len(s.Colors),
		backend.KindTags:        len(s.Tags),
		backend.KindConditions:  len(s.Conditions),
		backend.KindStatuses:    len(s.Statuses),
		backend.KindLocations:   len(s.Locations),
	}
}
