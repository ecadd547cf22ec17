package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thriftstock/thriftstock/internal/backend"
)

type uploadCall struct {
	itemID    int64
	filename  string
	ctype     string
	isPrimary string
	size      int
}

// fakeInventory is an in-memory stand-in for the inventory REST backend.
type fakeInventory struct {
	mu      sync.Mutex
	items   map[int64]backend.Item
	ref     map[backend.Kind][]backend.Fields
	nextID  int64
	uploads []uploadCall
	failing map[backend.Kind]bool
}

func seedPrice(s string) backend.Price {
	p, err := backend.ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func newFakeInventory() *fakeInventory {
	f := &fakeInventory{
		items:   map[int64]backend.Item{},
		nextID:  100,
		failing: map[backend.Kind]bool{},
		ref: map[backend.Kind][]backend.Fields{
			backend.KindDepartments: {
				{"department_id": 1, "department_name": "Womens", "sort_order": 1, "active": true},
				{"department_id": 2, "department_name": "Mens", "sort_order": 2, "active": true},
			},
			backend.KindCategories: {
				{"category_id": 10, "category_name": "Outerwear", "department_id": 1, "sort_order": 1, "active": true},
				{"category_id": 11, "category_name": "Shirts", "department_id": 2, "sort_order": 1, "active": true},
			},
			backend.KindItemTypes: {
				{"item_type_id": 20, "item_type_name": "Trench Coat", "category_id": 10, "sort_order": 1, "active": true},
				{"item_type_id": 21, "item_type_name": "Oxford", "category_id": 11, "sort_order": 1, "active": true},
			},
			backend.KindSizes:      {{"size_id": 30, "size_value": "M", "size_system": "Letter", "sort_order": 1}},
			backend.KindColors:     {{"color_id": 40, "color_name": "Camel", "color_family": "Brown", "sort_order": 1}},
			backend.KindTags:       {{"tag_id": 50, "tag_name": "Vintage", "tag_category": "Style", "active": true}, {"tag_id": 51, "tag_name": "Wool", "tag_category": "Material", "active": true}},
			backend.KindConditions: {{"condition_id": 60, "condition_name": "Excellent", "sort_order": 1}},
			backend.KindStatuses: {
				{"status_id": 5, "status_name": "Available", "is_available_for_sale": true, "sort_order": 1},
				{"status_id": 6, "status_name": "Sold", "is_available_for_sale": false, "sort_order": 2},
			},
			backend.KindLocations: {{"location_id": 70, "location_name": "Back Room", "location_type": "storage", "active": true}},
		},
	}
	added := backend.Timestamp{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	for _, id := range []int64{3, 7, 9} {
		status := int64(5)
		if id == 9 {
			status = 6
		}
		f.items[id] = backend.Item{
			ItemID: id, DepartmentID: 1, CategoryID: 10, ItemTypeID: 20, SizeID: 30,
			ColorPrimaryID: 40, ConditionID: 60, StatusID: status,
			Brand: "Burberry" + strconv.FormatInt(id, 10), Price: seedPrice("19.99"),
			Description: "Classic trench", DateAdded: added,
			Tags: []backend.Tag{}, Photos: []backend.Photo{},
		}
	}
	return f
}

func (f *fakeInventory) server(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/items/", f.listItems)
	r.Post("/items/", f.createItem)
	r.Get("/items/{id}", f.getItem)
	r.Patch("/items/{id}", f.updateItem)
	r.Delete("/items/{id}", f.deleteItem)
	r.Post("/items/bulk/{op}", f.bulk)
	r.Post("/items/{id}/photos/upload", f.upload)
	r.Patch("/items/photos/{photoID}", f.patchPhoto)
	r.Delete("/items/photos/{photoID}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	for _, kind := range backend.Kinds {
		kind := kind
		r.Get(kind.Path(), func(w http.ResponseWriter, r *http.Request) { f.listRef(w, kind) })
		r.Post(kind.Path(), func(w http.ResponseWriter, r *http.Request) { f.createRef(w, r, kind) })
		r.Patch("/"+string(kind)+"/{id}", func(w http.ResponseWriter, r *http.Request) { f.updateRef(w, r, kind) })
		r.Delete("/"+string(kind)+"/{id}", func(w http.ResponseWriter, r *http.Request) { f.deleteRef(w, r, kind) })
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id
}

func (f *fakeInventory) listItems(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := r.URL.Query()
	var out []backend.Item
	for _, it := range f.items {
		if s := q.Get("status_id"); s != "" && strconv.FormatInt(it.StatusID, 10) != s {
			continue
		}
		if s := q.Get("search"); s != "" && !strings.Contains(strings.ToLower(it.Brand), strings.ToLower(s)) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	total := len(out)
	pageSize := 50
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 {
		pageSize = n
	}
	if len(out) > pageSize {
		out = out[:pageSize]
	}
	if out == nil {
		out = []backend.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out, "total": total, "page": 1, "page_size": pageSize,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

func (f *fakeInventory) getItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[pathID(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not found"})
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func decodeInput(r *http.Request) (backend.ItemInput, error) {
	var in backend.ItemInput
	err := json.NewDecoder(r.Body).Decode(&in)
	return in, err
}

func itemFromInput(id int64, in backend.ItemInput) backend.Item {
	it := backend.Item{
		ItemID: id, DepartmentID: in.DepartmentID, CategoryID: in.CategoryID, ItemTypeID: in.ItemTypeID,
		SizeID: in.SizeID, ColorPrimaryID: in.ColorPrimaryID, ColorSecondaryID: in.ColorSecondaryID,
		ConditionID: in.ConditionID, StatusID: in.StatusID, CurrentLocationID: in.CurrentLocationID,
		Price: in.Price, OriginalPrice: in.OriginalPrice, OnSale: in.OnSale, SalePrice: in.SalePrice,
		Description: in.Description, Tags: []backend.Tag{}, Photos: []backend.Photo{},
	}
	if in.Brand != nil {
		it.Brand = *in.Brand
	}
	return it
}

func (f *fakeInventory) createItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	it := itemFromInput(f.nextID, in)
	f.items[it.ItemID] = it
	writeJSON(w, http.StatusCreated, it)
}

func (f *fakeInventory) updateItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r, "id")
	if _, ok := f.items[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not found"})
		return
	}
	it := itemFromInput(id, in)
	f.items[id] = it
	writeJSON(w, http.StatusOK, it)
}

func (f *fakeInventory) deleteItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, pathID(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeInventory) bulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemIDs    []int64 `json:"item_ids"`
		StatusID   int64   `json:"status_id"`
		LocationID int64   `json:"location_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch chi.URLParam(r, "op") {
	case "delete":
		for _, id := range req.ItemIDs {
			delete(f.items, id)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted " + strconv.Itoa(len(req.ItemIDs)) + " items", "deleted_count": len(req.ItemIDs)})
	case "update-status":
		for _, id := range req.ItemIDs {
			it := f.items[id]
			it.StatusID = req.StatusID
			f.items[id] = it
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Updated " + strconv.Itoa(len(req.ItemIDs)) + " items", "updated_count": len(req.ItemIDs)})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"updated_count": len(req.ItemIDs)})
	}
}

func (f *fakeInventory) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "bad multipart", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file missing", http.StatusBadRequest)
		return
	}
	data, _ := io.ReadAll(file)
	_ = file.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	itemID := pathID(r, "id")
	f.uploads = append(f.uploads, uploadCall{
		itemID: itemID, filename: header.Filename, ctype: r.Header.Get("Content-Type"),
		isPrimary: r.FormValue("is_primary"), size: len(data),
	})
	photo := backend.Photo{PhotoID: int64(len(f.uploads)), ItemID: itemID, FilePath: "uploads/" + header.Filename, IsPrimary: r.FormValue("is_primary") == "true"}
	if it, ok := f.items[itemID]; ok {
		it.Photos = append(it.Photos, photo)
		f.items[itemID] = it
	}
	writeJSON(w, http.StatusCreated, photo)
}

func (f *fakeInventory) patchPhoto(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backend.Photo{PhotoID: pathID(r, "photoID"), IsPrimary: true})
}

func (f *fakeInventory) listRef(w http.ResponseWriter, kind backend.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[kind] {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		return
	}
	rows := f.ref[kind]
	if rows == nil {
		rows = []backend.Fields{}
	}
	writeJSON(w, http.StatusOK, map[string]any{kind.ListKey(): rows})
}

func (f *fakeInventory) createRef(w http.ResponseWriter, r *http.Request, kind backend.Kind) {
	var in backend.Fields
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	in[kind.IDField()] = f.nextID
	f.ref[kind] = append(f.ref[kind], in)
	writeJSON(w, http.StatusCreated, in)
}

func (f *fakeInventory) updateRef(w http.ResponseWriter, r *http.Request, kind backend.Kind) {
	var in backend.Fields
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r, "id")
	for i, row := range f.ref[kind] {
		if fieldInt64(row[kind.IDField()]) == id {
			for k, v := range in {
				row[k] = v
			}
			f.ref[kind][i] = row
			writeJSON(w, http.StatusOK, row)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

func (f *fakeInventory) deleteRef(w http.ResponseWriter, r *http.Request, kind backend.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r, "id")
	rows := f.ref[kind][:0]
	for _, row := range f.ref[kind] {
		if fieldInt64(row[kind.IDField()]) != id {
			rows = append(rows, row)
		}
	}
	f.ref[kind] = rows
	w.WriteHeader(http.StatusNoContent)
}
