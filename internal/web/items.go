package web

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/items"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/internal/shared"
	"github.com/thriftstock/thriftstock/internal/view"
)

// maxMemory bounds the in-memory part of a multipart form; larger files
// spill to disk.
const maxMemory = 32 << 20

type listPageData struct {
	State        items.ListState
	Query        url.Values
	Pagination   shared.Pagination
	Pages        []int
	Categories   []backend.Category
	ItemTypes    []backend.ItemType
	SelectedTags []int64
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	raw := r.URL.Query()

	if raw.Get("reset") != "" {
		if sess != nil {
			sess.ClearLastFilters()
		}
		http.Redirect(w, r, "/items", http.StatusSeeOther)
		return
	}
	query := filterQuery(raw)
	if len(query) == 0 && sess != nil {
		if saved := sess.LastFilters(); len(saved) > 0 {
			http.Redirect(w, r, "/items?"+saved.Encode(), http.StatusSeeOther)
			return
		}
	}

	snap, err := h.snapshot(ctx)
	if err != nil {
		h.loadFailed(w, r, "Inventory unavailable", err)
		return
	}
	filters := pruneCascade(parseFilters(query), snap)

	q := items.NewQuery(h.api, h.logger)
	defer q.Close()
	q.SetFilters(ctx, filters)
	state, err := q.Wait(ctx)
	if err != nil {
		return
	}
	if state.Err != nil {
		h.loadFailed(w, r, "Inventory unavailable", state.Err)
		return
	}
	if sess != nil {
		sess.SetLastFilters(query)
	}

	page := 1
	if filters.Page != nil {
		page = *filters.Page
	}
	if state.Page > 0 {
		page = state.Page
	}
	pagination := shared.NewPagination(page, state.PageSize, state.Total, state.TotalPages)
	data := listPageData{
		State:        state,
		Query:        query,
		Pagination:   pagination,
		Pages:        pagination.Window(7),
		Categories:   cascadeCategories(snap, filters.DepartmentID),
		ItemTypes:    cascadeItemTypes(snap, filters.CategoryID),
		SelectedTags: filters.TagIDs,
	}
	h.render(w, r, http.StatusOK, "pages/items_list.html", h.page(r, "Inventory", snap, data))
}

func cascadeCategories(snap *refdata.Snapshot, departmentID *int64) []backend.Category {
	if departmentID == nil {
		return snap.Categories
	}
	return snap.CategoriesByDepartment(*departmentID)
}

func cascadeItemTypes(snap *refdata.Snapshot, categoryID *int64) []backend.ItemType {
	if categoryID == nil {
		return snap.ItemTypes
	}
	return snap.ItemTypesByCategory(*categoryID)
}

// listURL returns to the list with the remembered filters.
func listURL(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if saved := sess.LastFilters(); len(saved) > 0 {
			return "/items?" + saved.Encode()
		}
	}
	return "/items"
}

func (h *Handler) bulkItems(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.redirect(w, r, listURL(r), shared.FlashError, "Could not read the submitted form.")
		return
	}
	form := parseBulkForm(r.PostForm)
	if err := h.validator.Struct(form); err != nil {
		errs := fieldErrors(err)
		msg := "Check the bulk action."
		if m, ok := errs["item_ids"]; ok {
			msg = "Select at least one item. " + m
		} else {
			for field, m := range errs {
				msg = field + ": " + m
				break
			}
		}
		h.redirect(w, r, listURL(r), shared.FlashError, msg)
		return
	}

	if form.Destructive() && !form.Confirmed {
		snap := h.ref.Snapshot()
		data := confirmData{
			Heading:   "Delete items",
			Message:   fmt.Sprintf("Delete %d selected item(s)? This cannot be undone.", len(form.ItemIDs)),
			Action:    "/items/bulk",
			Fields:    hiddenFields(r.PostForm),
			CancelURL: listURL(r),
			Danger:    true,
		}
		h.render(w, r, http.StatusOK, "pages/confirm.html", h.page(r, "Confirm", snap, data))
		return
	}

	ctx := r.Context()
	notes := optionalString(form.Notes)
	var (
		res backend.BulkResult
		err error
	)
	switch form.Action {
	case "status":
		res, err = h.api.BulkUpdateStatus(ctx, form.ItemIDs, form.StatusID, notes)
	case "location":
		res, err = h.api.BulkUpdateLocation(ctx, form.ItemIDs, form.LocationID, notes)
	case "price":
		var in backend.BulkPriceInput
		if in, err = form.PriceInput(); err == nil {
			res, err = h.api.BulkUpdatePrice(ctx, form.ItemIDs, in)
		}
	case "delete":
		res, err = h.api.BulkDelete(ctx, form.ItemIDs, notes)
	}
	if err != nil {
		h.logger.Warn("bulk action failed", slog.String("action", form.Action), slog.Any("error", err))
		h.redirect(w, r, listURL(r), shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.redirect(w, r, listURL(r), shared.FlashSuccess, bulkMessage(form.Action, res))
}

func bulkMessage(action string, res backend.BulkResult) string {
	if res.Message != "" {
		return res.Message
	}
	if action == "delete" {
		return fmt.Sprintf("Deleted %d item(s).", res.DeletedCount)
	}
	return fmt.Sprintf("Updated %d item(s).", res.UpdatedCount)
}

type itemFormData struct {
	Item       *backend.Item
	Form       itemForm
	Errors     map[string]string
	Action     string
	Categories []backend.Category
	ItemTypes  []backend.ItemType
	New        bool
}

func (h *Handler) renderItemForm(w http.ResponseWriter, r *http.Request, status int, snap *refdata.Snapshot, data itemFormData) {
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	var dept, cat *int64
	if data.Form.DepartmentID > 0 {
		dept = &data.Form.DepartmentID
	}
	if data.Form.CategoryID > 0 {
		cat = &data.Form.CategoryID
	}
	data.Categories = cascadeCategories(snap, dept)
	data.ItemTypes = cascadeItemTypes(snap, cat)
	title := "Add item"
	if !data.New {
		title = "Edit item"
	}
	h.render(w, r, status, "pages/item_form.html", h.page(r, title, snap, data))
}

func (h *Handler) newItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		h.loadFailed(w, r, "Cannot add items", err)
		return
	}
	form := itemForm{}
	if len(snap.Statuses) > 0 {
		form.StatusID = snap.Statuses[0].StatusID
	}
	h.renderItemForm(w, r, http.StatusOK, snap, itemFormData{Form: form, Action: "/items", New: true})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		h.redirect(w, r, "/items/new", shared.FlashError, uploadTooLarge(err))
		return
	}
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.loadFailed(w, r, "Cannot add items", err)
		return
	}
	form := parseItemForm(r.PostForm)
	if err := h.validator.Struct(form); err != nil {
		h.renderItemForm(w, r, http.StatusUnprocessableEntity, snap, itemFormData{Form: form, Errors: fieldErrors(err), Action: "/items", New: true})
		return
	}
	in, err := form.Input()
	if err != nil {
		h.renderItemForm(w, r, http.StatusUnprocessableEntity, snap, itemFormData{Form: form, Errors: map[string]string{"general": err.Error()}, Action: "/items", New: true})
		return
	}
	created, err := h.api.CreateItem(ctx, in)
	if err != nil {
		h.logger.Warn("create item failed", slog.Any("error", err))
		h.renderItemForm(w, r, http.StatusUnprocessableEntity, snap, itemFormData{Form: form, Errors: map[string]string{"general": shared.UserSafeMessage(err)}, Action: "/items", New: true})
		return
	}

	uploaded, uploadErr := h.uploadFiles(r, created.ItemID, formFiles(r, "photos"), true, 1)
	switch {
	case uploadErr != nil:
		h.redirect(w, r, itemURL(created.ItemID), shared.FlashError,
			fmt.Sprintf("Item #%d created, but a photo upload failed: %s", created.ItemID, shared.UserSafeMessage(uploadErr)))
	case uploaded > 0:
		h.redirect(w, r, itemURL(created.ItemID), shared.FlashSuccess, fmt.Sprintf("Item #%d created with %d photo(s).", created.ItemID, uploaded))
	default:
		h.redirect(w, r, itemURL(created.ItemID), shared.FlashSuccess, fmt.Sprintf("Item #%d created.", created.ItemID))
	}
}

// loadItem runs the single item loader for the {id} URL parameter. It
// writes the error page and returns false when the item cannot be shown.
func (h *Handler) loadItem(w http.ResponseWriter, r *http.Request) (*backend.Item, *refdata.Snapshot, bool) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return nil, nil, false
	}
	ctx := r.Context()
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.loadFailed(w, r, "Item unavailable", err)
		return nil, nil, false
	}
	d := items.NewDetail(h.api, h.logger)
	defer d.Close()
	d.SetID(ctx, id)
	state, err := d.Wait(ctx)
	if err != nil {
		return nil, nil, false
	}
	if state.Err != nil {
		h.loadFailed(w, r, "Item unavailable", state.Err)
		return nil, nil, false
	}
	return state.Item, snap, true
}

type historyRow struct {
	Label string
	Event backend.HistoryEvent
}

type itemPageData struct {
	Item    *backend.Item
	Photos  []backend.Photo
	History []historyRow
	BackURL string
}

func (h *Handler) showItem(w http.ResponseWriter, r *http.Request) {
	item, snap, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	data := itemPageData{
		Item:    item,
		Photos:  orderedPhotos(item.Photos),
		BackURL: listURL(r),
	}
	for _, ev := range item.History {
		data.History = append(data.History, historyRow{Label: view.Humanise(ev.Action), Event: ev})
	}
	h.render(w, r, http.StatusOK, "pages/item_detail.html", h.page(r, fmt.Sprintf("Item #%d", item.ItemID), snap, data))
}

// orderedPhotos puts the primary photo first, then follows sort_order.
func orderedPhotos(photos []backend.Photo) []backend.Photo {
	out := append([]backend.Photo(nil), photos...)
	primary := backend.Item{Photos: out}.PrimaryPhoto()
	var primaryID int64
	if primary != nil {
		primaryID = primary.PhotoID
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].PhotoID == primaryID, out[j].PhotoID == primaryID
		if pi != pj {
			return pi
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

func (h *Handler) editItem(w http.ResponseWriter, r *http.Request) {
	item, snap, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	h.renderItemForm(w, r, http.StatusOK, snap, itemFormData{Item: item, Form: itemFormFrom(*item), Action: itemURL(item.ItemID)})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		h.redirect(w, r, itemURL(id)+"/edit", shared.FlashError, "Could not read the submitted form.")
		return
	}
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.loadFailed(w, r, "Cannot edit items", err)
		return
	}
	form := parseItemForm(r.PostForm)
	shell := &backend.Item{ItemID: id}
	if err := h.validator.Struct(form); err != nil {
		h.renderItemForm(w, r, http.StatusUnprocessableEntity, snap, itemFormData{Item: shell, Form: form, Errors: fieldErrors(err), Action: itemURL(id)})
		return
	}
	in, err := form.Input()
	if err == nil {
		_, err = h.api.UpdateItem(ctx, id, in)
	}
	if err != nil {
		h.logger.Warn("update item failed", slog.Int64("item_id", id), slog.Any("error", err))
		h.renderItemForm(w, r, http.StatusUnprocessableEntity, snap, itemFormData{Item: shell, Form: form, Errors: map[string]string{"general": shared.UserSafeMessage(err)}, Action: itemURL(id)})
		return
	}
	h.redirect(w, r, itemURL(id), shared.FlashSuccess, "Item updated.")
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		h.redirect(w, r, itemURL(id), shared.FlashError, "Could not read the submitted form.")
		return
	}
	if r.PostForm.Get("confirm") != "yes" {
		data := confirmData{
			Heading:   "Delete item",
			Message:   fmt.Sprintf("Delete item #%d and all of its photos? This cannot be undone.", id),
			Action:    itemURL(id) + "/delete",
			CancelURL: itemURL(id),
			Danger:    true,
		}
		h.render(w, r, http.StatusOK, "pages/confirm.html", h.page(r, "Confirm", h.ref.Snapshot(), data))
		return
	}
	if err := h.api.DeleteItem(r.Context(), id); err != nil {
		h.logger.Warn("delete item failed", slog.Int64("item_id", id), slog.Any("error", err))
		h.redirect(w, r, itemURL(id), shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.redirect(w, r, listURL(r), shared.FlashSuccess, fmt.Sprintf("Item #%d deleted.", id))
}

// parseForm parses multipart and urlencoded bodies alike.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

func uploadTooLarge(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Sprintf("The upload is larger than the %d MB limit.", maxErr.Limit>>20)
	}
	return "Could not read the submitted form."
}
