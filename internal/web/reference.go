package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/internal/shared"
)

type kindSummary struct {
	Kind  backend.Kind
	Label string
	Count int
}

func (h *Handler) referenceIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		h.loadFailed(w, r, "Reference data unavailable", err)
		return
	}
	counts := snap.Counts()
	summaries := make([]kindSummary, 0, len(backend.Kinds))
	for _, k := range backend.Kinds {
		summaries = append(summaries, kindSummary{Kind: k, Label: k.Label(), Count: counts[k]})
	}
	h.render(w, r, http.StatusOK, "pages/reference_index.html", h.page(r, "Reference data", snap, summaries))
}

type referencePageData struct {
	Kind   backend.Kind
	Label  string
	Fields []refField
	Rows   []referenceRow
	// Form and Errors hold a rejected submission; EditID is 0 for create.
	Form   map[string]string
	Errors map[string]string
	EditID int64
	Blank  map[string]string
}

func (h *Handler) kindParam(w http.ResponseWriter, r *http.Request) (backend.Kind, bool) {
	kind, err := backend.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return kind, true
}

func (h *Handler) listReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	h.renderReference(w, r, http.StatusOK, kind, referencePageData{})
}

// renderReference lists kind fresh from the backend so the table shows
// edits made elsewhere even before the store reloads.
func (h *Handler) renderReference(w http.ResponseWriter, r *http.Request, status int, kind backend.Kind, data referencePageData) {
	ctx := r.Context()
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.loadFailed(w, r, kind.Label()+" unavailable", err)
		return
	}
	rows, err := h.api.ListReference(ctx, kind)
	if err != nil {
		h.loadFailed(w, r, kind.Label()+" unavailable", err)
		return
	}
	data.Kind = kind
	data.Label = kind.Label()
	data.Fields = referenceSchemas[kind]
	data.Rows = toReferenceRows(kind, rows, snap)
	if data.Form == nil {
		data.Form = map[string]string{}
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	data.Blank = map[string]string{}
	h.render(w, r, status, "pages/reference_list.html", h.page(r, kind.Label(), snap, data))
}

func (h *Handler) createReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		h.redirect(w, r, "/reference/"+string(kind), shared.FlashError, "Could not read the submitted form.")
		return
	}
	payload, values, errs := parseReferenceForm(h.validator, kind, r.PostForm)
	if len(errs) > 0 {
		h.renderReference(w, r, http.StatusUnprocessableEntity, kind, referencePageData{Form: values, Errors: errs})
		return
	}
	if _, err := h.api.CreateReference(r.Context(), kind, payload); err != nil {
		h.logger.Warn("create reference failed", slog.String("kind", string(kind)), slog.Any("error", err))
		h.renderReference(w, r, http.StatusUnprocessableEntity, kind, referencePageData{Form: values, Errors: map[string]string{"general": shared.UserSafeMessage(err)}})
		return
	}
	h.referenceChanged(r)
	h.redirect(w, r, referenceReturn(r, kind), shared.FlashSuccess, fmt.Sprintf("%s entry created.", kind.Label()))
}

func (h *Handler) updateReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		h.redirect(w, r, "/reference/"+string(kind), shared.FlashError, "Could not read the submitted form.")
		return
	}
	payload, values, errs := parseReferenceForm(h.validator, kind, r.PostForm)
	if len(errs) > 0 {
		h.renderReference(w, r, http.StatusUnprocessableEntity, kind, referencePageData{Form: values, Errors: errs, EditID: id})
		return
	}
	if _, err := h.api.UpdateReference(r.Context(), kind, id, payload); err != nil {
		h.logger.Warn("update reference failed", slog.String("kind", string(kind)), slog.Int64("id", id), slog.Any("error", err))
		h.redirect(w, r, referenceReturn(r, kind), shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.referenceChanged(r)
	h.redirect(w, r, referenceReturn(r, kind), shared.FlashSuccess, fmt.Sprintf("%s entry updated.", kind.Label()))
}

func (h *Handler) deleteReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		h.redirect(w, r, "/reference/"+string(kind), shared.FlashError, "Could not read the submitted form.")
		return
	}
	if r.PostForm.Get("confirm") != "yes" {
		data := confirmData{
			Heading:   "Delete " + strings.ToLower(kind.Label()),
			Message:   fmt.Sprintf("Delete %s #%d? Items that still use it may block the delete.", strings.ToLower(kind.Label()), id),
			Action:    fmt.Sprintf("/reference/%s/%d/delete", kind, id),
			Fields:    hiddenFields(r.PostForm),
			CancelURL: referenceReturn(r, kind),
			Danger:    true,
		}
		h.render(w, r, http.StatusOK, "pages/confirm.html", h.page(r, "Confirm", h.ref.Snapshot(), data))
		return
	}
	if err := h.api.DeleteReference(r.Context(), kind, id); err != nil {
		h.logger.Warn("delete reference failed", slog.String("kind", string(kind)), slog.Int64("id", id), slog.Any("error", err))
		h.redirect(w, r, referenceReturn(r, kind), shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.referenceChanged(r)
	h.redirect(w, r, referenceReturn(r, kind), shared.FlashSuccess, fmt.Sprintf("%s entry deleted.", kind.Label()))
}

// referenceChanged invalidates the store after a successful mutation. A
// failed bump only delays other instances until their next refresh.
func (h *Handler) referenceChanged(r *http.Request) {
	if err := h.ref.Changed(r.Context()); err != nil {
		h.logger.Warn("refdata change broadcast failed", slog.Any("error", err))
	}
}

// referenceReturn honours a local "return" field so the tag page can reuse
// the generic endpoints.
func referenceReturn(r *http.Request, kind backend.Kind) string {
	target := r.PostForm.Get("return")
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	return "/reference/" + string(kind)
}

type tagGroup struct {
	Category string
	Tags     []backend.Tag
}

type tagsPageData struct {
	Groups []tagGroup
	Fields []refField
}

func (h *Handler) tags(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		h.loadFailed(w, r, "Tags unavailable", err)
		return
	}
	data := tagsPageData{Groups: groupTags(snap), Fields: referenceSchemas[backend.KindTags]}
	h.render(w, r, http.StatusOK, "pages/tags.html", h.page(r, "Tags", snap, data))
}

// groupTags groups by tag_category, categories sorted by name and tags kept
// in load order.
func groupTags(snap *refdata.Snapshot) []tagGroup {
	index := map[string]int{}
	var groups []tagGroup
	for _, t := range snap.Tags {
		cat := t.TagCategory
		if cat == "" {
			cat = "Other"
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, tagGroup{Category: cat})
		}
		groups[i].Tags = append(groups[i].Tags, t)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}
