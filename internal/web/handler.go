// Package web serves the inventory console pages.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/imaging"
	"github.com/thriftstock/thriftstock/internal/items"
	"github.com/thriftstock/thriftstock/internal/platform/httpx"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/internal/shared"
	"github.com/thriftstock/thriftstock/internal/view"
)

// API is the slice of the backend client the console uses. *backend.Client
// satisfies it.
type API interface {
	items.Lister
	items.Getter
	CreateItem(ctx context.Context, in backend.ItemInput) (backend.Item, error)
	UpdateItem(ctx context.Context, id int64, in backend.ItemInput) (backend.Item, error)
	DeleteItem(ctx context.Context, id int64) error

	BulkUpdateStatus(ctx context.Context, itemIDs []int64, statusID int64, notes *string) (backend.BulkResult, error)
	BulkUpdateLocation(ctx context.Context, itemIDs []int64, locationID int64, notes *string) (backend.BulkResult, error)
	BulkUpdatePrice(ctx context.Context, itemIDs []int64, in backend.BulkPriceInput) (backend.BulkResult, error)
	BulkDelete(ctx context.Context, itemIDs []int64, reason *string) (backend.BulkResult, error)

	UploadPhoto(ctx context.Context, itemID int64, up backend.PhotoUpload) (backend.Photo, error)
	UpdatePhoto(ctx context.Context, photoID int64, in backend.PhotoPatch) (backend.Photo, error)
	DeletePhoto(ctx context.Context, photoID int64) error

	ListReference(ctx context.Context, kind backend.Kind) ([]backend.Fields, error)
	CreateReference(ctx context.Context, kind backend.Kind, in backend.Fields) (backend.Fields, error)
	UpdateReference(ctx context.Context, kind backend.Kind, id int64, in backend.Fields) (backend.Fields, error)
	DeleteReference(ctx context.Context, kind backend.Kind, id int64) error

	Health(ctx context.Context) (backend.Health, error)
}

// ReferenceStore serves lookups. *refdata.Store satisfies it.
type ReferenceStore interface {
	Ensure(ctx context.Context) error
	Snapshot() *refdata.Snapshot
	Changed(ctx context.Context) error
}

// Handler wires HTTP endpoints for the console.
type Handler struct {
	logger    *slog.Logger
	api       API
	ref       ReferenceStore
	templates *view.Engine
	csrf      *shared.CSRFManager
	images    *imaging.Processor
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, ref ReferenceStore, templates *view.Engine, csrf *shared.CSRFManager, images *imaging.Processor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if images == nil {
		images = imaging.NewProcessor(imaging.DefaultMaxDimension)
	}
	return &Handler{
		logger:    logger,
		api:       api,
		ref:       ref,
		templates: templates,
		csrf:      csrf,
		images:    images,
		validator: newValidator(),
	}
}

// MountRoutes registers console routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.dashboard)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/new", h.newItem)
		r.Post("/bulk", h.bulkItems)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.showItem)
			r.Post("/", h.updateItem)
			r.Get("/edit", h.editItem)
			r.Post("/delete", h.deleteItem)
			r.Post("/photos", h.uploadPhotos)
			r.Post("/photos/{photoID}/primary", h.makePrimary)
			r.Post("/photos/{photoID}/delete", h.deletePhoto)
		})
	})

	r.Get("/tags", h.tags)
	r.Route("/reference", func(r chi.Router) {
		r.Get("/", h.referenceIndex)
		r.Get("/{kind}", h.listReference)
		r.Post("/{kind}", h.createReference)
		r.Post("/{kind}/{id}", h.updateReference)
		r.Post("/{kind}/{id}/delete", h.deleteReference)
	})
}

// page assembles the shared template data for the current request.
func (h *Handler) page(r *http.Request, title string, snap *refdata.Snapshot, data any) view.TemplateData {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	return view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Ref:         snap,
		Data:        data,
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data view.TemplateData) {
	if err := h.templates.RenderStatus(w, status, name, data); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type errorPageData struct {
	Heading     string
	Message     string
	Unreachable bool
	BackURL     string
}

// loadFailed renders the blocking panel shown when a page cannot load its data.
func (h *Handler) loadFailed(w http.ResponseWriter, r *http.Request, heading string, err error) {
	status := httpx.StatusFor(err)
	h.logger.Warn("page load failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	data := errorPageData{
		Heading:     heading,
		Message:     shared.UserSafeMessage(err),
		Unreachable: !backend.IsNotFound(err),
		BackURL:     "/",
	}
	h.render(w, r, status, "pages/error.html", h.page(r, heading, nil, data))
}

// snapshot ensures reference data is loaded. A failed reload keeps serving
// the previous snapshot; only a console that never loaded reports an error.
func (h *Handler) snapshot(ctx context.Context) (*refdata.Snapshot, error) {
	err := h.ref.Ensure(ctx)
	snap := h.ref.Snapshot()
	if err != nil {
		if snap == nil || snap.LoadedAt.IsZero() {
			return nil, err
		}
		h.logger.Warn("refdata reload failed, serving previous snapshot", slog.Any("error", err))
	}
	return snap, nil
}

func (h *Handler) flash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Flash(kind, message)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if message != "" {
		h.flash(r, kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func urlID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func itemURL(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}
