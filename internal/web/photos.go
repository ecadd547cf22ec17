package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/shared"
)

// uploadFiles downscales and uploads files in order. With markPrimary the
// first file becomes the primary photo. It stops at the first failure and
// reports how many uploads succeeded before it.
func (h *Handler) uploadFiles(r *http.Request, itemID int64, files []*multipart.FileHeader, markPrimary bool, firstSort int) (int, error) {
	done := 0
	for i, fh := range files {
		if err := h.uploadOne(r, itemID, fh, markPrimary && i == 0, firstSort+i); err != nil {
			h.logger.Warn("photo upload failed",
				slog.Int64("item_id", itemID),
				slog.String("filename", fh.Filename),
				slog.Any("error", err))
			return done, err
		}
		done++
	}
	return done, nil
}

func (h *Handler) uploadOne(r *http.Request, itemID int64, fh *multipart.FileHeader, primary bool, sortOrder int) error {
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	res, err := h.images.Process(f, fh.Filename)
	if err != nil {
		return &backend.UploadError{Status: http.StatusUnsupportedMediaType, Message: fmt.Sprintf("%s is not a JPEG or PNG image", fh.Filename)}
	}
	_, err = h.api.UploadPhoto(r.Context(), itemID, backend.PhotoUpload{
		Filename:  uuid.NewString() + "_" + res.Filename,
		Content:   bytes.NewReader(res.Data),
		IsPrimary: primary,
		SortOrder: sortOrder,
	})
	return err
}

func (h *Handler) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		h.redirect(w, r, itemURL(id), shared.FlashError, uploadTooLarge(err))
		return
	}
	files := formFiles(r, "photos")
	if len(files) == 0 {
		h.redirect(w, r, itemURL(id), shared.FlashError, "Choose at least one photo to upload.")
		return
	}
	existing := int(formID(r.PostForm, "existing"))
	uploaded, err := h.uploadFiles(r, id, files, existing == 0, existing+1)
	if err != nil {
		h.redirect(w, r, itemURL(id), shared.FlashError,
			fmt.Sprintf("Uploaded %d of %d photo(s): %s", uploaded, len(files), shared.UserSafeMessage(err)))
		return
	}
	h.redirect(w, r, itemURL(id), shared.FlashSuccess, fmt.Sprintf("Uploaded %d photo(s).", uploaded))
}

func (h *Handler) makePrimary(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	photoID, ok2 := urlID(r, "photoID")
	if !ok || !ok2 {
		http.NotFound(w, r)
		return
	}
	primary := true
	if _, err := h.api.UpdatePhoto(r.Context(), photoID, backend.PhotoPatch{IsPrimary: &primary}); err != nil {
		h.redirect(w, r, itemURL(id), shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.redirect(w, r, itemURL(id), shared.FlashSuccess, "Primary photo updated.")
}

func (h *Handler) deletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	photoID, ok2 := urlID(r, "photoID")
	if !ok || !ok2 {
		http.NotFound(w, r)
		return
	}
	if err := parseForm(r); err != nil {
		h.redirect(w, r, itemURL(id), shared.FlashError, "Could not read the submitted form.")
		return
	}
	if r.PostForm.Get("confirm") != "yes" {
		data := confirmData{
			Heading:   "Delete photo",
			Message:   fmt.Sprintf("Delete photo #%d from item #%d?", photoID, id),
			Action:    fmt.Sprintf("%s/photos/%d/delete", itemURL(id), photoID),
			CancelURL: itemURL(id),
			Danger:    true,
		}
		h.render(w, r, http.StatusOK, "pages/confirm.html", h.page(r, "Confirm", h.ref.Snapshot(), data))
		return
	}
	if err := h.api.DeletePhoto(r.Context(), photoID); err != nil {
		h.redirect(w, r, itemURL(id), shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.redirect(w, r, itemURL(id), shared.FlashSuccess, "Photo deleted.")
}
