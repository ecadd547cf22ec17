package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftstock/thriftstock/internal/backend"
)

func TestBulkUpdateStatus(t *testing.T) {
	fb, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Updated 3 items", "updated_count": 3})
	})

	res, err := client.BulkUpdateStatus(context.Background(), []int64{1, 2, 3}, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.UpdatedCount)
	assert.Equal(t, "Updated 3 items", res.Message)

	call := fb.last()
	assert.Equal(t, "/items/bulk/update-status", call.path)
	assert.JSONEq(t, `{"item_ids":[1,2,3],"status_id":4,"notes":null}`, string(call.body))
}

func TestBulkUpdateLocationWithNotes(t *testing.T) {
	fb, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "updated_count": 1})
	})
	notes := "moved to back room"
	_, err := client.BulkUpdateLocation(context.Background(), []int64{5}, 2, &notes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"item_ids":[5],"location_id":2,"notes":"moved to back room"}`, string(fb.last().body))
}

func TestBulkUpdatePriceSendsNulls(t *testing.T) {
	fb, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "updated_count": 2})
	})
	onSale := true
	_, err := client.BulkUpdatePrice(context.Background(), []int64{1, 2}, backend.BulkPriceInput{OnSale: &onSale})
	require.NoError(t, err)
	assert.Equal(t, "/items/bulk/update-price", fb.last().path)
	assert.JSONEq(t, `{"item_ids":[1,2],"price":null,"on_sale":true,"sale_price":null}`, string(fb.last().body))
}

func TestBulkDeleteEmptyIDs(t *testing.T) {
	fb, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted 0 items", "deleted_count": 0})
	})
	res, err := client.BulkDelete(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.DeletedCount)
	assert.JSONEq(t, `{"item_ids":[],"reason":null}`, string(fb.last().body))
}

func TestUploadPhotoMultipart(t *testing.T) {
	var fields map[string]string
	var fileName, fileBody string
	fb, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		assert.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		fields = map[string]string{}
		for {
			part, err := reader.NextPart()
			if err == io.EOF || !assert.NoError(t, err) {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FormName() == "file" {
				fileName = part.FileName()
				fileBody = string(data)
				continue
			}
			fields[part.FormName()] = string(data)
		}
		writeJSON(w, http.StatusOK, map[string]any{"photo_id": 11, "item_id": 4, "file_path": "/uploads/4/x.jpg", "is_primary": true, "sort_order": 1})
	})

	photo, err := client.UploadPhoto(context.Background(), 4, backend.PhotoUpload{
		Filename:  "x.jpg",
		Content:   strings.NewReader("jpegbytes"),
		IsPrimary: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), photo.PhotoID)

	call := fb.last()
	assert.Equal(t, "/items/4/photos/upload", call.path)
	assert.True(t, strings.HasPrefix(call.ctype, "multipart/form-data; boundary="))
	assert.Equal(t, "x.jpg", fileName)
	assert.Equal(t, "jpegbytes", fileBody)
	assert.Equal(t, "true", fields["is_primary"])
	assert.Equal(t, "1", fields["sort_order"])
}

func TestUploadPhotoFailureUsesRawText(t *testing.T) {
	_, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, "file too large")
	})
	_, err := client.UploadPhoto(context.Background(), 4, backend.PhotoUpload{Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.Equal(t, "file too large", err.Error())

	_, client = newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err = client.UploadPhoto(context.Background(), 4, backend.PhotoUpload{Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.Equal(t, "Upload failed", err.Error())
}

func TestUpdatePhotoOmitsUnsetFields(t *testing.T) {
	fb, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"photo_id": 3, "is_primary": true})
	})
	primary := true
	_, err := client.UpdatePhoto(context.Background(), 3, backend.PhotoPatch{IsPrimary: &primary})
	require.NoError(t, err)

	call := fb.last()
	assert.Equal(t, http.MethodPatch, call.method)
	assert.Equal(t, "/items/photos/3", call.path)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(call.body, &payload))
	assert.Equal(t, map[string]any{"is_primary": true}, payload)
}
