package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// PhotoUpload is an image file not yet stored by the backend.
type PhotoUpload struct {
	Filename  string
	Content   io.Reader
	IsPrimary bool
	SortOrder int
}

// ListPhotos returns an item's photos.
func (c *Client) ListPhotos(ctx context.Context, itemID int64) ([]Photo, error) {
	var photos []Photo
	if err := c.get(ctx, fmt.Sprintf("/items/%d/photos", itemID), &photos); err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []Photo{}
	}
	return photos, nil
}

// AddPhoto registers photo metadata for an already-stored file.
func (c *Client) AddPhoto(ctx context.Context, itemID int64, in PhotoInput) (Photo, error) {
	in.ItemID = itemID
	var photo Photo
	if err := c.post(ctx, fmt.Sprintf("/items/%d/photos", itemID), in, &photo); err != nil {
		return Photo{}, err
	}
	return photo, nil
}

// UpdatePhoto patches photo metadata.
func (c *Client) UpdatePhoto(ctx context.Context, photoID int64, in PhotoPatch) (Photo, error) {
	var photo Photo
	if err := c.patch(ctx, fmt.Sprintf("/items/photos/%d", photoID), in, &photo); err != nil {
		return Photo{}, err
	}
	return photo, nil
}

// DeletePhoto removes a photo. The backend answers 204.
func (c *Client) DeletePhoto(ctx context.Context, photoID int64) error {
	return c.del(ctx, fmt.Sprintf("/items/photos/%d", photoID))
}

// UploadPhoto streams a file as multipart/form-data. The JSON content type is
// never applied on this path; the multipart writer declares the boundary.
func (c *Client) UploadPhoto(ctx context.Context, itemID int64, up PhotoUpload) (Photo, error) {
	body, contentType, err := encodeUpload(up)
	if err != nil {
		return Photo{}, fmt.Errorf("backend: encode upload: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", contentType)
	resp, err := c.send(ctx, http.MethodPost, fmt.Sprintf("/items/%d/photos/upload", itemID), body, header)
	if err != nil {
		return Photo{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		msg := string(text)
		if msg == "" {
			msg = "Upload failed"
		}
		return Photo{}, &UploadError{Status: resp.StatusCode, Message: msg}
	}

	var photo Photo
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		return Photo{}, fmt.Errorf("backend: decode upload response: %w", err)
	}
	return photo, nil
}

func encodeUpload(up PhotoUpload) (*bytes.Buffer, string, error) {
	if up.Content == nil {
		return nil, "", fmt.Errorf("photo content missing")
	}
	filename := up.Filename
	if filename == "" {
		filename = "photo.jpg"
	}
	sortOrder := up.SortOrder
	if sortOrder <= 0 {
		sortOrder = 1
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("is_primary", strconv.FormatBool(up.IsPrimary)); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("sort_order", strconv.Itoa(sortOrder)); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// ImageURL resolves a stored file path against the backend address. Absolute
// URLs pass through and an empty path yields "".
func (c *Client) ImageURL(filePath string) string {
	return ResolveImageURL(c.baseURL, filePath)
}

// ResolveImageURL is ImageURL without a client.
func ResolveImageURL(baseURL, filePath string) string {
	if filePath == "" {
		return ""
	}
	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") {
		return filePath
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.HasPrefix(filePath, "/") {
		return baseURL + filePath
	}
	return baseURL + "/" + filePath
}
