package application

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore uploads an object and returns its public URL.
// helpers.GCSUploader implements it.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// ImageUpload is a file received from a multipart form.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

var errImagesDisabled = errors.New("image storage not configured")

func uploadImage(ctx context.Context, store ImageStore, folder, owner string, img *ImageUpload) (string, error) {
	if store == nil {
		return "", errImagesDisabled
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", validationf("image must be an image file")
	}
	ext := strings.ToLower(filepath.Ext(img.Filename))
	objectPath := path.Join(folder, owner, uuid.NewString()+ext)
	return store.Upload(ctx, objectPath, img.ContentType, img.Reader)
}
