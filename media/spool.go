package media

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/user/vidstream-go/apperror"
)

// SpoolFormFile copies one multipart file field into dir and returns the
// local path, or "" when the field is absent. The caller hands the path to
// Upload, which removes it; RemoveIfExists covers paths that never reach an
// upload.
func SpoolFormFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperror.NewBadRequestError("invalid multipart field: "+field, err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", apperror.NewInternalError("failed to create temp file", err)
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", apperror.NewInternalError("failed to write temp file", err)
	}
	return tmp.Name(), nil
}

// RemoveIfExists deletes a leftover spooled file, tolerating one that was
// already consumed.
func RemoveIfExists(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to remove temp upload %s: %v", path, err)
	}
}
