package controllers

import (
	"net/http"

	"github.com/angelmondragon/visadesk-backend/api/middleware"
	"github.com/angelmondragon/visadesk-backend/api/responses"
	"github.com/angelmondragon/visadesk-backend/api/validators"
	"github.com/angelmondragon/visadesk-backend/internal/uploads"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

const (
	// multipartOverhead leaves room for boundaries and text fields next to the file caps.
	multipartOverhead = 1 << 20
	// maxFormFiles bounds how many answer files one form may carry.
	maxFormFiles = 10
)

// MaxFormBytes is the largest body a multipart cart or quote request may send.
func MaxFormBytes(maxUploadBytes int64) int64 {
	return maxUploadBytes*maxFormFiles + multipartOverhead
}

// StageUpload stores a single `file` part in the staging area.
func StageUpload(svc uploads.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}
		userID := middleware.UserUUIDFromContext(r.Context())

		form, err := validators.ParseMultipart(w, r, maxBytes+multipartOverhead)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.RemoveAll()

		headers := form.File["file"]
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required").WithDetails(map[string]any{"file": "is required"}))
			return
		}
		header := headers[0]
		file, err := header.Open()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open upload"))
			return
		}
		defer file.Close()

		staged, err := svc.Stage(r.Context(), userID, uploads.StageInput{
			Filename: header.Filename,
			Size:     header.Size,
			Body:     file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "File uploaded", staged)
	}
}
