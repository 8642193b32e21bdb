package handlers

import (
	"net/http"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/services"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadHandler stores message attachments and group photos in
// Cloudinary. A nil service means uploads are disabled.
type UploadHandler struct {
	cloudinary *services.CloudinaryService
}

func NewUploadHandler(cloudinary *services.CloudinaryService) *UploadHandler {
	return &UploadHandler{cloudinary: cloudinary}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /api/upload. The file comes as multipart form field
// "file"; the optional folder query parameter picks the Cloudinary folder.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.cloudinary == nil {
		writeError(w, apperr.Validation("file uploads are not available"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, apperr.Validation("failed to parse form"))
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Validation("no file provided"))
		return
	}
	defer file.Close()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "hivedesk"
	}

	url, err := h.cloudinary.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{URL: url})
}
