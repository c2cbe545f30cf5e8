package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danhyun/simpleshop/internal/service"
)

// ImageHandler handles product image uploads and deletions.
type ImageHandler struct {
	images *service.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// HandleReplaceAll replaces a product's whole image set with the uploaded
// files, in form order. A partial upload leaves the already-uploaded prefix
// attached and reports the failure.
// POST /api/products/{id}/images (multipart, field "images")
// Response: 200 {"images":["url", ...]}
func (h *ImageHandler) HandleReplaceAll(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}

	// Whole-batch ceiling; per-file limits are checked downstream.
	if err := r.ParseMultipartForm(110 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Upload too large.")
		return
	}

	var files []service.Upload
	for _, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			slog.Error("open multipart file", "filename", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("read multipart file", "filename", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
			return
		}

		// Detect content type from file bytes (more reliable than multipart header).
		files = append(files, service.Upload{
			Filename:    header.Filename,
			ContentType: http.DetectContentType(data),
			Data:        data,
		})
	}

	urls, err := h.images.ReplaceAll(r.Context(), id, principal.UserID, files)
	if err != nil {
		writeDomainError(w, err, "replace product images")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images": urls,
	})
}

// HandleDeleteOne removes a single image from a product the caller owns.
// The remaining images are renumbered so positions stay gapless.
// DELETE /api/products/{id}/images/{imageID}
// Response: 200 {"status":"ok"}
func (h *ImageHandler) HandleDeleteOne(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image id.")
		return
	}

	if err := h.images.DeleteOne(r.Context(), id, imageID, principal.UserID); err != nil {
		writeDomainError(w, err, "delete product image")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
