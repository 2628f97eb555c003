package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/storage"
)

// ImageHandler は添付画像配信のHTTPハンドラー。
type ImageHandler struct {
	images storage.ImageStorage
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(images storage.ImageStorage) *ImageHandler {
	return &ImageHandler{images: images}
}

// ServeImage はハンドルに対応する画像を配信する。
// Content-Typeはデータの先頭バイトから判定する。
// GET /images/{handle}
func (h *ImageHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if handle == "" {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewImageNotFoundError())
		return
	}

	data, err := h.images.ReadImage(r.Context(), handle)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	// ハンドルは不変なので長期キャッシュを許可する
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}
