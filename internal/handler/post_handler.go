package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// maxListLimit は記事一覧の1回の取得件数の上限。
const maxListLimit = 100

// BlogServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	CreatePost(ctx context.Context, authorID, title, content, imageFilename string, imageBytes []byte) (*model.Post, error)
	ListRecentPosts(ctx context.Context, limit int) ([]*model.Post, error)
	GetPost(ctx context.Context, postID string) (*model.Post, error)
}

// PostHandler は記事管理のHTTPハンドラー。
type PostHandler struct {
	service       BlogServiceInterface
	maxUploadSize int64
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service BlogServiceInterface, maxUploadSize int64) *PostHandler {
	return &PostHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// postResponse は記事情報のAPIレスポンス。
// 画像がない記事ではimage_urlはnullになる。
type postResponse struct {
	ID        string  `json:"id"`
	AuthorID  string  `json:"author_id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	ImageURL  *string `json:"image_url"`
	CreatedAt string  `json:"created_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreatePost は記事投稿を処理する。
// multipart/form-dataでtitle、content、任意のimageを受け取る。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	// アップロードサイズの上限を適用
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge,
				model.NewValidationError("アップロードサイズが上限を超えています。"))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("multipart/form-data の解析に失敗しました。"))
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	if title == "" || content == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("タイトルと本文は必須です。"))
		return
	}

	var imageFilename string
	var imageBytes []byte
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		imageFilename = header.Filename
		imageBytes, err = io.ReadAll(file)
		if err != nil {
			slog.Error("failed to read uploaded image", slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w)
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("画像の読み取りに失敗しました。"))
		return
	}

	post, err := h.service.CreatePost(r.Context(), user.ID, title, content, imageFilename, imageBytes)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(post))
}

// ListPosts は新着順の記事一覧を返す。
// GET /api/posts?limit=N （デフォルト20、上限100）
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("limitは1以上の整数で指定してください。"))
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	posts, err := h.service.ListRecentPosts(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]postResponse, len(posts))
	for i, post := range posts {
		results[i] = toPostResponse(post)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"posts": results,
	})
}

// GetPost は記事詳細を返す。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	post, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(postID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(post))
}

// toPostResponse はドメインモデルをAPIレスポンスに変換する。
func toPostResponse(post *model.Post) postResponse {
	var imageURL *string
	if post.ImagePath != "" {
		url := "/images/" + post.ImagePath
		imageURL = &url
	}
	return postResponse{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  imageURL,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDuplicateUsername:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodePostNotFound, model.ErrCodeImageNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
