// Package blog は記事の作成と閲覧のドメインロジックを提供する。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
	"github.com/hitoshi/blogman/internal/storage"
)

// defaultListLimit は一覧取得のデフォルト件数。
const defaultListLimit = 20

// Service は記事に関するビジネスロジックを提供する。
// 認可チェックは行わない。呼び出し側（境界層）が認証済みであることを
// 確認したうえで実在するauthorIDを渡す責任を持つ。
type Service struct {
	postRepo  repository.PostRepository
	images    storage.ImageStorage
	sanitizer security.ContentSanitizerService
	recorder  metrics.Recorder
}

// NewService はServiceを生成する。
// sanitizerとrecorderはnilでもよい。
func NewService(
	postRepo repository.PostRepository,
	images storage.ImageStorage,
	sanitizer security.ContentSanitizerService,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		postRepo:  postRepo,
		images:    images,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// CreatePost は新しい記事を作成する。
// imageFilenameとimageBytesの両方が指定された場合のみ画像を先に保存し、
// そのハンドルを記事に記録する。片方だけの指定（ファイル名のみ、
// または空のバイト列）は「画像なし」として扱い、エラーにはしない。
func (s *Service) CreatePost(ctx context.Context, authorID, title, content, imageFilename string, imageBytes []byte) (*model.Post, error) {
	var imagePath string
	if imageFilename != "" && len(imageBytes) > 0 {
		handle, err := s.images.SaveImage(ctx, imageFilename, imageBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		imagePath = handle
		if s.recorder != nil {
			s.recorder.RecordImageStored()
		}
	}

	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}

	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		ImagePath: imagePath,
		CreatedAt: time.Now(),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordPostCreated()
	}
	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", post.AuthorID),
		slog.Bool("has_image", post.ImagePath != ""),
	)

	return post, nil
}

// ListRecentPosts は作成日時の降順で最大limit件の記事を返す。
// limitが0以下の場合はデフォルト件数を使用する。
func (s *Service) ListRecentPosts(ctx context.Context, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	posts, err := s.postRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost は指定IDの記事を返す。見つからない場合は(nil, nil)を返す。
func (s *Service) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}
