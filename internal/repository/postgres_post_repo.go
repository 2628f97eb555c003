package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は記事を作成する。ImagePathが空文字列の場合はNULLで保存する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	var imagePath sql.NullString
	if post.ImagePath != "" {
		imagePath = sql.NullString{String: post.ImagePath, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, content, image_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.AuthorID, post.Title, post.Content, imagePath, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	var imagePath sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, title, content, image_path, created_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &imagePath, &post.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	post.ImagePath = imagePath.String
	return post, nil
}

// ListRecent は作成日時の降順で最大limit件の記事を返す。
// 同時刻の記事はID降順で安定に並べる。
func (r *PostgresPostRepo) ListRecent(ctx context.Context, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_id, title, content, image_path, created_at
		 FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post := &model.Post{}
		var imagePath sql.NullString
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &imagePath, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		post.ImagePath = imagePath.String
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
