// Package auth はユーザー登録、パスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/password"
	"github.com/hitoshi/blogman/internal/repository"
)

// sessionTokenBytes はセッショントークンの乱数長（バイト）。256ビット。
const sessionTokenBytes = 32

// Service は認証に関するビジネスロジックを提供する。
// 呼び出し間で状態を持たず、全ての状態はリポジトリに保存される。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      *password.Hasher
	recorder    metrics.Recorder
}

// NewService はServiceを生成する。
// recorderはnilでもよい（メトリクスを記録しない）。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher *password.Hasher,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		recorder:    recorder,
	}
}

// Register は新規ユーザーを登録する。
// ユーザー名が既に存在する場合はmodel.APIError（DUPLICATE_USERNAME）を返す。
// ここでの存在チェックは補助的なもので、同時登録の競合は
// DBの一意制約が検出し、リポジトリが同じエラーに変換する。
func (s *Service) Register(ctx context.Context, username, rawPassword string) (*model.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUsernameError(username)
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if model.IsDuplicateUsername(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordRegistration()
	}
	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate はユーザー名とパスワードを検証し、新しいセッションを発行する。
// ユーザー不在とパスワード不一致のどちらも(nil, nil)を返し、
// 戻り値からユーザーの存在有無を推測できないようにする。
func (s *Service) Authenticate(ctx context.Context, username, rawPassword string) (*model.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.hasher.Verify(rawPassword, user.PasswordHash) {
		if s.recorder != nil {
			s.recorder.RecordLoginFailure()
		}
		return nil, nil
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordLoginSuccess()
	}
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return session, nil
}

// GetSession は指定IDのセッションを取得する。見つからない場合は(nil, nil)を返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// Logout はセッションを破棄する。存在しないセッションIDでもエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordLogout()
	}
	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// ResolveSession はセッショントークンから現在のユーザーを解決する。
// トークンが空、セッション不在、セッションが参照するユーザーが
// 削除済みのいずれの場合も(nil, nil)（匿名）を返す。
// ぶら下がりセッションで解決処理が失敗してはならない。
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*model.CurrentUser, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return &model.CurrentUser{ID: user.ID, Username: user.Username}, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.Session{
		ID:        token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionToken は暗号的に安全なURLセーフのセッショントークンを生成する。
// Cookie値としてそのまま使用できる。
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
