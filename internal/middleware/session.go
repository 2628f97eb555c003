// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// currentUserContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var currentUserContextKey = contextKey("current_user")

// SessionResolver はセッショントークンから認証済みユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.CurrentUser, error)
}

// NewIdentityMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない・セッションが無効・ユーザーが存在しない場合は匿名のまま
// 後続ハンドラーに処理を渡す。リクエストを拒否するのはRequireUserの役目。
func NewIdentityMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				// セッションが無効でも匿名として続行する
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireUserMiddleware は認証済みユーザーを必須とするミドルウェアを返す。
// IdentityMiddlewareの後に配置し、匿名リクエストには401を返す。
func NewRequireUserMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := CurrentUserFromContext(r.Context()); err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// IdentityMiddlewareを通過した認証済みリクエストでのみ有効。
func CurrentUserFromContext(ctx context.Context) (*model.CurrentUser, error) {
	user, ok := ctx.Value(currentUserContextKey).(*model.CurrentUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("current user not found in context")
	}
	return user, nil
}

// ContextWithCurrentUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCurrentUser(ctx context.Context, user *model.CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}
