// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"

	"github.com/hitoshi/eduqa/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// アクセスガードを通過したリクエストでのみ値が存在する。
func UserFromContext(ctx context.Context) (*model.UserProfile, bool) {
	u, ok := ctx.Value(userContextKey).(*model.UserProfile)
	return u, ok && u != nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// 上流のロギングミドルウェアが受け皿を用意している場合はそちらにも記録する。
func ContextWithUser(ctx context.Context, user *model.UserProfile) context.Context {
	if h, ok := ctx.Value(holderContextKey).(*userHolder); ok {
		h.user = user
	}
	return context.WithValue(ctx, userContextKey, user)
}

var holderContextKey = contextKey("user_holder")

// userHolder は下流で確定したユーザーをロギングミドルウェアへ渡すための受け皿。
type userHolder struct {
	user *model.UserProfile
}

func contextWithHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderContextKey, h)
}
