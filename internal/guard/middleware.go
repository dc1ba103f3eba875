package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/eduqa/internal/middleware"
	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/session"
)

// SnapshotSource は現在のセッション状態を返す。session.Storeが満たす。
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// Middleware はrequiredのロール条件でリクエストを判定するミドルウェアを返す。
// JSONを要求するAPI呼び出しには401/403の統一エラーを、画面遷移には302リダイレクトを返す。
// 許可した場合は現在のユーザーをリクエストコンテキストに注入する。
func Middleware(src SnapshotSource, logger *slog.Logger, required ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := src.Snapshot()
			d := Evaluate(snap, r.URL.RequestURI(), required)
			if !d.Allowed {
				logger.Warn("access denied",
					slog.String("path", r.URL.Path),
					slog.String("kind", string(d.Err.Kind)),
				)
				if wantsJSON(r) {
					middleware.WriteErrorResponse(w, middleware.StatusForKind(d.Err.Kind), d.Err)
					return
				}
				location := d.Redirect
				if d.Err.Kind == model.KindNotAuthenticated {
					location = d.LoginURL()
				}
				http.Redirect(w, r, location, http.StatusFound)
				return
			}

			ctx := r.Context()
			if snap.User != nil {
				ctx = middleware.ContextWithUser(ctx, snap.User)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// wantsJSON はAPI呼び出しかどうかを判定する。
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
