package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRecoveryMiddleware はハンドラーやゲートウェイ内のpanicを500の統一エラーに変換する。
// ログにはリクエストIDと、アクセスガードで確定していればユーザーIDを含める。
// http.ErrAbortHandlerは接続を切るための意図的なpanicなので、そのまま再送出する。
func NewRecoveryMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder, ok := r.Context().Value(holderContextKey).(*userHolder)
			if !ok {
				holder = &userHolder{}
				r = r.WithContext(contextWithHolder(r.Context(), holder))
			}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				args := []any{
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				}
				if reqID := chimw.GetReqID(r.Context()); reqID != "" {
					args = append(args, slog.String("request_id", reqID))
				}
				if holder.user != nil {
					args = append(args, slog.Int64("user_id", holder.user.ID))
				}
				args = append(args, slog.String("stack", string(debug.Stack())))
				logger.Error("panic recovered", args...)

				WriteInternalServerError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
