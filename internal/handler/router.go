package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/eduqa/internal/guard"
	"github.com/hitoshi/eduqa/internal/metrics"
	"github.com/hitoshi/eduqa/internal/middleware"
	"github.com/hitoshi/eduqa/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Handler           *Handler
	Guard             guard.SnapshotSource
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig
	Logger            *slog.Logger

	// Gathererがnilの場合は/metricsを公開しない
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS → CSRF → Guard(ロール別)
//
// 認証ルート（/api/auth/*）とヘルスチェックはガードの外に配置する。
// CSRFは全ルートに適用し、ログインを含む全ての状態変更リクエストでトークンを検証する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	h := deps.Handler

	r.Use(chimw.RequestID)
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRF, deps.Logger))

	// --- 認証不要のルート ---

	r.Get("/health", h.Health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF, deps.Logger))
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)
		r.Get("/navigate", h.Navigate)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/verify-reset-token", h.VerifyResetToken)
		r.Post("/reset-password", h.ResetPassword)
	})

	// --- ログインが必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(deps.Guard, deps.Logger))

		r.Route("/api/resources", func(r chi.Router) {
			r.Get("/", h.GetResources)
			r.Post("/", h.UploadResource)
			r.Get("/my", h.GetMyResources)
			r.Get("/{id}", h.GetResourceByID)
			r.Put("/{id}", h.UpdateResource)
			r.Delete("/{id}", h.DeleteResource)
		})

		r.Route("/api/questions", func(r chi.Router) {
			r.Get("/", h.GetQuestions)
			r.Post("/", h.CreateQuestion)
			r.Get("/search", h.SearchQuestions)
			r.Get("/{id}", h.GetQuestionByID)
			r.Put("/{id}", h.UpdateQuestion)
			r.Delete("/{id}", h.DeleteQuestion)
		})

		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", h.GetNotifications)
			r.Get("/unread-count", h.GetNotificationCounts)
			r.Post("/mark-read", h.MarkNotificationsAsRead)
		})

		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/me", h.GetProfile)
			r.Put("/me", h.UpdateProfile)
			r.Put("/password", h.ChangePassword)
		})
	})

	// --- 教員・管理者のルート ---
	r.Route("/api/teacher", func(r chi.Router) {
		r.Use(guard.Middleware(deps.Guard, deps.Logger, model.RoleTeacher, model.RoleAdmin))

		r.Get("/dashboard/stats", h.GetTeacherDashboardStats)
		r.Get("/questions", h.GetTeacherQuestions)
		r.Get("/questions/{id}", h.GetTeacherQuestionByID)
		r.Post("/answers", h.CreateAnswer)
		r.Put("/answers/{id}", h.UpdateAnswer)
		r.Delete("/answers/{id}", h.DeleteAnswer)
		r.Post("/resources", h.UploadTeacherResource)
	})

	// --- 管理者のルート ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(guard.Middleware(deps.Guard, deps.Logger, model.RoleAdmin))

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.GetCourses)
			r.Post("/", h.CreateCourse)
			r.Put("/{id}", h.UpdateCourse)
			r.Delete("/{id}", h.DeleteCourse)
		})

		r.Route("/teachers", func(r chi.Router) {
			r.Get("/", h.GetTeachers)
			r.Post("/", h.CreateTeacher)
			r.Put("/{id}", h.UpdateTeacher)
			r.Delete("/{id}", h.DeleteTeacher)
			r.Put("/{id}/courses", h.SetTeacherCourses)
		})

		r.Get("/students", h.GetStudents)
		r.Put("/students/{id}/courses", h.SetStudentCourses)

		r.Get("/resources", h.GetAllResources)
		r.Put("/resources/{id}", h.AdminUpdateResource)
		r.Delete("/resources/{id}", h.AdminDeleteResource)

		r.Get("/questions", h.GetAllQuestions)
		r.Put("/questions/{id}", h.AdminUpdateQuestion)
		r.Delete("/questions/{id}", h.AdminDeleteQuestion)

		r.Put("/answers/{id}", h.AdminUpdateAnswer)
		r.Delete("/answers/{id}", h.AdminDeleteAnswer)
	})

	return r
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status string            `json:"status"`
	Mode   model.GatewayMode `json:"mode"`
}

// Health はプロセスの稼働状態と選択中のゲートウェイ種別を返す。
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: h.gw.Mode()})
}
