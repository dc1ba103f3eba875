package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eduqa/internal/gateway"
	"github.com/hitoshi/eduqa/internal/metrics"
	"github.com/hitoshi/eduqa/internal/middleware"
	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/session"
	"github.com/hitoshi/eduqa/internal/simulated"
)

const testOrigin = "http://localhost:5173"

type testEnv struct {
	router http.Handler
	store  *session.Store
	reg    *prometheus.Registry
	csrf   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := session.NewStore(nil, logger)
	g, err := simulated.New(simulated.Options{
		Identity:   store,
		JWTSecret:  "handler-test-secret",
		BcryptCost: bcrypt.MinCost,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("simulated.New() error = %v", err)
	}
	return newTestEnvWith(t, g, store)
}

func newTestEnvWith(t *testing.T, g gateway.Gateway, store *session.Store) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	h := New(g, store, metrics.NewCollector(reg), logger)
	router := NewRouter(&RouterDeps{
		Handler:           h,
		Guard:             store,
		CORSAllowedOrigin: testOrigin,
		Logger:            logger,
		Gatherer:          reg,
	})
	env := &testEnv{router: router, store: store, reg: reg}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/csrf-token", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("csrf-token status = %d", rec.Code)
	}
	env.csrf = decodeBody[map[string]string](t, rec)["token"]
	if env.csrf == "" {
		t.Fatal("csrf-token returned an empty token")
	}
	return env
}

// withCSRF はUIと同じオリジンからのリクエストとしてトークンを付与する。
func (e *testEnv) withCSRF(req *http.Request) {
	req.Header.Set("Origin", testOrigin)
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: e.csrf})
	req.Header.Set(middleware.CSRFHeaderName, e.csrf)
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	e.withCSRF(req)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{Username: username, Password: simulated.FixturePassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v (body = %s)", err, rec.Body.String())
	}
	return v
}

func TestLogin_StoresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{Username: "student01", Password: simulated.FixturePassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	res := decodeBody[model.AuthResult](t, rec)
	if res.Credential.AccessToken == "" || res.User.ID != simulated.FixtureStudentID {
		t.Errorf("result = %+v", res)
	}

	cred := env.store.CurrentCredential()
	if cred == nil || cred.AccessToken != res.Credential.AccessToken {
		t.Errorf("session credential = %+v", cred)
	}

	rec = env.do(t, http.MethodGet, "/api/auth/session", nil)
	s := decodeBody[sessionResponse](t, rec)
	if !s.Authenticated || s.User == nil || s.User.Username != "student01" || s.Mode != model.GatewaySimulated {
		t.Errorf("session = %+v", s)
	}
}

func TestLogin_FailureLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{Username: "student01", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeBody[middleware.ErrorResponseBody](t, rec)
	if body.Code != "INVALID_CREDENTIAL" {
		t.Errorf("code = %q", body.Code)
	}
	if env.store.CurrentCredential() != nil || env.store.CurrentUser() != nil {
		t.Error("session must stay empty after a failed login")
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	env.withCSRF(req)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegister_LogsIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Username: "newbie", Email: "newbie@campus.edu", Password: "secret1", FullName: "New Bie",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if u := env.store.CurrentUser(); u == nil || u.Username != "newbie" {
		t.Errorf("session user = %+v", u)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")

	if rec := env.do(t, http.MethodPost, "/api/auth/logout", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/resources", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", rec.Code)
	}
}

func TestGuardedRoutes(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		path       string
		wantStatus int
	}{
		{"anonymous resources", "", "/api/resources", http.StatusUnauthorized},
		{"student resources", "student01", "/api/resources", http.StatusOK},
		{"student admin", "student01", "/api/admin/courses", http.StatusForbidden},
		{"student teacher", "student01", "/api/teacher/questions", http.StatusForbidden},
		{"teacher teacher", "teacher01", "/api/teacher/questions", http.StatusOK},
		{"teacher admin", "teacher01", "/api/admin/teachers", http.StatusForbidden},
		{"admin teacher", "admin01", "/api/teacher/dashboard/stats", http.StatusOK},
		{"admin admin", "admin01", "/api/admin/students", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.username != "" {
				env.login(t, tt.username)
			}
			rec := env.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body = %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestNavigate(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")

	rec := env.do(t, http.MethodGet, "/api/auth/navigate?path=/admin/courses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	d := decodeBody[struct {
		Allowed  bool   `json:"allowed"`
		Redirect string `json:"redirect"`
	}](t, rec)
	if d.Allowed || d.Redirect != "/resources" {
		t.Errorf("decision = %+v", d)
	}

	if rec := env.do(t, http.MethodGet, "/api/auth/navigate", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d, want 400", rec.Code)
	}
}

func TestGetResources_QueryParameters(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")

	rec := env.do(t, http.MethodGet, "/api/resources?courseId=101&pageSize=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := decodeBody[model.Page[model.Resource]](t, rec)
	if page.Total != 1 || page.PageSize != 5 || page.Page != 1 || page.Items[0].ID != 1 {
		t.Errorf("page = %+v", page)
	}

	if rec := env.do(t, http.MethodGet, "/api/resources?courseId=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid courseId status = %d, want 400", rec.Code)
	}
}

func TestUploadResource_Multipart(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("metadata", `{"title":"Week 3 notes","courseId":101}`)
	fw, _ := mw.CreateFormFile("file", "week3.pdf")
	fw.Write([]byte("%PDF-1.4 data"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/resources", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	env.withCSRF(req)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	r := decodeBody[model.Resource](t, rec)
	if r.Title != "Week 3 notes" || r.FileSize != 13 || r.FileType != "pdf" {
		t.Errorf("resource = %+v", r)
	}
}

func TestCreateQuestionAndAnswerFlow(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")

	rec := env.do(t, http.MethodPost, "/api/questions", model.QuestionCreate{CourseID: 101, Title: "Rank", Content: "How to compute rank?"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	q := decodeBody[model.Question](t, rec)

	env.login(t, "teacher01")
	rec = env.do(t, http.MethodPost, "/api/teacher/answers", model.AnswerCreate{QuestionID: q.ID, Content: "Row reduce."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("answer status = %d, body = %s", rec.Code, rec.Body.String())
	}

	env.login(t, "student01")
	rec = env.do(t, http.MethodGet, "/api/questions/"+itoa(q.ID), nil)
	d := decodeBody[model.QuestionDetail](t, rec)
	if d.Status != model.QuestionStatusAnswered || d.AnswerCount != 1 || len(d.Answers) != 1 {
		t.Errorf("detail = %+v", d)
	}

	// 回答済みの質問は学生が編集できない
	title := "edited"
	rec = env.do(t, http.MethodPut, "/api/questions/"+itoa(q.ID), model.QuestionUpdate{Title: &title})
	if rec.Code != http.StatusConflict {
		t.Errorf("edit answered question status = %d, want 409", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/questions/"+itoa(q.ID), nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/questions/"+itoa(q.ID), nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestAdminCourseManagement(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin01")

	rec := env.do(t, http.MethodPost, "/api/admin/courses", model.CourseCreate{Code: "BIO110", Name: "生物学", Faculty: "生命科学学院"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	c := decodeBody[model.Course](t, rec)

	rec = env.do(t, http.MethodPost, "/api/admin/courses", model.CourseCreate{Code: "BIO110", Name: "x", Faculty: "y"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/admin/teachers/2/courses", courseIDsRequest{CourseIDs: []int64{c.ID}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set courses status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/admin/teachers?keyword=bob", nil)
	page := decodeBody[model.Page[model.Teacher]](t, rec)
	if page.Total != 1 || len(page.Items[0].CourseNames) != 1 || page.Items[0].CourseNames[0] != "生物学" {
		t.Errorf("teachers = %+v", page)
	}

	if rec := env.do(t, http.MethodDelete, "/api/admin/courses/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/admin/courses/"+itoa(c.ID), nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
}

func TestUpdateProfile_RefreshesSessionUser(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")
	before := env.store.CurrentCredential()

	name := "Alice Renamed"
	rec := env.do(t, http.MethodPut, "/api/profile/me", model.ProfileUpdate{FullName: &name})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if u := env.store.CurrentUser(); u == nil || u.FullName != name {
		t.Errorf("session user = %+v", u)
	}
	if after := env.store.CurrentCredential(); after == nil || after.AccessToken != before.AccessToken {
		t.Error("credential must be kept when the profile is refreshed")
	}
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "student01")

	rec := env.do(t, http.MethodGet, "/api/notifications/unread-count", nil)
	counts := decodeBody[model.NotificationCounts](t, rec)
	if counts.NewAnswers != 1 {
		t.Errorf("counts = %+v", counts)
	}
	if rec := env.do(t, http.MethodPost, "/api/notifications/mark-read", nil); rec.Code != http.StatusNoContent {
		t.Errorf("mark-read status = %d, want 204", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/notifications", nil)
	list := decodeBody[[]model.Notification](t, rec)
	for _, n := range list {
		if !n.IsRead {
			t.Errorf("notification %d still unread", n.ID)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	health := decodeBody[healthResponse](t, rec)
	if health.Status != "ok" || health.Mode != model.GatewaySimulated {
		t.Errorf("health = %+v", health)
	}

	env.do(t, http.MethodPost, "/api/auth/login", model.LoginRequest{Username: "student01", Password: "wrong"})

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	body := rec.Body.String()
	if !strings.Contains(body, `eduqa_gateway_operations_total{mode="simulated",operation="Login",outcome="INVALID_CREDENTIAL"} 1`) {
		t.Errorf("metrics missing the login failure:\n%s", body)
	}
}

func TestResponses_HaveSecurityAndRequestHeaders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/auth/session", nil)

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != testOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCSRFToken_MatchesCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/csrf-token", nil))
	token := decodeBody[map[string]string](t, rec)["token"]

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CSRFCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != token {
		t.Fatalf("cookie = %+v, token = %q", cookie, token)
	}
}

func TestCrossOriginStateChangeRejected(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin01")

	countTeachers := func() int {
		rec := env.do(t, http.MethodGet, "/api/admin/teachers?pageSize=100", nil)
		return decodeBody[model.Page[model.Teacher]](t, rec).Total
	}
	before := countTeachers()
	payload := `{"username":"intruder","email":"intruder@example.com","fullName":"Intruder","password":"secret123"}`

	// 他サイトのフォームから送られる単純リクエスト。トークンを持たない。
	req := httptest.NewRequest(http.MethodPost, "/api/admin/teachers", strings.NewReader(payload))
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-origin status = %d, want 403", rec.Code)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, rec); body.Code != "CSRF_TOKEN_INVALID" {
		t.Errorf("code = %q", body.Code)
	}
	if got := countTeachers(); got != before {
		t.Errorf("teachers = %d, want %d", got, before)
	}

	// トークンがあってもJSON以外の本文は受け付けない
	req = httptest.NewRequest(http.MethodPost, "/api/admin/teachers", strings.NewReader(payload))
	env.withCSRF(req)
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("text/plain status = %d, want 400", rec.Code)
	}
	if got := countTeachers(); got != before {
		t.Errorf("teachers = %d, want %d", got, before)
	}

	// 他オリジンからのプリフライトは拒否する
	req = httptest.NewRequest(http.MethodOptions, "/api/admin/teachers", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("preflight status = %d, want 403", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("Access-Control-Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

// mockGateway は一部の操作だけを差し替えるゲートウェイ。未設定の操作を呼ぶとpanicする。
type mockGateway struct {
	gateway.Gateway
	getProfileFn func(ctx context.Context) (*model.UserProfile, error)
}

func (m *mockGateway) Mode() gateway.Mode { return gateway.ModeRemote }

func (m *mockGateway) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	return m.getProfileFn(ctx)
}

func TestTransportErrorIsBadGateway(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := session.NewStore(nil, logger)
	store.SetAuth(model.UserProfile{ID: 1, Roles: []model.Role{model.RoleStudent}}, model.Credential{AccessToken: "tok"})

	env := newTestEnvWith(t, &mockGateway{
		getProfileFn: func(ctx context.Context) (*model.UserProfile, error) {
			return nil, &model.TransportError{Status: 0, Cause: errors.New("dial tcp: connection refused")}
		},
	}, store)

	rec := env.do(t, http.MethodGet, "/api/profile/me", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	body := decodeBody[middleware.ErrorResponseBody](t, rec)
	if body.Kind != string(model.KindTransport) {
		t.Errorf("kind = %q", body.Kind)
	}
}

func TestRecovery_PanicInGateway(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := session.NewStore(nil, logger)
	store.SetAuth(model.UserProfile{ID: 1}, model.Credential{AccessToken: "tok"})

	// getProfileFn以外の操作は埋め込みのnilインターフェースでpanicする
	env := newTestEnvWith(t, &mockGateway{}, store)

	rec := env.do(t, http.MethodGet, "/api/notifications", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
