// Package guard はセッション状態に基づいて画面遷移とAPI呼び出しの可否を判定する。
//
// 判定はリクエストごとに毎回セッションストアを読み直して行い、結果をキャッシュしない。
// ログアウト直後の遷移は即座に未認証として扱われる。
package guard

import (
	"net/url"
	"strings"

	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/session"
)

// 遷移先
const (
	LoginPath   = "/login"
	LandingPath = "/resources"
)

// Decision はアクセス判定の結果。
// Allowedがfalseの場合、Redirectに遷移先、Errに拒否理由が入る。
type Decision struct {
	Allowed  bool            `json:"allowed"`
	Redirect string          `json:"redirect,omitempty"`
	From     string          `json:"from,omitempty"` // ログイン後に戻る元の遷移先
	Err      *model.APIError `json:"-"`
}

// Evaluate はセッション状態snapに対して、targetへの遷移をrequiredのロール条件で判定する。
// requiredが空の場合はログインしていれば許可する。
func Evaluate(snap session.Snapshot, target string, required []model.Role) Decision {
	if !snap.Authenticated() {
		return Decision{
			Redirect: LoginPath,
			From:     target,
			Err:      model.NewNotAuthenticatedError(),
		}
	}
	if len(required) == 0 {
		return Decision{Allowed: true}
	}
	if snap.User == nil || !snap.User.HasAnyRole(required...) {
		return Decision{
			Redirect: LandingPath,
			Err:      model.NewForbiddenError(),
		}
	}
	return Decision{Allowed: true}
}

// LoginURL はログイン後にfromへ戻るためのログイン画面URLを返す。
func (d Decision) LoginURL() string {
	if d.From == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {d.From}}.Encode()
}

// Rule は画面パスの接頭辞と必要なロールの組。Rolesが空の場合はログインのみ必要。
type Rule struct {
	Prefix string
	Roles  []model.Role
}

// Routes は画面遷移の判定表。より長い接頭辞が優先される。
var Routes = []Rule{
	{Prefix: "/resources"},
	{Prefix: "/questions"},
	{Prefix: "/notifications"},
	{Prefix: "/profile"},
	{Prefix: "/settings"},
	{Prefix: "/admin", Roles: []model.Role{model.RoleAdmin}},
	{Prefix: "/teacher", Roles: []model.Role{model.RoleTeacher, model.RoleAdmin}},
}

// publicPaths はログイン不要の画面。
var publicPaths = []string{LoginPath, "/register", "/forgot-password"}

// RequiredRoles はpathに必要なロールを返す。
// ログイン不要の画面ではprotectedがfalseになる。判定表にないパスはログインのみ必要とする。
func RequiredRoles(path string) (roles []model.Role, protected bool) {
	for _, p := range publicPaths {
		if path == p {
			return nil, false
		}
	}
	best := -1
	for i, r := range Routes {
		if matchesPrefix(path, r.Prefix) && (best < 0 || len(r.Prefix) > len(Routes[best].Prefix)) {
			best = i
		}
	}
	if best < 0 {
		return nil, true
	}
	return Routes[best].Roles, true
}

// Navigate は画面パスへの遷移を判定表に従って判定する。
func Navigate(snap session.Snapshot, path string) Decision {
	roles, protected := RequiredRoles(path)
	if !protected {
		return Decision{Allowed: true}
	}
	return Evaluate(snap, path, roles)
}

func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}
