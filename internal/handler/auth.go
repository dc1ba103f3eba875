package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/eduqa/internal/guard"
	"github.com/hitoshi/eduqa/internal/model"
)

// sessionResponse はセッション状態のレスポンス。
type sessionResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *model.UserProfile `json:"user,omitempty"`
	Mode          model.GatewayMode  `json:"mode"`
}

// Login はログインし、成功した場合にセッションへ保存する。
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "Login", err)
		return
	}
	h.call(w, r, "Login", http.StatusOK, func(ctx context.Context) (any, error) {
		res, err := h.gw.Login(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		h.store.SetAuth(res.User, res.Credential)
		h.logger.Info("user logged in", slog.Int64("user_id", res.User.ID))
		return res, nil
	})
}

// Register は新規登録し、続けてログインした状態をセッションへ保存する。
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "Register", err)
		return
	}
	h.call(w, r, "Register", http.StatusCreated, func(ctx context.Context) (any, error) {
		res, err := h.gw.Register(ctx, req)
		if err != nil {
			return nil, err
		}
		h.store.SetAuth(res.User, res.Credential)
		return res, nil
	})
}

// Logout はセッションを破棄する。
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// Session は現在のセッション状態を返す。
// GET /api/auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	res := sessionResponse{Authenticated: snap.Authenticated(), Mode: h.gw.Mode()}
	if res.Authenticated {
		res.User = snap.User
	}
	writeJSON(w, http.StatusOK, res)
}

// Navigate は画面パスへの遷移可否を返す。画面側は遷移のたびに呼び出す。
// GET /api/auth/navigate?path=/admin/courses
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.writeError(w, r, "Navigate", model.NewInvalidInputError("pathを指定してください"))
		return
	}
	writeJSON(w, http.StatusOK, guard.Navigate(h.store.Snapshot(), path))
}

// ForgotPassword はパスワード再設定コードの送信を依頼する。
// POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "ForgotPassword", err)
		return
	}
	h.call(w, r, "ForgotPassword", http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, h.gw.ForgotPassword(ctx, req)
	})
}

// VerifyResetToken はパスワード再設定コードを検証する。
// POST /api/auth/verify-reset-token
func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyResetTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "VerifyResetToken", err)
		return
	}
	h.call(w, r, "VerifyResetToken", http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, h.gw.VerifyResetToken(ctx, req)
	})
}

// ResetPassword はパスワードを再設定する。
// POST /api/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "ResetPassword", err)
		return
	}
	h.call(w, r, "ResetPassword", http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, h.gw.ResetPassword(ctx, req)
	})
}

// GetProfile はログイン中のユーザーのプロフィールを返す。
// GET /api/profile/me
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "GetProfile", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetProfile(ctx)
	})
}

// UpdateProfile はプロフィールを更新し、セッション上のユーザー情報も置き換える。
// PUT /api/profile/me
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "UpdateProfile", err)
		return
	}
	h.call(w, r, "UpdateProfile", http.StatusOK, func(ctx context.Context) (any, error) {
		p, err := h.gw.UpdateProfile(ctx, req)
		if err != nil {
			return nil, err
		}
		if cred := h.store.CurrentCredential(); cred != nil {
			h.store.SetAuth(*p, *cred)
		}
		return p, nil
	})
}

// ChangePassword はパスワードを変更する。
// PUT /api/profile/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordChange
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, "ChangePassword", err)
		return
	}
	h.call(w, r, "ChangePassword", http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, h.gw.ChangePassword(ctx, req)
	})
}
