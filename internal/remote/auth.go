package remote

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/pipeline"
)

// Login はトークンを取得し、そのトークンでプロフィールを取得する。
// 既存のセッションは使用しない。
func (g *Gateway) Login(ctx context.Context, username, password string) (*model.AuthResult, error) {
	var cred model.Credential
	err := g.client.Do(ctx, pipeline.Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      model.LoginRequest{Username: username, Password: password},
		Anonymous: true,
	}, &cred)
	if err != nil {
		return nil, err
	}

	var profile model.UserProfile
	err = g.client.Do(ctx, pipeline.Request{
		Method:    http.MethodGet,
		Path:      "/profile/me",
		Anonymous: true,
		Token:     cred.AccessToken,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{Credential: cred, User: profile}, nil
}

// Register は新規登録後、同じ認証情報でログインする。
func (g *Gateway) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	err := g.client.Do(ctx, pipeline.Request{
		Method:    http.MethodPost,
		Path:      "/auth/register",
		Body:      req,
		Anonymous: true,
	}, nil)
	if err != nil {
		return nil, err
	}
	return g.Login(ctx, req.Username, req.Password)
}

// ForgotPassword はパスワード再設定コードの送信を依頼する。
func (g *Gateway) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodPost, Path: "/auth/forgot-password", Body: req, Anonymous: true}, nil)
}

// VerifyResetToken は再設定コードを検証する。
func (g *Gateway) VerifyResetToken(ctx context.Context, req model.VerifyResetTokenRequest) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodPost, Path: "/auth/verify-reset-token", Body: req, Anonymous: true}, nil)
}

// ResetPassword は再設定コードを使って新しいパスワードを設定する。
func (g *Gateway) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodPost, Path: "/auth/reset-password", Body: req, Anonymous: true}, nil)
}

// GetProfile はログイン中のユーザーのプロフィールを取得する。
func (g *Gateway) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	return fetch[model.UserProfile](ctx, g, "/profile/me", nil)
}

// UpdateProfile はプロフィールを部分更新する。
func (g *Gateway) UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := g.put(ctx, "/profile/me", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword はパスワードを変更する。
func (g *Gateway) ChangePassword(ctx context.Context, in model.PasswordChange) error {
	return g.put(ctx, "/profile/password", in, nil)
}
