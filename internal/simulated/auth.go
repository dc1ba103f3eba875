package simulated

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eduqa/internal/model"
)

// ResetCode はデモ環境で受け付けるパスワード再設定コード。
const ResetCode = "123456"

// Login はユーザー名またはメールアドレスとパスワードが一致した場合にトークンを発行する。
// 未登録ユーザーとパスワード誤りは同じエラーになる。
func (g *Gateway) Login(ctx context.Context, username, password string) (*model.AuthResult, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.login(username, password)
}

func (g *Gateway) login(username, password string) (*model.AuthResult, error) {
	u := g.db.userByLogin(username)
	if u == nil || u.status == model.UserStatusDisabled {
		return nil, model.NewInvalidCredentialError()
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return nil, model.NewInvalidCredentialError()
	}

	cred, err := g.issueCredential(u)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	return &model.AuthResult{Credential: cred, User: profileView(u)}, nil
}

// Register は学生ユーザーを作成し、続けて同じ資格情報でログインする。
func (g *Gateway) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := g.check(req); err != nil {
		return nil, err
	}
	if g.db.identityTaken(req.Username, req.Email, 0) {
		return nil, model.NewDuplicateUserError()
	}
	hash, err := g.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &userRecord{
		profile: model.UserProfile{
			ID:         g.db.nextID(&g.db.next.user),
			Username:   req.Username,
			Email:      req.Email,
			FullName:   req.FullName,
			Department: req.Department,
			Roles:      []model.Role{model.RoleStudent},
		},
		passwordHash: hash,
		status:       model.UserStatusActive,
		schoolID:     req.SchoolID,
		courseIDs:    []int64{},
		createdAt:    g.now(),
	}
	g.db.users = append(g.db.users, u)
	g.logger.Info("user registered", slog.Int64("user_id", u.profile.ID), slog.String("mode", string(model.GatewaySimulated)))

	return g.login(req.Username, req.Password)
}

// ForgotPassword は登録済みのメールアドレスに再設定コードを送信したものとして扱う。
func (g *Gateway) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := g.check(req); err != nil {
		return err
	}
	if g.db.userByEmail(req.Email) == nil {
		return model.NewEmailNotFoundError()
	}
	g.logger.Debug("password reset code issued", slog.String("email", req.Email), slog.String("code", ResetCode))
	return nil
}

// VerifyResetToken は再設定コードを検証する。
func (g *Gateway) VerifyResetToken(ctx context.Context, req model.VerifyResetTokenRequest) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := g.check(req); err != nil {
		return err
	}
	if req.Token != ResetCode {
		return model.NewInvalidResetTokenError()
	}
	return nil
}

// ResetPassword は再設定コードを検証してパスワードを置き換える。
func (g *Gateway) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := g.check(req); err != nil {
		return err
	}
	u := g.db.userByEmail(req.Email)
	if u == nil {
		return model.NewEmailNotFoundError()
	}
	if req.Token != ResetCode {
		return model.NewInvalidResetTokenError()
	}
	hash, err := g.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

// GetProfile はログイン中のユーザーのプロフィールを返す。
func (g *Gateway) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	p := profileView(u)
	return &p, nil
}

// UpdateProfile はログイン中のユーザーのプロフィールを部分更新する。
func (g *Gateway) UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.UserProfile, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	if err := g.check(in); err != nil {
		return nil, err
	}
	if in.Email != nil && g.db.identityTaken("", *in.Email, u.profile.ID) {
		return nil, model.NewDuplicateUserError()
	}

	if in.FullName != nil {
		u.profile.FullName = *in.FullName
	}
	if in.Email != nil {
		u.profile.Email = *in.Email
	}
	if in.Department != nil {
		u.profile.Department = *in.Department
	}
	if in.AvatarURL != nil {
		u.profile.AvatarURL = *in.AvatarURL
	}
	now := g.now()
	u.updatedAt = &now

	p := profileView(u)
	return &p, nil
}

// ChangePassword は現在のパスワードを確認してから新しいパスワードに置き換える。
func (g *Gateway) ChangePassword(ctx context.Context, in model.PasswordChange) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return err
	}
	if err := g.check(in); err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.OldPassword)) != nil {
		return model.NewWrongOldPasswordError()
	}
	hash, err := g.hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}
