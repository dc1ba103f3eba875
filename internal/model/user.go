// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーのロールを表す。1ユーザーが複数のロールを持つことがある。
type Role string

// ロール
const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// UserStatus はアカウントの状態を表す。
type UserStatus string

// アカウント状態
const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDisabled UserStatus = "DISABLED"
)

// Credential は認証トークンの組を表す。
// クライアントは存在有無以外の中身を解釈しない。
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn,omitempty"` // 有効期間（秒）の目安
}

// UserProfile は認証済みユーザーのプロフィールを表す。
type UserProfile struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Department string `json:"department,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Roles      []Role `json:"roles"`
}

// HasRole は指定ロールを保持しているかを返す。
func (u *UserProfile) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole はrolesのいずれかを保持しているかを返す。
func (u *UserProfile) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// AuthResult はログイン・登録の結果を表す。
type AuthResult struct {
	Credential Credential  `json:"tokens"`
	User       UserProfile `json:"user"`
}

// LoginRequest はログインリクエスト。Usernameにはメールアドレスも指定できる。
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest は新規登録リクエスト。
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FullName   string `json:"fullName" validate:"required"`
	Department string `json:"department,omitempty"`
	SchoolID   string `json:"schoolId,omitempty"`
}

// ProfileUpdate はプロフィールの部分更新。nilのフィールドは変更しない。
type ProfileUpdate struct {
	FullName   *string `json:"fullName,omitempty"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Department *string `json:"department,omitempty"`
	AvatarURL  *string `json:"avatarUrl,omitempty"`
}

// PasswordChange はパスワード変更リクエスト。
type PasswordChange struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// ForgotPasswordRequest はパスワード再設定コードの送信リクエスト。
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyResetTokenRequest はパスワード再設定コードの検証リクエスト。
type VerifyResetTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required,len=6,numeric"`
}

// ResetPasswordRequest はパスワード再設定リクエスト。
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Teacher は管理者向けの教員プロジェクション。
// ユーザーとコース割り当てから導出され、独立して保存されない。
type Teacher struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Department  string     `json:"department,omitempty"`
	Title       string     `json:"title,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	CourseIDs   []int64    `json:"courseIds"`
	CourseNames []string   `json:"courseNames"`
	Status      UserStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// TeacherCreate は教員作成リクエスト。Passwordが空の場合は初期パスワードが設定される。
type TeacherCreate struct {
	Username   string  `json:"username" validate:"required,min=3,max=50"`
	Email      string  `json:"email" validate:"required,email"`
	FullName   string  `json:"fullName" validate:"required"`
	Password   string  `json:"password,omitempty" validate:"omitempty,min=6"`
	Department string  `json:"department,omitempty"`
	Title      string  `json:"title,omitempty"`
	Bio        string  `json:"bio,omitempty"`
	CourseIDs  []int64 `json:"courseIds,omitempty"`
}

// TeacherUpdate は教員の部分更新。nilのフィールドは変更しない。
type TeacherUpdate struct {
	Username   *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName   *string `json:"fullName,omitempty"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=6"`
	Department *string `json:"department,omitempty"`
	Title      *string `json:"title,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	CourseIDs  []int64 `json:"courseIds,omitempty"` // nilは変更なし
}

// Student は管理者向けの学生プロジェクション。
type Student struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Department  string     `json:"department,omitempty"`
	SchoolID    string     `json:"schoolId,omitempty"`
	Status      UserStatus `json:"status"`
	CourseIDs   []int64    `json:"courseIds"`
	CourseNames []string   `json:"courseNames"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// GatewayMode はゲートウェイの実装種別。
type GatewayMode string

// ゲートウェイ種別
const (
	GatewaySimulated GatewayMode = "simulated"
	GatewayRemote    GatewayMode = "remote"
)
