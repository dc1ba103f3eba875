// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はゲートウェイが返すエラーの分類を表す。
// UI層はKindで分岐し、Messageをそのまま表示する。
type ErrorKind string

// 定義済みエラー分類
const (
	KindInvalidCredential ErrorKind = "INVALID_CREDENTIAL"
	KindDuplicateEntity   ErrorKind = "DUPLICATE_ENTITY"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindNotAuthenticated  ErrorKind = "NOT_AUTHENTICATED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindRemoteRejected    ErrorKind = "REMOTE_REJECTED"
	KindTransport         ErrorKind = "TRANSPORT_ERROR"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindInvalidState      ErrorKind = "INVALID_STATE"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // エラー分類
	Code     string    // 詳細エラーコード（例: QUESTION_NOT_FOUND）
	Message  string    // ユーザー向けメッセージ
	Category string    // カテゴリ: auth, validation, content, admin, remote, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
// 画面にそのまま表示されるため、メッセージのみを返す。
func (e *APIError) Error() string {
	return e.Message
}

// Is はerrors.Isでの比較を分類単位で行う。
// targetのCodeが空の場合はKindのみで一致判定する。
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// errors.Is で分類判定するためのセンチネル。
var (
	ErrInvalidCredential = &APIError{Kind: KindInvalidCredential}
	ErrDuplicateEntity   = &APIError{Kind: KindDuplicateEntity}
	ErrNotFound          = &APIError{Kind: KindNotFound}
	ErrNotAuthenticated  = &APIError{Kind: KindNotAuthenticated}
	ErrForbidden         = &APIError{Kind: KindForbidden}
	ErrRemoteRejected    = &APIError{Kind: KindRemoteRejected}
	ErrTransport         = &APIError{Kind: KindTransport}
	ErrInvalidInput      = &APIError{Kind: KindInvalidInput}
	ErrInvalidState      = &APIError{Kind: KindInvalidState}
)

// TransportError はアプリケーションエンベロープより下の層で失敗したリクエストを表す。
// Statusは0の場合ネットワーク到達前の失敗を意味する。
type TransportError struct {
	Status int
	Cause  error
}

// Error はerrorインターフェースを実装する。
func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("サーバーとの通信に失敗しました（HTTP %d）。", e.Status)
	}
	return "サーバーに接続できませんでした。"
}

// Unwrap は原因エラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is はErrTransportとの比較を可能にする。
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == KindTransport && t.Code == ""
}

// KindOf はエラーの分類を返す。分類できないエラーの場合は空文字を返す。
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return KindTransport
	}
	return ""
}

// Entity はNotFound等のメッセージに使うエンティティ種別。
type Entity string

// エンティティ種別
const (
	EntityUser     Entity = "ユーザー"
	EntityCourse   Entity = "コース"
	EntityTeacher  Entity = "教員"
	EntityStudent  Entity = "学生"
	EntityResource Entity = "資料"
	EntityQuestion Entity = "質問"
	EntityAnswer   Entity = "回答"
)

var entityCodes = map[Entity]string{
	EntityUser:     "USER",
	EntityCourse:   "COURSE",
	EntityTeacher:  "TEACHER",
	EntityStudent:  "STUDENT",
	EntityResource: "RESOURCE",
	EntityQuestion: "QUESTION",
	EntityAnswer:   "ANSWER",
}

// NewInvalidCredentialError は認証情報不一致エラーを生成する。
// ユーザー名の列挙を防ぐため、未登録ユーザーとパスワード誤りを区別しない。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Kind:     KindInvalidCredential,
		Code:     "INVALID_CREDENTIAL",
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewWrongOldPasswordError はパスワード変更時の現在のパスワード不一致エラーを生成する。
func NewWrongOldPasswordError() *APIError {
	return &APIError{
		Kind:     KindInvalidCredential,
		Code:     "WRONG_OLD_PASSWORD",
		Message:  "現在のパスワードが正しくありません。",
		Category: "auth",
		Action:   "現在のパスワードを確認してください。",
	}
}

// NewInvalidResetTokenError はパスワード再設定コードの不一致エラーを生成する。
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Kind:     KindInvalidCredential,
		Code:     "INVALID_RESET_TOKEN",
		Message:  "確認コードが無効です。",
		Category: "auth",
		Action:   "メールに記載された6桁のコードを入力してください。",
	}
}

// NewDuplicateUserError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Kind:     KindDuplicateEntity,
		Code:     "DUPLICATE_USER",
		Message:  "ユーザー名またはメールアドレスは既に使用されています。",
		Category: "validation",
		Action:   "別のユーザー名またはメールアドレスを指定してください。",
	}
}

// NewDuplicateCourseCodeError はコースコードの重複エラーを生成する。
func NewDuplicateCourseCodeError(code string) *APIError {
	return &APIError{
		Kind:     KindDuplicateEntity,
		Code:     "DUPLICATE_COURSE_CODE",
		Message:  fmt.Sprintf("コースコードは既に使用されています: %s", code),
		Category: "validation",
		Action:   "別のコースコードを指定してください。",
	}
}

// NewNotFoundError は対象エンティティ未検出エラーを生成する。
func NewNotFoundError(entity Entity, id int64) *APIError {
	code, ok := entityCodes[entity]
	if !ok {
		code = "ENTITY"
	}
	return &APIError{
		Kind:     KindNotFound,
		Code:     code + "_NOT_FOUND",
		Message:  fmt.Sprintf("指定された%sが見つかりません: %d", entity, id),
		Category: "content",
		Action:   "一覧を再読み込みしてから再度お試しください。",
	}
}

// NewEmailNotFoundError は登録されていないメールアドレスのエラーを生成する。
func NewEmailNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     "EMAIL_NOT_FOUND",
		Message:  "メールアドレスが登録されていません。",
		Category: "auth",
		Action:   "登録済みのメールアドレスを入力してください。",
	}
}

// NewNotAuthenticatedError は未ログインエラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Kind:     KindNotAuthenticated,
		Code:     "NOT_AUTHENTICATED",
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     "FORBIDDEN",
		Message:  "このページを表示する権限がありません。",
		Category: "auth",
		Action:   "必要な権限を持つアカウントでログインしてください。",
	}
}

// NewCSRFTokenError はCSRFトークンの検証に失敗した場合のエラーを生成する。
func NewCSRFTokenError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     "CSRF_TOKEN_INVALID",
		Message:  "リクエストを検証できませんでした。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRemoteRejectedError はサーバーが非0コードで応答した場合のエラーを生成する。
// サーバーのメッセージをそのまま保持する。
func NewRemoteRejectedError(message string) *APIError {
	if message == "" {
		message = "リクエストに失敗しました。"
	}
	return &APIError{
		Kind:     KindRemoteRejected,
		Code:     "REMOTE_REJECTED",
		Message:  message,
		Category: "remote",
		Action:   "内容を確認して再度お試しください。",
	}
}

// NewInvalidInputError は入力値検証エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     "INVALID_INPUT",
		Message:  fmt.Sprintf("入力内容が正しくありません: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewQuestionNotEditableError はOPEN以外の質問を学生が編集しようとした場合のエラーを生成する。
func NewQuestionNotEditableError(status QuestionStatus) *APIError {
	return &APIError{
		Kind:     KindInvalidState,
		Code:     "QUESTION_NOT_EDITABLE",
		Message:  fmt.Sprintf("この質問は編集できません（状態: %s）。", status),
		Category: "content",
		Action:   "未回答の質問のみ編集できます。",
	}
}

// NewInvalidTransitionError は質問ステータスの不正な遷移エラーを生成する。
func NewInvalidTransitionError(from, to QuestionStatus) *APIError {
	return &APIError{
		Kind:     KindInvalidState,
		Code:     "INVALID_STATUS_TRANSITION",
		Message:  fmt.Sprintf("質問の状態を %s から %s に変更することはできません。", from, to),
		Category: "content",
		Action:   "クローズ済みの質問は変更できません。",
	}
}
