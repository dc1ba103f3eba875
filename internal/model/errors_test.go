package model

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
)

func TestAPIError_ErrorReturnsMessageOnly(t *testing.T) {
	err := NewNotFoundError(EntityQuestion, 42)
	want := "指定された質問が見つかりません: 42"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Code != "QUESTION_NOT_FOUND" {
		t.Errorf("Code = %q, want QUESTION_NOT_FOUND", err.Code)
	}
}

func TestAPIError_IsMatchesByKind(t *testing.T) {
	wrapped := fmt.Errorf("削除に失敗しました: %w", NewNotFoundError(EntityAnswer, 1))

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped NotFound は ErrNotFound に一致しなければならない")
	}
	if errors.Is(wrapped, ErrInvalidCredential) {
		t.Error("NotFound は ErrInvalidCredential に一致してはならない")
	}
	if !errors.Is(NewWrongOldPasswordError(), ErrInvalidCredential) {
		t.Error("WrongOldPassword は InvalidCredential に分類されなければならない")
	}
}

func TestTransportError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("request: %w", &TransportError{Status: 0, Cause: cause})

	if !errors.Is(err, ErrTransport) {
		t.Error("TransportError は ErrTransport に一致しなければならない")
	}
	if !errors.Is(err, cause) {
		t.Error("TransportError は原因エラーをUnwrapできなければならない")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindTransport)
	}
}

func TestTransportError_MessageIncludesStatus(t *testing.T) {
	err := &TransportError{Status: 502}
	want := "サーバーとの通信に失敗しました（HTTP 502）。"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOf_UnclassifiedError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Errorf("KindOf = %q, want empty", got)
	}
}

func TestNewRemoteRejectedError_EmptyMessageFallsBack(t *testing.T) {
	err := NewRemoteRejectedError("")
	if err.Message != "リクエストに失敗しました。" {
		t.Errorf("Message = %q", err.Message)
	}
	if got := NewRemoteRejectedError("課程代码已存在").Message; got != "課程代码已存在" {
		t.Errorf("サーバーのメッセージはそのまま保持されなければならない: %q", got)
	}
}

func TestQuestionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to QuestionStatus
		want     bool
	}{
		{QuestionStatusOpen, QuestionStatusAnswered, true},
		{QuestionStatusOpen, QuestionStatusClosed, true},
		{QuestionStatusAnswered, QuestionStatusAnswered, true},
		{QuestionStatusAnswered, QuestionStatusClosed, true},
		{QuestionStatusAnswered, QuestionStatusOpen, false},
		{QuestionStatusClosed, QuestionStatusOpen, false},
		{QuestionStatusClosed, QuestionStatusAnswered, false},
		{QuestionStatusClosed, QuestionStatusClosed, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaging_Effective(t *testing.T) {
	page, size := Paging{}.Effective()
	if page != 1 || size != 10 {
		t.Errorf("Effective() = (%d, %d), want (1, 10)", page, size)
	}
	page, size = Paging{Page: 3, PageSize: 25}.Effective()
	if page != 3 || size != 25 {
		t.Errorf("Effective() = (%d, %d), want (3, 25)", page, size)
	}
}

func TestQuestionQuery_ValuesOmitsEmptyFilters(t *testing.T) {
	v := QuestionQuery{CourseID: 101, Status: QuestionStatusOpen}.Values()
	want := url.Values{
		"page":     {"1"},
		"pageSize": {"10"},
		"courseId": {"101"},
		"status":   {"OPEN"},
	}
	if v.Encode() != want.Encode() {
		t.Errorf("Values() = %q, want %q", v.Encode(), want.Encode())
	}
}

func TestUserProfile_HasAnyRole(t *testing.T) {
	u := &UserProfile{Roles: []Role{RoleStudent, RoleTeacher}}
	if !u.HasAnyRole(RoleAdmin, RoleTeacher) {
		t.Error("TEACHER を保持しているため true でなければならない")
	}
	if u.HasAnyRole(RoleAdmin) {
		t.Error("ADMIN を保持していないため false でなければならない")
	}
	var nilUser *UserProfile
	if nilUser.HasRole(RoleStudent) {
		t.Error("nil ユーザーはロールを持たない")
	}
}
