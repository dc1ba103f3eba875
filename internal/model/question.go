package model

import "time"

// QuestionStatus は質問のステータスを表す。
// OPEN → ANSWERED → CLOSED の順にのみ遷移する。
type QuestionStatus string

// 質問ステータス
const (
	QuestionStatusOpen     QuestionStatus = "OPEN"
	QuestionStatusAnswered QuestionStatus = "ANSWERED"
	QuestionStatusClosed   QuestionStatus = "CLOSED"
)

// CanTransitionTo はstatusからnextへの遷移が定義されているかを返す。
// 同一ステータスへの再設定は冪等として許可する。
func (s QuestionStatus) CanTransitionTo(next QuestionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case QuestionStatusOpen:
		return next == QuestionStatusAnswered || next == QuestionStatusClosed
	case QuestionStatusAnswered:
		return next == QuestionStatusClosed
	default:
		return false
	}
}

// Attachment は質問・回答の添付ファイル。
type Attachment struct {
	ID       int64  `json:"id"`
	FilePath string `json:"filePath"`
	FileType string `json:"fileType"`
}

// Question は学生の質問を表す。
type Question struct {
	ID          int64          `json:"id"`
	CourseID    int64          `json:"courseId"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Status      QuestionStatus `json:"status"`
	AnswerCount int            `json:"answerCount"`
	StudentID   int64          `json:"studentId"`
	CreatedAt   time.Time      `json:"createdAt"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}

// QuestionDetail は質問詳細。回答一覧を含む。
type QuestionDetail struct {
	Question
	StudentName string   `json:"studentName,omitempty"`
	Answers     []Answer `json:"answers"`
}

// TeacherQuestion は教員向け質問一覧の要素。
type TeacherQuestion struct {
	Question
	StudentName string `json:"studentName,omitempty"`
	CourseName  string `json:"courseName,omitempty"`
}

// QuestionCreate は質問作成リクエスト。
type QuestionCreate struct {
	CourseID int64  `json:"courseId" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required"`
}

// QuestionUpdate は質問の部分更新。nilのフィールドは変更しない。
// Statusは管理者による更新でのみ使用する。
type QuestionUpdate struct {
	CourseID *int64          `json:"courseId,omitempty" validate:"omitempty,gt=0"`
	Title    *string         `json:"title,omitempty" validate:"omitempty,max=200"`
	Content  *string         `json:"content,omitempty"`
	Status   *QuestionStatus `json:"status,omitempty" validate:"omitempty,oneof=OPEN ANSWERED CLOSED"`
}

// Answer は教員の回答を表す。
type Answer struct {
	ID          int64        `json:"id"`
	QuestionID  int64        `json:"questionId"`
	TeacherID   int64        `json:"teacherId"`
	TeacherName string       `json:"teacherName,omitempty"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// AnswerCreate は回答作成リクエスト。
type AnswerCreate struct {
	QuestionID  int64        `json:"questionId" validate:"required,gt=0"`
	Content     string       `json:"content" validate:"required"`
	Attachments []FileUpload `json:"-"`
}

// AnswerUpdate は回答の部分更新。
type AnswerUpdate struct {
	Content *string `json:"content,omitempty"`
}
