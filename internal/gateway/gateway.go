// Package gateway はアプリケーションが実行できる全操作の契約を定義する。
//
// 実装はリモートAPIを呼び出すremote.Gatewayと、メモリ上のデータセットで
// サーバーの振る舞いを再現するsimulated.Gatewayの2種類で、
// 起動時にNewで一方が選ばれる。呼び出し側はGatewayインターフェースのみに依存する。
//
// すべての操作は失敗時にerrorを返し、panicしない。
// エラーメッセージは画面にそのまま表示できる文言である。
package gateway

import (
	"context"

	"github.com/hitoshi/eduqa/internal/model"
)

// Mode はゲートウェイの実装種別。
type Mode = model.GatewayMode

// ゲートウェイ種別
const (
	ModeSimulated = model.GatewaySimulated
	ModeRemote    = model.GatewayRemote
)

// Gateway はアプリケーションが実行できる全操作の契約。
// 一覧系の操作はpage=1、pageSize=10を既定値とし、実際に適用した値と
// フィルタ適用後の全件数を返す。
type Gateway interface {
	Mode() Mode

	Auth
	StudentResources
	StudentQuestions
	Notifications
	AdminCourses
	AdminTeachers
	AdminStudents
	AdminModeration
	TeacherWorkspace
	Profile
}

// Auth は認証関連の操作。ログイン結果のセッションへの保存は呼び出し側が行う。
type Auth interface {
	Login(ctx context.Context, username, password string) (*model.AuthResult, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error)
	ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error
	VerifyResetToken(ctx context.Context, req model.VerifyResetTokenRequest) error
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error
}

// StudentResources は学生向けの資料操作。
type StudentResources interface {
	GetResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error)
	GetMyResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error)
	GetResourceByID(ctx context.Context, id int64) (*model.ResourceDetail, error)
	UploadResource(ctx context.Context, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error)
	UpdateResource(ctx context.Context, id int64, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error)
	DeleteResource(ctx context.Context, id int64) error
}

// StudentQuestions は学生向けの質問操作。
type StudentQuestions interface {
	GetQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error)
	SearchQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error)
	GetQuestionByID(ctx context.Context, id int64) (*model.QuestionDetail, error)
	CreateQuestion(ctx context.Context, in model.QuestionCreate, attachments []model.FileUpload) (*model.Question, error)
	UpdateQuestion(ctx context.Context, id int64, in model.QuestionUpdate) (*model.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

// Notifications は通知関連の操作。
type Notifications interface {
	GetNotificationCounts(ctx context.Context) (*model.NotificationCounts, error)
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationsAsRead(ctx context.Context) error
}

// AdminCourses は管理者向けのコース操作。
type AdminCourses interface {
	GetCourses(ctx context.Context, q model.CourseQuery) (*model.Page[model.Course], error)
	CreateCourse(ctx context.Context, in model.CourseCreate) (*model.Course, error)
	UpdateCourse(ctx context.Context, id int64, in model.CourseUpdate) (*model.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
}

// AdminTeachers は管理者向けの教員操作。
type AdminTeachers interface {
	GetTeachers(ctx context.Context, q model.PersonQuery) (*model.Page[model.Teacher], error)
	CreateTeacher(ctx context.Context, in model.TeacherCreate) (*model.Teacher, error)
	UpdateTeacher(ctx context.Context, id int64, in model.TeacherUpdate) (*model.Teacher, error)
	SetTeacherCourses(ctx context.Context, teacherID int64, courseIDs []int64) error
	DeleteTeacher(ctx context.Context, id int64) error
}

// AdminStudents は管理者向けの学生操作。
type AdminStudents interface {
	GetStudents(ctx context.Context, q model.PersonQuery) (*model.Page[model.Student], error)
	SetStudentCourses(ctx context.Context, studentID int64, courseIDs []int64) error
}

// AdminModeration は管理者向けのコンテンツ管理操作。
type AdminModeration interface {
	GetAllResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error)
	AdminDeleteResource(ctx context.Context, id int64) error
	AdminUpdateResource(ctx context.Context, id int64, in model.ResourceUpdate) (*model.Resource, error)
	GetAllQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error)
	AdminDeleteQuestion(ctx context.Context, id int64) error
	AdminUpdateQuestion(ctx context.Context, id int64, in model.QuestionUpdate) (*model.Question, error)
	AdminDeleteAnswer(ctx context.Context, id int64) error
	AdminUpdateAnswer(ctx context.Context, id int64, in model.AnswerUpdate) (*model.Answer, error)
}

// TeacherWorkspace は教員向けの操作。
type TeacherWorkspace interface {
	GetTeacherDashboardStats(ctx context.Context) (*model.TeacherDashboardStats, error)
	GetTeacherQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.TeacherQuestion], error)
	GetTeacherQuestionByID(ctx context.Context, id int64) (*model.QuestionDetail, error)
	CreateAnswer(ctx context.Context, in model.AnswerCreate) (*model.Answer, error)
	UpdateAnswer(ctx context.Context, id int64, in model.AnswerUpdate) (*model.Answer, error)
	DeleteAnswer(ctx context.Context, id int64) error
	UploadTeacherResource(ctx context.Context, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error)
}

// Profile はログイン中のユーザー自身に対する操作。
type Profile interface {
	GetProfile(ctx context.Context) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.UserProfile, error)
	ChangePassword(ctx context.Context, in model.PasswordChange) error
}
