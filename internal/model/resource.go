package model

import "time"

// Visibility は資料の公開範囲を表す。
type Visibility string

// 公開範囲
const (
	VisibilityPublic     Visibility = "PUBLIC"
	VisibilityCourseOnly Visibility = "COURSE_ONLY"
)

// Resource は共有資料を表す。
// DownloadCountはサーバー（またはシミュレーション）のみが増加させる。
type Resource struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary,omitempty"`
	CourseID      int64      `json:"courseId"`
	Visibility    Visibility `json:"visibility"`
	UploaderID    int64      `json:"uploaderId"`
	DownloadCount int        `json:"downloadCount"`
	FileType      string     `json:"fileType,omitempty"`
	FileSize      int64      `json:"fileSize,omitempty"`
	FilePath      string     `json:"filePath,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ResourceDetail は資料詳細。アップロード者名とダウンロードURLを含む。
type ResourceDetail struct {
	Resource
	UploaderName string `json:"uploaderName,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"`
}

// ResourceMetadata は資料のファイル以外の属性。multipartのmetadataフィールドとして送信される。
type ResourceMetadata struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Summary    string     `json:"summary,omitempty"`
	CourseID   int64      `json:"courseId" validate:"required,gt=0"`
	Visibility Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=PUBLIC COURSE_ONLY"`
}

// ResourceUpdate は管理者による資料の部分更新。nilのフィールドは変更しない。
type ResourceUpdate struct {
	Title      *string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Summary    *string     `json:"summary,omitempty"`
	CourseID   *int64      `json:"courseId,omitempty" validate:"omitempty,gt=0"`
	Visibility *Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=PUBLIC COURSE_ONLY"`
}

// FileUpload はクライアントからアップロードされるファイル。
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}
