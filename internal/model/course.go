package model

import "time"

// Course はコースを表す。
// TeacherNamesは読み出し時にTeacherIDsから導出される表示用キャッシュ。
type Course struct {
	ID           int64      `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Faculty      string     `json:"faculty"`
	TeacherIDs   []int64    `json:"teacherIds"`
	TeacherNames []string   `json:"teacherNames"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// CourseCreate はコース作成リクエスト。
type CourseCreate struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Faculty     string  `json:"faculty" validate:"required"`
	TeacherIDs  []int64 `json:"teacherIds,omitempty"`
}

// CourseUpdate はコースの部分更新。nilのフィールドは変更しない。
type CourseUpdate struct {
	Code        *string `json:"code,omitempty" validate:"omitempty,max=32"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Faculty     *string `json:"faculty,omitempty"`
	TeacherIDs  []int64 `json:"teacherIds,omitempty"` // nilは変更なし
}
