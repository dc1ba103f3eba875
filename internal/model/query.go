package model

import (
	"net/url"
	"strconv"
)

// ページネーションのデフォルト値
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Page はページ分割された一覧結果。
// PageとPageSizeは実際に適用された値、Totalはフィルタ適用後の全件数を表す。
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Paging はページ指定。0以下の値は未指定として扱う。
type Paging struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"pageSize,omitempty"`
}

// Effective はデフォルトを補完した実効ページ指定を返す。
func (p Paging) Effective() (page, pageSize int) {
	page, pageSize = p.Page, p.PageSize
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

func (p Paging) values() url.Values {
	v := url.Values{}
	page, pageSize := p.Effective()
	v.Set("page", strconv.Itoa(page))
	v.Set("pageSize", strconv.Itoa(pageSize))
	return v
}

// ResourceQuery は資料一覧の検索条件。
type ResourceQuery struct {
	Paging
	CourseID int64  `json:"courseId,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

// Values はクエリ文字列表現を返す。
func (q ResourceQuery) Values() url.Values {
	v := q.Paging.values()
	setID(v, "courseId", q.CourseID)
	setString(v, "keyword", q.Keyword)
	return v
}

// QuestionQuery は質問一覧の検索条件。全条件はANDで結合される。
type QuestionQuery struct {
	Paging
	CourseID  int64          `json:"courseId,omitempty"`
	Status    QuestionStatus `json:"status,omitempty"`
	Keyword   string         `json:"keyword,omitempty"`
	TeacherID int64          `json:"teacherId,omitempty"`
}

// Values はクエリ文字列表現を返す。
func (q QuestionQuery) Values() url.Values {
	v := q.Paging.values()
	setID(v, "courseId", q.CourseID)
	setString(v, "status", string(q.Status))
	setString(v, "keyword", q.Keyword)
	setID(v, "teacherId", q.TeacherID)
	return v
}

// CourseQuery はコース一覧の検索条件。
type CourseQuery struct {
	Paging
	Keyword string `json:"keyword,omitempty"`
	Faculty string `json:"faculty,omitempty"`
}

// Values はクエリ文字列表現を返す。
func (q CourseQuery) Values() url.Values {
	v := q.Paging.values()
	setString(v, "keyword", q.Keyword)
	setString(v, "faculty", q.Faculty)
	return v
}

// PersonQuery は教員・学生一覧の検索条件。
type PersonQuery struct {
	Paging
	Keyword    string `json:"keyword,omitempty"`
	Department string `json:"department,omitempty"`
}

// Values はクエリ文字列表現を返す。
func (q PersonQuery) Values() url.Values {
	v := q.Paging.values()
	setString(v, "keyword", q.Keyword)
	setString(v, "department", q.Department)
	return v
}

func setID(v url.Values, key string, id int64) {
	if id > 0 {
		v.Set(key, strconv.FormatInt(id, 10))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Set(key, s)
	}
}
