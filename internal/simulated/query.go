package simulated

import (
	"path"
	"slices"
	"strings"

	"github.com/hitoshi/eduqa/internal/model"
)

// paginate はフィルタ済みの一覧から指定ページを切り出す。
// Totalは切り出し前の件数で、範囲外のページは空のItemsを返す。
func paginate[T any](items []T, p model.Paging) *model.Page[T] {
	page, size := p.Effective()
	total := len(items)

	start := total
	if page-1 <= total/size {
		start = min((page-1)*size, total)
	}
	end := start + min(size, total-start)

	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return &model.Page[T]{Items: out, Page: page, PageSize: size, Total: total}
}

// matchesKeyword はいずれかのフィールドがkeywordを大文字小文字を区別せずに含むかを返す。
// keywordが空の場合は常にtrue。
func matchesKeyword(keyword string, fields ...string) bool {
	if keyword == "" {
		return true
	}
	kw := strings.ToLower(keyword)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), kw) {
			return true
		}
	}
	return false
}

func (d *dataset) filterResources(q model.ResourceQuery, keep func(*model.Resource) bool) []model.Resource {
	out := []model.Resource{}
	for _, r := range d.resources {
		if keep != nil && !keep(r) {
			continue
		}
		if q.CourseID > 0 && r.CourseID != q.CourseID {
			continue
		}
		if !matchesKeyword(q.Keyword, r.Title, r.Summary) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// filterQuestions は全条件をANDで適用する。
// TeacherIDが教員として存在しない場合は何も一致しない。
func (d *dataset) filterQuestions(q model.QuestionQuery) []*model.Question {
	var teacherCourses []int64
	if q.TeacherID > 0 {
		if d.userByRole(q.TeacherID, model.RoleTeacher) == nil {
			return nil
		}
		teacherCourses = d.teacherCourseIDs(q.TeacherID)
	}

	var out []*model.Question
	for _, qs := range d.questions {
		if q.CourseID > 0 && qs.CourseID != q.CourseID {
			continue
		}
		if q.Status != "" && qs.Status != q.Status {
			continue
		}
		if !matchesKeyword(q.Keyword, qs.Title, qs.Content) {
			continue
		}
		if q.TeacherID > 0 && !slices.Contains(teacherCourses, qs.CourseID) {
			continue
		}
		out = append(out, qs)
	}
	return out
}

// fileType はファイル名の拡張子を小文字で返す。
func fileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
