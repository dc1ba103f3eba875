package remote

import (
	"context"

	"github.com/hitoshi/eduqa/internal/model"
)

// courseIDsBody はコース割り当て設定のリクエストボディ。
type courseIDsBody struct {
	CourseIDs []int64 `json:"courseIds"`
}

func (g *Gateway) GetCourses(ctx context.Context, q model.CourseQuery) (*model.Page[model.Course], error) {
	return fetchPage[model.Course](ctx, g, "/admin/courses", q.Values(), q.Paging)
}

func (g *Gateway) CreateCourse(ctx context.Context, in model.CourseCreate) (*model.Course, error) {
	var out model.Course
	if err := g.post(ctx, "/admin/courses", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) UpdateCourse(ctx context.Context, id int64, in model.CourseUpdate) (*model.Course, error) {
	var out model.Course
	if err := g.put(ctx, itemPath("/admin/courses", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) DeleteCourse(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/admin/courses", id))
}

func (g *Gateway) GetTeachers(ctx context.Context, q model.PersonQuery) (*model.Page[model.Teacher], error) {
	return fetchPage[model.Teacher](ctx, g, "/admin/teachers", q.Values(), q.Paging)
}

func (g *Gateway) CreateTeacher(ctx context.Context, in model.TeacherCreate) (*model.Teacher, error) {
	var out model.Teacher
	if err := g.post(ctx, "/admin/teachers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) UpdateTeacher(ctx context.Context, id int64, in model.TeacherUpdate) (*model.Teacher, error) {
	var out model.Teacher
	if err := g.put(ctx, itemPath("/admin/teachers", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) SetTeacherCourses(ctx context.Context, teacherID int64, courseIDs []int64) error {
	return g.post(ctx, itemPath("/admin/teachers", teacherID)+"/courses", courseIDsBody{CourseIDs: nonNilIDs(courseIDs)}, nil)
}

func (g *Gateway) DeleteTeacher(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/admin/teachers", id))
}

func (g *Gateway) GetStudents(ctx context.Context, q model.PersonQuery) (*model.Page[model.Student], error) {
	return fetchPage[model.Student](ctx, g, "/admin/students", q.Values(), q.Paging)
}

func (g *Gateway) SetStudentCourses(ctx context.Context, studentID int64, courseIDs []int64) error {
	return g.post(ctx, itemPath("/admin/students", studentID)+"/courses", courseIDsBody{CourseIDs: nonNilIDs(courseIDs)}, nil)
}

func (g *Gateway) GetAllResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error) {
	return fetchPage[model.Resource](ctx, g, "/admin/resources", q.Values(), q.Paging)
}

func (g *Gateway) AdminDeleteResource(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/admin/resources", id))
}

func (g *Gateway) AdminUpdateResource(ctx context.Context, id int64, in model.ResourceUpdate) (*model.Resource, error) {
	var out model.Resource
	if err := g.put(ctx, itemPath("/admin/resources", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) GetAllQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error) {
	return fetchPage[model.Question](ctx, g, "/admin/questions", q.Values(), q.Paging)
}

func (g *Gateway) AdminDeleteQuestion(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/admin/questions", id))
}

func (g *Gateway) AdminUpdateQuestion(ctx context.Context, id int64, in model.QuestionUpdate) (*model.Question, error) {
	var out model.Question
	if err := g.put(ctx, itemPath("/admin/questions", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) AdminDeleteAnswer(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/admin/answers", id))
}

func (g *Gateway) AdminUpdateAnswer(ctx context.Context, id int64, in model.AnswerUpdate) (*model.Answer, error) {
	var out model.Answer
	if err := g.put(ctx, itemPath("/admin/answers", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// nonNilIDs は空の割り当てを null ではなく [] として送信するための変換。
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
