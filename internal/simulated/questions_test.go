package simulated

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/hitoshi/eduqa/internal/model"
)

func questionIDs(items []model.Question) []int64 {
	ids := make([]int64, 0, len(items))
	for _, q := range items {
		ids = append(ids, q.ID)
	}
	slices.Sort(ids)
	return ids
}

// seedQuestions は検索条件の組み合わせを検証するための質問を追加する。
func seedQuestions(t *testing.T, g *Gateway) {
	t.Helper()
	ctx := context.Background()
	inputs := []model.QuestionCreate{
		{CourseID: 101, Title: "Rank of a matrix", Content: "How do I compute rank?"},
		{CourseID: 102, Title: "Essay structure", Content: "复习 tips for essays"},
		{CourseID: 103, Title: "Bayes rule", Content: "Conditional probability question"},
		{CourseID: 101, Title: "复习 plan", Content: "What chapters?"},
	}
	for _, in := range inputs {
		if _, err := g.CreateQuestion(ctx, in, nil); err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
	}
}

func TestQuestionFilters_Conjunction(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()
	seedQuestions(t, g)

	courses := []int64{0, 101, 102, 103}
	statuses := []model.QuestionStatus{"", model.QuestionStatusOpen, model.QuestionStatusAnswered}
	keywords := []string{"", "复习", "matrix", "nothing-matches"}
	teachers := []int64{0, FixtureTeacherID}

	search := func(q model.QuestionQuery) []int64 {
		t.Helper()
		q.PageSize = 1000
		page, err := g.SearchQuestions(ctx, q)
		if err != nil {
			t.Fatalf("SearchQuestions() error = %v", err)
		}
		if page.Total != len(page.Items) {
			t.Fatalf("total = %d, items = %d", page.Total, len(page.Items))
		}
		return questionIDs(page.Items)
	}
	intersect := func(a, b []int64) []int64 {
		out := []int64{}
		for _, id := range a {
			if slices.Contains(b, id) {
				out = append(out, id)
			}
		}
		return out
	}

	for _, c := range courses {
		for _, s := range statuses {
			for _, k := range keywords {
				for _, tid := range teachers {
					got := search(model.QuestionQuery{CourseID: c, Status: s, Keyword: k, TeacherID: tid})
					want := search(model.QuestionQuery{CourseID: c})
					want = intersect(want, search(model.QuestionQuery{Status: s}))
					want = intersect(want, search(model.QuestionQuery{Keyword: k}))
					want = intersect(want, search(model.QuestionQuery{TeacherID: tid}))
					if fmt.Sprint(got) != fmt.Sprint(want) {
						t.Errorf("course=%d status=%q keyword=%q teacher=%d: got %v, want %v", c, s, k, tid, got, want)
					}
				}
			}
		}
	}
}

func TestSearchQuestions_TeacherFilter(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()
	seedQuestions(t, g)

	page, err := g.SearchQuestions(ctx, model.QuestionQuery{TeacherID: FixtureTeacherID, Paging: model.Paging{PageSize: 100}})
	if err != nil {
		t.Fatalf("SearchQuestions() error = %v", err)
	}
	for _, q := range page.Items {
		if q.CourseID != 101 && q.CourseID != 103 {
			t.Errorf("question %d in course %d is not taught by teacher01", q.ID, q.CourseID)
		}
	}
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}

	// 教員でないユーザーや存在しないIDは何も一致しない
	for _, id := range []int64{FixtureStudentID, 999} {
		page, err := g.SearchQuestions(ctx, model.QuestionQuery{TeacherID: id})
		if err != nil {
			t.Fatalf("SearchQuestions() error = %v", err)
		}
		if page.Total != 0 || len(page.Items) != 0 {
			t.Errorf("teacherId=%d: total = %d, want 0", id, page.Total)
		}
	}
}

func TestGetQuestions_OutOfRangePageKeepsTotal(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)

	page, err := g.GetQuestions(context.Background(), model.QuestionQuery{Paging: model.Paging{Page: 5, PageSize: 10}})
	if err != nil {
		t.Fatalf("GetQuestions() error = %v", err)
	}
	if len(page.Items) != 0 || page.Total != 2 || page.Page != 5 {
		t.Errorf("page = %+v", page)
	}
}

func TestCreateQuestion(t *testing.T) {
	g, id := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()

	q, err := g.CreateQuestion(ctx, model.QuestionCreate{
		CourseID: 103,
		Title:    "Variance of a sum",
		Content:  `<p>Is Var(X+Y) always additive?</p><script>alert(1)</script>`,
	}, []model.FileUpload{{Name: "work.png", Data: []byte("png")}})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if q.ID != 3 || q.Status != model.QuestionStatusOpen || q.AnswerCount != 0 || q.StudentID != FixtureStudentID {
		t.Errorf("question = %+v", q)
	}
	if q.Content != "<p>Is Var(X+Y) always additive?</p>" {
		t.Errorf("content = %q, want sanitized", q.Content)
	}
	if len(q.Attachments) != 1 || q.Attachments[0].FileType != "png" || q.Attachments[0].FilePath != "/uploads/questions/3/work.png" {
		t.Errorf("attachments = %+v", q.Attachments)
	}

	// コース103の担当教員に通知される
	id.as(FixtureTeacherID)
	list, err := g.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications() error = %v", err)
	}
	if len(list) == 0 || list[0].Type != model.NotificationNewQuestion || list[0].QuestionID != q.ID || list[0].IsRead {
		t.Errorf("notifications = %+v", list)
	}
}

func TestQuestionTitle_TagsStripped(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()

	q, err := g.CreateQuestion(ctx, model.QuestionCreate{
		CourseID: 101,
		Title:    `Rank<script>alert(1)</script> question`,
		Content:  "c",
	}, nil)
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if q.Title != "Rank question" {
		t.Errorf("title = %q, want tags stripped", q.Title)
	}

	title := `<img src=x onerror=alert(1)>Updated`
	updated, err := g.UpdateQuestion(ctx, q.ID, model.QuestionUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateQuestion() error = %v", err)
	}
	if updated.Title != "Updated" {
		t.Errorf("updated title = %q, want %q", updated.Title, "Updated")
	}
}

func TestCreateQuestion_Errors(t *testing.T) {
	g, id := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()

	if _, err := g.CreateQuestion(ctx, model.QuestionCreate{CourseID: 999, Title: "t", Content: "c"}, nil); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown course err = %v, want NotFound", err)
	}
	if _, err := g.CreateQuestion(ctx, model.QuestionCreate{CourseID: 101, Content: "c"}, nil); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("missing title err = %v, want InvalidInput", err)
	}
	id.as(0)
	if _, err := g.CreateQuestion(ctx, model.QuestionCreate{CourseID: 101, Title: "t", Content: "c"}, nil); !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("anonymous err = %v, want NotAuthenticated", err)
	}
}

func TestGetQuestionByID_IncludesAnswers(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)

	d, err := g.GetQuestionByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetQuestionByID() error = %v", err)
	}
	if d.StudentName != "Alice Student" || len(d.Answers) != 2 {
		t.Errorf("detail = %+v", d)
	}
	for _, a := range d.Answers {
		if a.TeacherName != "Bob Teacher" {
			t.Errorf("answer %d teacherName = %q", a.ID, a.TeacherName)
		}
	}

	d, err = g.GetQuestionByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetQuestionByID() error = %v", err)
	}
	if d.Answers == nil || len(d.Answers) != 0 {
		t.Errorf("answers = %v, want empty non-nil", d.Answers)
	}
}

func TestUpdateQuestion_OnlyWhileOpen(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()
	title := "Edited title"

	if _, err := g.UpdateQuestion(ctx, 1, model.QuestionUpdate{Title: &title}); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("answered question err = %v, want InvalidState", err)
	}

	closed := model.QuestionStatusClosed
	q, err := g.UpdateQuestion(ctx, 2, model.QuestionUpdate{Title: &title, Status: &closed})
	if err != nil {
		t.Fatalf("UpdateQuestion() error = %v", err)
	}
	if q.Title != title || q.Status != model.QuestionStatusOpen {
		t.Errorf("question = %+v, status must not change through the student path", q)
	}

	if _, err := g.UpdateQuestion(ctx, 404, model.QuestionUpdate{Title: &title}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestAdminUpdateQuestion_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		prepare []model.QuestionStatus
		next    model.QuestionStatus
		wantErr error
	}{
		{"open to closed", 2, nil, model.QuestionStatusClosed, nil},
		{"answered to closed", 1, nil, model.QuestionStatusClosed, nil},
		{"same status", 1, nil, model.QuestionStatusAnswered, nil},
		{"open to answered", 2, nil, model.QuestionStatusAnswered, model.ErrInvalidState},
		{"answered to open", 1, nil, model.QuestionStatusOpen, model.ErrInvalidState},
		{"closed to open", 2, []model.QuestionStatus{model.QuestionStatusClosed}, model.QuestionStatusOpen, model.ErrInvalidState},
		{"closed to answered", 2, []model.QuestionStatus{model.QuestionStatusClosed}, model.QuestionStatusAnswered, model.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, FixtureAdminID)
			ctx := context.Background()
			for _, s := range tt.prepare {
				s := s
				if _, err := g.AdminUpdateQuestion(ctx, tt.id, model.QuestionUpdate{Status: &s}); err != nil {
					t.Fatalf("prepare error = %v", err)
				}
			}

			next := tt.next
			q, err := g.AdminUpdateQuestion(ctx, tt.id, model.QuestionUpdate{Status: &next})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want InvalidState", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AdminUpdateQuestion() error = %v", err)
			}
			if q.Status != next {
				t.Errorf("status = %s, want %s", q.Status, next)
			}
		})
	}
}

func TestAdminUpdateQuestion_RejectedUpdateChangesNothing(t *testing.T) {
	g, _ := newTestGateway(t, FixtureAdminID)
	ctx := context.Background()

	title := "should not apply"
	badCourse := int64(999)
	if _, err := g.AdminUpdateQuestion(ctx, 2, model.QuestionUpdate{Title: &title, CourseID: &badCourse}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	d, _ := g.GetQuestionByID(ctx, 2)
	if d.Title == title {
		t.Error("失敗した更新が部分的に適用されてはならない")
	}
}

func TestDeleteQuestion_CascadesAnswers(t *testing.T) {
	for _, admin := range []bool{false, true} {
		t.Run(fmt.Sprintf("admin=%v", admin), func(t *testing.T) {
			g, _ := newTestGateway(t, FixtureStudentID)
			ctx := context.Background()

			var err error
			if admin {
				err = g.AdminDeleteQuestion(ctx, 1)
			} else {
				err = g.DeleteQuestion(ctx, 1)
			}
			if err != nil {
				t.Fatalf("delete error = %v", err)
			}

			if _, err := g.GetQuestionByID(ctx, 1); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("question still readable, err = %v", err)
			}
			for _, a := range g.db.answers {
				if a.QuestionID == 1 {
					t.Errorf("orphan answer %d remains", a.ID)
				}
			}
			for _, n := range g.db.notifications {
				if n.QuestionID == 1 {
					t.Errorf("notification %d still references the deleted question", n.ID)
				}
			}
			if err := g.AdminDeleteAnswer(ctx, 1); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("answer 1 should be gone, err = %v", err)
			}
		})
	}
}

func TestDeleteQuestion_NotFound(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)
	if err := g.DeleteQuestion(context.Background(), 404); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestQuestionIDs_StrictlyIncreasingAcrossDeletes(t *testing.T) {
	g, _ := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()

	var last int64 = 2
	for i := 0; i < 5; i++ {
		q, err := g.CreateQuestion(ctx, model.QuestionCreate{CourseID: 101, Title: "q", Content: "c"}, nil)
		if err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
		if q.ID <= last {
			t.Fatalf("id %d not greater than %d", q.ID, last)
		}
		last = q.ID
		if err := g.DeleteQuestion(ctx, q.ID); err != nil {
			t.Fatalf("DeleteQuestion() error = %v", err)
		}
	}
}

func TestGetAllQuestions_AppliesSameFiltersAsGetQuestions(t *testing.T) {
	g, ident := newTestGateway(t, FixtureStudentID)
	ctx := context.Background()
	seedQuestions(t, g)
	ident.as(FixtureAdminID)

	q := model.QuestionQuery{CourseID: 101, Paging: model.Paging{PageSize: 100}}
	all, err := g.GetAllQuestions(ctx, q)
	if err != nil {
		t.Fatalf("GetAllQuestions() error = %v", err)
	}
	listed, err := g.GetQuestions(ctx, q)
	if err != nil {
		t.Fatalf("GetQuestions() error = %v", err)
	}

	if !slices.Equal(questionIDs(all.Items), questionIDs(listed.Items)) {
		t.Errorf("GetAllQuestions ids = %v, GetQuestions ids = %v", questionIDs(all.Items), questionIDs(listed.Items))
	}
	if all.Total < 2 {
		t.Errorf("total = %d, want at least the two seeded course-101 questions", all.Total)
	}
	for _, item := range all.Items {
		if item.CourseID != 101 {
			t.Errorf("question %d has course %d, want 101", item.ID, item.CourseID)
		}
	}
}
