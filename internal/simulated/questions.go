package simulated

import (
	"context"
	"slices"

	"github.com/hitoshi/eduqa/internal/model"
)

// GetQuestions は質問を検索する。
func (g *Gateway) GetQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.questionPage(q), nil
}

// SearchQuestions はキーワードと担当教員を含む条件で質問を検索する。
// 教員として存在しないTeacherIDを指定した場合は1件も一致しない。
func (g *Gateway) SearchQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.questionPage(q), nil
}

func (g *Gateway) questionPage(q model.QuestionQuery) *model.Page[model.Question] {
	matched := g.db.filterQuestions(q)
	items := make([]model.Question, 0, len(matched))
	for _, qs := range matched {
		items = append(items, questionView(qs))
	}
	return paginate(items, q.Paging)
}

// GetQuestionByID は回答を含む質問の詳細を返す。
func (g *Gateway) GetQuestionByID(ctx context.Context, id int64) (*model.QuestionDetail, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	qs := g.db.question(id)
	if qs == nil {
		return nil, model.NewNotFoundError(model.EntityQuestion, id)
	}
	return g.db.questionDetail(qs), nil
}

// CreateQuestion はログイン中のユーザーの質問を登録し、コースの担当教員に通知する。
func (g *Gateway) CreateQuestion(ctx context.Context, in model.QuestionCreate, attachments []model.FileUpload) (*model.Question, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	if err := g.check(in); err != nil {
		return nil, err
	}
	c := g.db.course(in.CourseID)
	if c == nil {
		return nil, model.NewNotFoundError(model.EntityCourse, in.CourseID)
	}

	now := g.now()
	qs := &model.Question{
		ID:        g.db.nextID(&g.db.next.question),
		CourseID:  in.CourseID,
		Title:     g.sanitizer.SanitizeText(in.Title),
		Content:   g.sanitizer.Sanitize(in.Content),
		Status:    model.QuestionStatusOpen,
		StudentID: u.profile.ID,
		CreatedAt: now,
	}
	qs.Attachments = g.storeAttachments("questions", qs.ID, attachments)
	g.db.questions = append([]*model.Question{qs}, g.db.questions...)

	for _, teacherID := range c.TeacherIDs {
		g.db.notify(teacherID, model.NotificationNewQuestion, "新しい質問が投稿されました: "+qs.Title, qs.ID, 0, now)
	}

	out := questionView(qs)
	return &out, nil
}

// UpdateQuestion は学生による質問の編集。未回答（OPEN）の質問のみ編集でき、ステータスは変更しない。
func (g *Gateway) UpdateQuestion(ctx context.Context, id int64, in model.QuestionUpdate) (*model.Question, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	qs := g.db.question(id)
	if qs == nil {
		return nil, model.NewNotFoundError(model.EntityQuestion, id)
	}
	if qs.Status != model.QuestionStatusOpen {
		return nil, model.NewQuestionNotEditableError(qs.Status)
	}
	in.Status = nil
	if err := g.applyQuestionUpdate(qs, in); err != nil {
		return nil, err
	}
	out := questionView(qs)
	return &out, nil
}

// AdminUpdateQuestion は管理者による質問の編集。
// ステータスはCLOSEDへの変更のみ受け付け、CLOSEDからの遷移は拒否する。
func (g *Gateway) AdminUpdateQuestion(ctx context.Context, id int64, in model.QuestionUpdate) (*model.Question, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	qs := g.db.question(id)
	if qs == nil {
		return nil, model.NewNotFoundError(model.EntityQuestion, id)
	}
	if in.Status != nil && *in.Status != qs.Status {
		next := *in.Status
		if next != model.QuestionStatusClosed || !qs.Status.CanTransitionTo(next) {
			return nil, model.NewInvalidTransitionError(qs.Status, next)
		}
	}
	if err := g.applyQuestionUpdate(qs, in); err != nil {
		return nil, err
	}
	out := questionView(qs)
	return &out, nil
}

// applyQuestionUpdate は検証後に部分更新を適用する。検証に失敗した場合は何も変更しない。
func (g *Gateway) applyQuestionUpdate(qs *model.Question, in model.QuestionUpdate) error {
	if err := g.check(in); err != nil {
		return err
	}
	if in.CourseID != nil {
		if err := g.db.checkCourses([]int64{*in.CourseID}); err != nil {
			return err
		}
		qs.CourseID = *in.CourseID
	}
	if in.Title != nil {
		qs.Title = g.sanitizer.SanitizeText(*in.Title)
	}
	if in.Content != nil {
		qs.Content = g.sanitizer.Sanitize(*in.Content)
	}
	if in.Status != nil {
		qs.Status = *in.Status
	}
	return nil
}

// DeleteQuestion は質問と、その質問へのすべての回答・通知を削除する。
func (g *Gateway) DeleteQuestion(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return g.deleteQuestion(id)
}

// AdminDeleteQuestion は管理者による質問の削除。回答もあわせて削除する。
func (g *Gateway) AdminDeleteQuestion(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return g.deleteQuestion(id)
}

func (g *Gateway) deleteQuestion(id int64) error {
	if g.db.question(id) == nil {
		return model.NewNotFoundError(model.EntityQuestion, id)
	}
	g.db.questions = slices.DeleteFunc(g.db.questions, func(q *model.Question) bool { return q.ID == id })
	g.db.answers = slices.DeleteFunc(g.db.answers, func(a *model.Answer) bool { return a.QuestionID == id })
	g.db.notifications = slices.DeleteFunc(g.db.notifications, func(n *notificationRecord) bool { return n.QuestionID == id })
	return nil
}

// GetAllQuestions は管理者向けに全質問を検索する。
func (g *Gateway) GetAllQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.questionPage(q), nil
}

// storeAttachments は添付ファイルを保存したものとして添付情報を返す。
func (g *Gateway) storeAttachments(kind string, ownerID int64, files []model.FileUpload) []model.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, model.Attachment{
			ID:       g.db.nextID(&g.db.next.attachment),
			FilePath: uploadPath(kind, ownerID, f.Name),
			FileType: fileType(f.Name),
		})
	}
	return out
}
