package simulated

import (
	"context"
	"slices"
	"time"

	"github.com/hitoshi/eduqa/internal/model"
)

// recentActivityLimit はダッシュボードに表示する最近の活動の件数。
const recentActivityLimit = 5

// GetTeacherDashboardStats はログイン中の教員の担当コースに関する集計値を返す。
func (g *Gateway) GetTeacherDashboardStats(ctx context.Context) (*model.TeacherDashboardStats, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	courses := g.db.teacherCourseIDs(u.profile.ID)

	stats := &model.TeacherDashboardStats{RecentActivity: []model.RecentActivity{}}
	for _, q := range g.db.questions {
		if q.Status == model.QuestionStatusOpen && slices.Contains(courses, q.CourseID) {
			stats.PendingQuestions++
		}
	}
	for _, r := range g.db.resources {
		if r.UploaderID == u.profile.ID {
			stats.TotalResources++
		}
	}
	// 新しい回答から順に並べる
	for i := len(g.db.answers) - 1; i >= 0; i-- {
		a := g.db.answers[i]
		if a.TeacherID != u.profile.ID {
			continue
		}
		stats.TotalAnswers++
		if len(stats.RecentActivity) < recentActivityLimit {
			title := ""
			if q := g.db.question(a.QuestionID); q != nil {
				title = q.Title
			}
			stats.RecentActivity = append(stats.RecentActivity, model.RecentActivity{
				Type:        "ANSWER",
				Description: "質問に回答しました: " + title,
				Time:        a.CreatedAt.Format(time.RFC3339),
			})
		}
	}
	return stats, nil
}

// GetTeacherQuestions はログイン中の教員の担当コースに投稿された質問を検索する。
func (g *Gateway) GetTeacherQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.TeacherQuestion], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	courses := g.db.teacherCourseIDs(u.profile.ID)
	q.TeacherID = 0

	items := []model.TeacherQuestion{}
	for _, qs := range g.db.filterQuestions(q) {
		if !slices.Contains(courses, qs.CourseID) {
			continue
		}
		items = append(items, model.TeacherQuestion{
			Question:    questionView(qs),
			StudentName: g.db.displayName(qs.StudentID),
			CourseName:  g.db.courseName(qs.CourseID),
		})
	}
	return paginate(items, q.Paging), nil
}

// GetTeacherQuestionByID は回答を含む質問の詳細を返す。
func (g *Gateway) GetTeacherQuestionByID(ctx context.Context, id int64) (*model.QuestionDetail, error) {
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

// CreateAnswer はログイン中の教員として回答を登録する。
// 質問のステータスをANSWEREDにし、回答数を1増やし、質問者に通知する。
// 質問の状態に関係なく適用され、ANSWEREDやCLOSEDの質問でも回答数は増える。
func (g *Gateway) CreateAnswer(ctx context.Context, in model.AnswerCreate) (*model.Answer, error) {
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
	qs := g.db.question(in.QuestionID)
	if qs == nil {
		return nil, model.NewNotFoundError(model.EntityQuestion, in.QuestionID)
	}

	now := g.now()
	a := &model.Answer{
		ID:         g.db.nextID(&g.db.next.answer),
		QuestionID: qs.ID,
		TeacherID:  u.profile.ID,
		Content:    g.sanitizer.Sanitize(in.Content),
		CreatedAt:  now,
	}
	a.Attachments = g.storeAttachments("answers", a.ID, in.Attachments)
	g.db.answers = append(g.db.answers, a)

	qs.Status = model.QuestionStatusAnswered
	qs.AnswerCount++

	if qs.StudentID != u.profile.ID {
		g.db.notify(qs.StudentID, model.NotificationQuestionReplied, "質問に新しい回答がありました: "+qs.Title, qs.ID, a.ID, now)
	}

	out := g.db.answerView(a)
	return &out, nil
}

// UpdateAnswer は回答本文を更新する。
func (g *Gateway) UpdateAnswer(ctx context.Context, id int64, in model.AnswerUpdate) (*model.Answer, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.updateAnswer(id, in)
}

// AdminUpdateAnswer は管理者による回答本文の更新。
func (g *Gateway) AdminUpdateAnswer(ctx context.Context, id int64, in model.AnswerUpdate) (*model.Answer, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.updateAnswer(id, in)
}

func (g *Gateway) updateAnswer(id int64, in model.AnswerUpdate) (*model.Answer, error) {
	a := g.db.answer(id)
	if a == nil {
		return nil, model.NewNotFoundError(model.EntityAnswer, id)
	}
	if in.Content != nil {
		if *in.Content == "" {
			return nil, model.NewInvalidInputError("content(required)")
		}
		a.Content = g.sanitizer.Sanitize(*in.Content)
		now := g.now()
		a.UpdatedAt = &now
	}
	out := g.db.answerView(a)
	return &out, nil
}

// DeleteAnswer は回答を削除し、質問の回答数を1減らす。質問のステータスは変更しない。
func (g *Gateway) DeleteAnswer(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return g.deleteAnswer(id)
}

// AdminDeleteAnswer は管理者による回答の削除。
func (g *Gateway) AdminDeleteAnswer(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return g.deleteAnswer(id)
}

func (g *Gateway) deleteAnswer(id int64) error {
	a := g.db.answer(id)
	if a == nil {
		return model.NewNotFoundError(model.EntityAnswer, id)
	}
	g.db.answers = slices.DeleteFunc(g.db.answers, func(x *model.Answer) bool { return x.ID == id })
	if q := g.db.question(a.QuestionID); q != nil && q.AnswerCount > 0 {
		q.AnswerCount--
	}
	return nil
}

// GetNotificationCounts は未処理件数を質問データから導出する。
// NewAnswersは自分の質問のうちANSWEREDのもの、PendingQuestionsは担当コースの未回答の質問
// （管理者は全コース）の件数。
func (g *Gateway) GetNotificationCounts(ctx context.Context) (*model.NotificationCounts, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	isAdmin := u.profile.HasRole(model.RoleAdmin)
	courses := g.db.teacherCourseIDs(u.profile.ID)

	counts := &model.NotificationCounts{}
	for _, q := range g.db.questions {
		if q.StudentID == u.profile.ID && q.Status == model.QuestionStatusAnswered {
			counts.NewAnswers++
		}
		if q.Status == model.QuestionStatusOpen && (isAdmin || slices.Contains(courses, q.CourseID)) {
			counts.PendingQuestions++
		}
	}
	return counts, nil
}

// GetNotifications はログイン中のユーザー宛ての通知を新しい順に返す。
func (g *Gateway) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	out := []model.Notification{}
	for i := len(g.db.notifications) - 1; i >= 0; i-- {
		if n := g.db.notifications[i]; n.userID == u.profile.ID {
			out = append(out, n.Notification)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// MarkNotificationsAsRead はログイン中のユーザー宛ての通知をすべて既読にする。
func (g *Gateway) MarkNotificationsAsRead(ctx context.Context) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return err
	}
	for _, n := range g.db.notifications {
		if n.userID == u.profile.ID {
			n.IsRead = true
		}
	}
	return nil
}
