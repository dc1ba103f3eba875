package remote

import (
	"context"

	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/pipeline"
)

func (g *Gateway) GetResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error) {
	return fetchPage[model.Resource](ctx, g, "/student/resources", q.Values(), q.Paging)
}

func (g *Gateway) GetMyResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error) {
	return fetchPage[model.Resource](ctx, g, "/student/resources/my", q.Values(), q.Paging)
}

func (g *Gateway) GetResourceByID(ctx context.Context, id int64) (*model.ResourceDetail, error) {
	return fetch[model.ResourceDetail](ctx, g, itemPath("/student/resources", id), nil)
}

func (g *Gateway) UploadResource(ctx context.Context, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	var out model.Resource
	if err := g.postMultipart(ctx, "/student/resources", pipeline.NewResourceMultipart(meta, file), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateResource は資料を更新する。サーバーはファイル差し替えを伴う更新を
// PUTではなくmultipartのPOSTで受け付ける。
func (g *Gateway) UpdateResource(ctx context.Context, id int64, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	var out model.Resource
	if err := g.postMultipart(ctx, itemPath("/student/resources", id), pipeline.NewResourceMultipart(meta, file), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) DeleteResource(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/student/resources", id))
}

func (g *Gateway) GetQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error) {
	return fetchPage[model.Question](ctx, g, "/student/questions", q.Values(), q.Paging)
}

// SearchQuestions はGetQuestionsと同じエンドポイントを使う。
// 教員IDによる絞り込みはサーバー側で解決される。
func (g *Gateway) SearchQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.Question], error) {
	return fetchPage[model.Question](ctx, g, "/student/questions", q.Values(), q.Paging)
}

func (g *Gateway) GetQuestionByID(ctx context.Context, id int64) (*model.QuestionDetail, error) {
	return fetch[model.QuestionDetail](ctx, g, itemPath("/student/questions", id), nil)
}

func (g *Gateway) CreateQuestion(ctx context.Context, in model.QuestionCreate, attachments []model.FileUpload) (*model.Question, error) {
	var out model.Question
	if err := g.postMultipart(ctx, "/student/questions", pipeline.NewAttachmentsMultipart(in, attachments), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) UpdateQuestion(ctx context.Context, id int64, in model.QuestionUpdate) (*model.Question, error) {
	// ステータスは管理者のみが変更できるため送信しない
	in.Status = nil
	var out model.Question
	if err := g.put(ctx, itemPath("/student/questions", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) DeleteQuestion(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/student/questions", id))
}

func (g *Gateway) GetNotificationCounts(ctx context.Context) (*model.NotificationCounts, error) {
	return fetch[model.NotificationCounts](ctx, g, "/notifications/unread-count", nil)
}

func (g *Gateway) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	if err := g.get(ctx, "/notifications/list", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}

func (g *Gateway) MarkNotificationsAsRead(ctx context.Context) error {
	return g.post(ctx, "/notifications/mark-read", nil, nil)
}
