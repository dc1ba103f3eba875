package remote

import (
	"context"

	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/pipeline"
)

func (g *Gateway) GetTeacherDashboardStats(ctx context.Context) (*model.TeacherDashboardStats, error) {
	return fetch[model.TeacherDashboardStats](ctx, g, "/teacher/dashboard/stats", nil)
}

func (g *Gateway) GetTeacherQuestions(ctx context.Context, q model.QuestionQuery) (*model.Page[model.TeacherQuestion], error) {
	return fetchPage[model.TeacherQuestion](ctx, g, "/teacher/questions", q.Values(), q.Paging)
}

func (g *Gateway) GetTeacherQuestionByID(ctx context.Context, id int64) (*model.QuestionDetail, error) {
	return fetch[model.QuestionDetail](ctx, g, itemPath("/teacher/questions", id), nil)
}

// CreateAnswer は回答を投稿する。添付ファイルの有無にかかわらずmultipartで送信する。
func (g *Gateway) CreateAnswer(ctx context.Context, in model.AnswerCreate) (*model.Answer, error) {
	meta := struct {
		QuestionID int64  `json:"questionId"`
		Content    string `json:"content"`
	}{in.QuestionID, in.Content}

	var out model.Answer
	if err := g.postMultipart(ctx, "/teacher/answers", pipeline.NewAttachmentsMultipart(meta, in.Attachments), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) UpdateAnswer(ctx context.Context, id int64, in model.AnswerUpdate) (*model.Answer, error) {
	var out model.Answer
	if err := g.put(ctx, itemPath("/teacher/answers", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) DeleteAnswer(ctx context.Context, id int64) error {
	return g.remove(ctx, itemPath("/teacher/answers", id))
}

func (g *Gateway) UploadTeacherResource(ctx context.Context, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	var out model.Resource
	if err := g.postMultipart(ctx, "/teacher/resources", pipeline.NewResourceMultipart(meta, file), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
