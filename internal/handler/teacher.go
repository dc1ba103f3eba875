package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduqa/internal/model"
)

// GetTeacherDashboardStats は教員ダッシュボードの集計を返す。
// GET /api/teacher/dashboard/stats
func (h *Handler) GetTeacherDashboardStats(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "GetTeacherDashboardStats", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetTeacherDashboardStats(ctx)
	})
}

// GetTeacherQuestions は担当コースの質問を返す。
// GET /api/teacher/questions?status=OPEN
func (h *Handler) GetTeacherQuestions(w http.ResponseWriter, r *http.Request) {
	q, err := questionQuery(r)
	if err != nil {
		h.writeError(w, r, "GetTeacherQuestions", err)
		return
	}
	h.call(w, r, "GetTeacherQuestions", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetTeacherQuestions(ctx, q)
	})
}

// GetTeacherQuestionByID は回答画面用の質問詳細を返す。
// GET /api/teacher/questions/{id}
func (h *Handler) GetTeacherQuestionByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "GetTeacherQuestionByID", err)
		return
	}
	h.call(w, r, "GetTeacherQuestionByID", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetTeacherQuestionByID(ctx, id)
	})
}

// CreateAnswer は質問に回答する。
// POST /api/teacher/answers (JSON、またはmultipart: metadata, attachments)
func (h *Handler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	var in model.AnswerCreate
	files, err := decodePayload(w, r, &in, "attachments")
	if err != nil {
		h.writeError(w, r, "CreateAnswer", err)
		return
	}
	in.Attachments = files
	h.call(w, r, "CreateAnswer", http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.gw.CreateAnswer(ctx, in)
	})
}

// UpdateAnswer は回答を編集する。
// PUT /api/teacher/answers/{id}
func (h *Handler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	h.updateAnswer(w, r, "UpdateAnswer", h.gw.UpdateAnswer)
}

// DeleteAnswer は回答を削除する。
// DELETE /api/teacher/answers/{id}
func (h *Handler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "DeleteAnswer", h.gw.DeleteAnswer)
}

// UploadTeacherResource は教員として資料をアップロードする。
// POST /api/teacher/resources (multipart: metadata, file)
func (h *Handler) UploadTeacherResource(w http.ResponseWriter, r *http.Request) {
	var meta model.ResourceMetadata
	files, err := decodePayload(w, r, &meta, "file")
	if err != nil {
		h.writeError(w, r, "UploadTeacherResource", err)
		return
	}
	h.call(w, r, "UploadTeacherResource", http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.gw.UploadTeacherResource(ctx, meta, singleFile(files))
	})
}

func (h *Handler) updateAnswer(w http.ResponseWriter, r *http.Request, op string,
	update func(context.Context, int64, model.AnswerUpdate) (*model.Answer, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	var in model.AnswerUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.call(w, r, op, http.StatusOK, func(ctx context.Context) (any, error) {
		return update(ctx, id, in)
	})
}
