package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduqa/internal/model"
)

// --- 資料 ---

// GetResources は閲覧可能な資料を検索する。
// GET /api/resources?page=1&pageSize=10&courseId=101&keyword=xxx
func (h *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	q, err := resourceQuery(r)
	if err != nil {
		h.writeError(w, r, "GetResources", err)
		return
	}
	h.call(w, r, "GetResources", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetResources(ctx, q)
	})
}

// GetMyResources は自分がアップロードした資料を検索する。
// GET /api/resources/my
func (h *Handler) GetMyResources(w http.ResponseWriter, r *http.Request) {
	q, err := resourceQuery(r)
	if err != nil {
		h.writeError(w, r, "GetMyResources", err)
		return
	}
	h.call(w, r, "GetMyResources", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetMyResources(ctx, q)
	})
}

// GetResourceByID は資料の詳細を返す。
// GET /api/resources/{id}
func (h *Handler) GetResourceByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "GetResourceByID", err)
		return
	}
	h.call(w, r, "GetResourceByID", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetResourceByID(ctx, id)
	})
}

// UploadResource は資料をアップロードする。
// POST /api/resources (multipart: metadata, file)
func (h *Handler) UploadResource(w http.ResponseWriter, r *http.Request) {
	var meta model.ResourceMetadata
	files, err := decodePayload(w, r, &meta, "file")
	if err != nil {
		h.writeError(w, r, "UploadResource", err)
		return
	}
	h.call(w, r, "UploadResource", http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.gw.UploadResource(ctx, meta, singleFile(files))
	})
}

// UpdateResource は資料の属性を置き換え、ファイルがあれば差し替える。
// PUT /api/resources/{id} (multipart: metadata, file)
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "UpdateResource", err)
		return
	}
	var meta model.ResourceMetadata
	files, err := decodePayload(w, r, &meta, "file")
	if err != nil {
		h.writeError(w, r, "UpdateResource", err)
		return
	}
	h.call(w, r, "UpdateResource", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.UpdateResource(ctx, id, meta, singleFile(files))
	})
}

// DeleteResource は資料を削除する。
// DELETE /api/resources/{id}
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "DeleteResource", h.gw.DeleteResource)
}

// --- 質問 ---

// GetQuestions は質問一覧を返す。
// GET /api/questions?courseId=101&status=OPEN&keyword=xxx
func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	q, err := questionQuery(r)
	if err != nil {
		h.writeError(w, r, "GetQuestions", err)
		return
	}
	h.call(w, r, "GetQuestions", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetQuestions(ctx, q)
	})
}

// SearchQuestions は担当教員の条件を含めて質問を検索する。
// GET /api/questions/search?teacherId=2&keyword=xxx
func (h *Handler) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	q, err := questionQuery(r)
	if err != nil {
		h.writeError(w, r, "SearchQuestions", err)
		return
	}
	h.call(w, r, "SearchQuestions", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.SearchQuestions(ctx, q)
	})
}

// GetQuestionByID は回答を含む質問の詳細を返す。
// GET /api/questions/{id}
func (h *Handler) GetQuestionByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "GetQuestionByID", err)
		return
	}
	h.call(w, r, "GetQuestionByID", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetQuestionByID(ctx, id)
	})
}

// CreateQuestion は質問を投稿する。
// POST /api/questions (JSON、またはmultipart: metadata, attachments)
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.QuestionCreate
	files, err := decodePayload(w, r, &in, "attachments")
	if err != nil {
		h.writeError(w, r, "CreateQuestion", err)
		return
	}
	h.call(w, r, "CreateQuestion", http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.gw.CreateQuestion(ctx, in, files)
	})
}

// UpdateQuestion は自分の質問を編集する。OPENの質問のみ編集できる。
// PUT /api/questions/{id}
func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "UpdateQuestion", err)
		return
	}
	var in model.QuestionUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "UpdateQuestion", err)
		return
	}
	h.call(w, r, "UpdateQuestion", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.UpdateQuestion(ctx, id, in)
	})
}

// DeleteQuestion は質問を回答ごと削除する。
// DELETE /api/questions/{id}
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "DeleteQuestion", h.gw.DeleteQuestion)
}

// --- 通知 ---

// GetNotificationCounts は未読件数を返す。
// GET /api/notifications/unread-count
func (h *Handler) GetNotificationCounts(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "GetNotificationCounts", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetNotificationCounts(ctx)
	})
}

// GetNotifications は通知一覧を新しい順に返す。
// GET /api/notifications
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "GetNotifications", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetNotifications(ctx)
	})
}

// MarkNotificationsAsRead は自分宛ての通知をすべて既読にする。
// POST /api/notifications/mark-read
func (h *Handler) MarkNotificationsAsRead(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, "MarkNotificationsAsRead", http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, h.gw.MarkNotificationsAsRead(ctx)
	})
}

// deleteByID はパスのIDを対象に削除系の操作を実行する。
func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, op string, del func(context.Context, int64) error) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.call(w, r, op, http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, del(ctx, id)
	})
}
