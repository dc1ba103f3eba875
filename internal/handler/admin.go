package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduqa/internal/model"
)

// --- コース ---

// GetCourses はコースを検索する。
// GET /api/admin/courses?keyword=xxx&faculty=xxx
func (h *Handler) GetCourses(w http.ResponseWriter, r *http.Request) {
	q, err := courseQuery(r)
	if err != nil {
		h.writeError(w, r, "GetCourses", err)
		return
	}
	h.call(w, r, "GetCourses", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetCourses(ctx, q)
	})
}

// CreateCourse はコースを作成する。
// POST /api/admin/courses
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var in model.CourseCreate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "CreateCourse", err)
		return
	}
	h.call(w, r, "CreateCourse", http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.gw.CreateCourse(ctx, in)
	})
}

// UpdateCourse はコースを部分更新する。
// PUT /api/admin/courses/{id}
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "UpdateCourse", err)
		return
	}
	var in model.CourseUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "UpdateCourse", err)
		return
	}
	h.call(w, r, "UpdateCourse", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.UpdateCourse(ctx, id, in)
	})
}

// DeleteCourse はコースを削除する。
// DELETE /api/admin/courses/{id}
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "DeleteCourse", h.gw.DeleteCourse)
}

// --- 教員 ---

// GetTeachers は教員を検索する。
// GET /api/admin/teachers?keyword=xxx&department=xxx
func (h *Handler) GetTeachers(w http.ResponseWriter, r *http.Request) {
	q, err := personQuery(r)
	if err != nil {
		h.writeError(w, r, "GetTeachers", err)
		return
	}
	h.call(w, r, "GetTeachers", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetTeachers(ctx, q)
	})
}

// CreateTeacher は教員を作成する。
// POST /api/admin/teachers
func (h *Handler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var in model.TeacherCreate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "CreateTeacher", err)
		return
	}
	h.call(w, r, "CreateTeacher", http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.gw.CreateTeacher(ctx, in)
	})
}

// UpdateTeacher は教員を部分更新する。
// PUT /api/admin/teachers/{id}
func (h *Handler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "UpdateTeacher", err)
		return
	}
	var in model.TeacherUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "UpdateTeacher", err)
		return
	}
	h.call(w, r, "UpdateTeacher", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.UpdateTeacher(ctx, id, in)
	})
}

// SetTeacherCourses は教員の担当コースを置き換える。
// PUT /api/admin/teachers/{id}/courses
func (h *Handler) SetTeacherCourses(w http.ResponseWriter, r *http.Request) {
	h.setCourses(w, r, "SetTeacherCourses", h.gw.SetTeacherCourses)
}

// DeleteTeacher は教員を削除する。
// DELETE /api/admin/teachers/{id}
func (h *Handler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "DeleteTeacher", h.gw.DeleteTeacher)
}

// --- 学生 ---

// GetStudents は学生を検索する。
// GET /api/admin/students
func (h *Handler) GetStudents(w http.ResponseWriter, r *http.Request) {
	q, err := personQuery(r)
	if err != nil {
		h.writeError(w, r, "GetStudents", err)
		return
	}
	h.call(w, r, "GetStudents", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetStudents(ctx, q)
	})
}

// SetStudentCourses は学生の受講コースを置き換える。
// PUT /api/admin/students/{id}/courses
func (h *Handler) SetStudentCourses(w http.ResponseWriter, r *http.Request) {
	h.setCourses(w, r, "SetStudentCourses", h.gw.SetStudentCourses)
}

// --- コンテンツ管理 ---

// GetAllResources は公開範囲に関係なく資料を検索する。
// GET /api/admin/resources
func (h *Handler) GetAllResources(w http.ResponseWriter, r *http.Request) {
	q, err := resourceQuery(r)
	if err != nil {
		h.writeError(w, r, "GetAllResources", err)
		return
	}
	h.call(w, r, "GetAllResources", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetAllResources(ctx, q)
	})
}

// AdminUpdateResource は資料を部分更新する。
// PUT /api/admin/resources/{id}
func (h *Handler) AdminUpdateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "AdminUpdateResource", err)
		return
	}
	var in model.ResourceUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "AdminUpdateResource", err)
		return
	}
	h.call(w, r, "AdminUpdateResource", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.AdminUpdateResource(ctx, id, in)
	})
}

// AdminDeleteResource は資料を削除する。
// DELETE /api/admin/resources/{id}
func (h *Handler) AdminDeleteResource(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "AdminDeleteResource", h.gw.AdminDeleteResource)
}

// GetAllQuestions は全質問を検索する。
// GET /api/admin/questions
func (h *Handler) GetAllQuestions(w http.ResponseWriter, r *http.Request) {
	q, err := questionQuery(r)
	if err != nil {
		h.writeError(w, r, "GetAllQuestions", err)
		return
	}
	h.call(w, r, "GetAllQuestions", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.GetAllQuestions(ctx, q)
	})
}

// AdminUpdateQuestion は質問を部分更新する。状態はCLOSEDへの変更のみ受け付ける。
// PUT /api/admin/questions/{id}
func (h *Handler) AdminUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "AdminUpdateQuestion", err)
		return
	}
	var in model.QuestionUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, "AdminUpdateQuestion", err)
		return
	}
	h.call(w, r, "AdminUpdateQuestion", http.StatusOK, func(ctx context.Context) (any, error) {
		return h.gw.AdminUpdateQuestion(ctx, id, in)
	})
}

// AdminDeleteQuestion は質問を回答ごと削除する。
// DELETE /api/admin/questions/{id}
func (h *Handler) AdminDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "AdminDeleteQuestion", h.gw.AdminDeleteQuestion)
}

// AdminUpdateAnswer は回答を編集する。
// PUT /api/admin/answers/{id}
func (h *Handler) AdminUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	h.updateAnswer(w, r, "AdminUpdateAnswer", h.gw.AdminUpdateAnswer)
}

// AdminDeleteAnswer は回答を削除する。
// DELETE /api/admin/answers/{id}
func (h *Handler) AdminDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "AdminDeleteAnswer", h.gw.AdminDeleteAnswer)
}

func (h *Handler) setCourses(w http.ResponseWriter, r *http.Request, op string,
	set func(context.Context, int64, []int64) error) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	var req courseIDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.call(w, r, op, http.StatusOK, func(ctx context.Context) (any, error) {
		return nil, set(ctx, id, req.CourseIDs)
	})
}
