// Package handler はゲートウェイの全操作をJSON APIとして公開するHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eduqa/internal/gateway"
	"github.com/hitoshi/eduqa/internal/metrics"
	"github.com/hitoshi/eduqa/internal/middleware"
	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/session"
)

const (
	// maxJSONBytes はJSONリクエストボディの上限。
	maxJSONBytes = 1 << 20
	// maxUploadBytes はmultipartリクエスト全体の上限。
	maxUploadBytes = 32 << 20
)

// Handler はゲートウェイ操作のHTTPハンドラー。
type Handler struct {
	gw      gateway.Gateway
	store   *session.Store
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// New はHandlerを生成する。mがnilの場合はメトリクスを記録しない。
func New(gw gateway.Gateway, store *session.Store, m metrics.MetricsCollector, logger *slog.Logger) *Handler {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Handler{gw: gw, store: store, metrics: m, logger: logger}
}

// call はゲートウェイ操作を1回実行し、結果をレスポンスに書き込む。
// 操作ごとの結果とレイテンシをメトリクスに記録する。
// 結果がnilの場合は204を返す。
func (h *Handler) call(w http.ResponseWriter, r *http.Request, op string, status int, fn func(ctx context.Context) (any, error)) {
	start := time.Now()
	out, err := fn(r.Context())
	h.metrics.RecordOperation(string(h.gw.Mode()), op, outcome(err), time.Since(start))

	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, status, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := model.KindOf(err)
	if kind == "" || kind == model.KindTransport {
		h.logger.Error("gateway operation failed",
			slog.String("operation", op),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	middleware.WriteError(w, err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := model.KindOf(err); kind != "" {
		return string(kind)
	}
	return "UNKNOWN"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをvにデコードする。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	// text/plainなどプリフライト不要のContent-Typeは受け付けない
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		return model.NewInvalidInputError("Content-Typeにはapplication/jsonを指定してください")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewInvalidInputError("リクエストボディが空です")
		}
		return model.NewInvalidInputError("JSONの形式が正しくありません")
	}
	return nil
}

// decodePayload はmultipartの場合はmetadataフィールドをvにデコードし、fieldのファイルを返す。
// それ以外のContent-TypeはJSONボディとして扱い、ファイルは返さない。
func decodePayload(w http.ResponseWriter, r *http.Request, v any, field string) ([]model.FileUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, decodeJSON(w, r, v)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, model.NewInvalidInputError("multipartの形式が正しくありません")
	}
	if err := json.Unmarshal([]byte(r.FormValue("metadata")), v); err != nil {
		return nil, model.NewInvalidInputError("metadataの形式が正しくありません")
	}

	var files []model.FileUpload
	for _, fh := range r.MultipartForm.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}
		files = append(files, model.FileUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// singleFile は先頭のファイルを返す。ファイルがない場合はnil。
func singleFile(files []model.FileUpload) *model.FileUpload {
	if len(files) == 0 {
		return nil
	}
	return &files[0]
}

// pathID はURLパスパラメータ"id"を正の整数として返す。
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidInputError("IDが正しくありません")
	}
	return id, nil
}

// queryInt はクエリパラメータを整数として返す。未指定の場合は0。
func queryInt(r *http.Request, key string) (int64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, model.NewInvalidInputError(key + "は整数で指定してください")
	}
	return n, nil
}

func queryPaging(r *http.Request) (model.Paging, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return model.Paging{}, err
	}
	size, err := queryInt(r, "pageSize")
	if err != nil {
		return model.Paging{}, err
	}
	return model.Paging{Page: int(page), PageSize: int(size)}, nil
}

func resourceQuery(r *http.Request) (model.ResourceQuery, error) {
	paging, err := queryPaging(r)
	if err != nil {
		return model.ResourceQuery{}, err
	}
	courseID, err := queryInt(r, "courseId")
	if err != nil {
		return model.ResourceQuery{}, err
	}
	return model.ResourceQuery{Paging: paging, CourseID: courseID, Keyword: r.URL.Query().Get("keyword")}, nil
}

func questionQuery(r *http.Request) (model.QuestionQuery, error) {
	paging, err := queryPaging(r)
	if err != nil {
		return model.QuestionQuery{}, err
	}
	courseID, err := queryInt(r, "courseId")
	if err != nil {
		return model.QuestionQuery{}, err
	}
	teacherID, err := queryInt(r, "teacherId")
	if err != nil {
		return model.QuestionQuery{}, err
	}
	q := r.URL.Query()
	return model.QuestionQuery{
		Paging:    paging,
		CourseID:  courseID,
		Status:    model.QuestionStatus(q.Get("status")),
		Keyword:   q.Get("keyword"),
		TeacherID: teacherID,
	}, nil
}

func courseQuery(r *http.Request) (model.CourseQuery, error) {
	paging, err := queryPaging(r)
	if err != nil {
		return model.CourseQuery{}, err
	}
	q := r.URL.Query()
	return model.CourseQuery{Paging: paging, Keyword: q.Get("keyword"), Faculty: q.Get("faculty")}, nil
}

func personQuery(r *http.Request) (model.PersonQuery, error) {
	paging, err := queryPaging(r)
	if err != nil {
		return model.PersonQuery{}, err
	}
	q := r.URL.Query()
	return model.PersonQuery{Paging: paging, Keyword: q.Get("keyword"), Department: q.Get("department")}, nil
}

// courseIDsRequest は担当・受講コースの置き換えリクエスト。
type courseIDsRequest struct {
	CourseIDs []int64 `json:"courseIds"`
}
