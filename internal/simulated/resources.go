package simulated

import (
	"context"
	"fmt"
	"path"

	"github.com/hitoshi/eduqa/internal/model"
)

// GetResources は資料を検索する。公開範囲による絞り込みは行わない。
func (g *Gateway) GetResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return paginate(g.db.filterResources(q, nil), q.Paging), nil
}

// GetMyResources はログイン中のユーザーがアップロードした資料を検索する。
func (g *Gateway) GetMyResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	items := g.db.filterResources(q, func(r *model.Resource) bool {
		return r.UploaderID == u.profile.ID
	})
	return paginate(items, q.Paging), nil
}

// GetResourceByID は資料の詳細を返す。
func (g *Gateway) GetResourceByID(ctx context.Context, id int64) (*model.ResourceDetail, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r := g.db.resource(id)
	if r == nil {
		return nil, model.NewNotFoundError(model.EntityResource, id)
	}
	return &model.ResourceDetail{
		Resource:     *r,
		UploaderName: g.db.displayName(r.UploaderID),
		FileURL:      fmt.Sprintf("/api/files/%d", r.ID),
	}, nil
}

// UploadResource はログイン中のユーザーを投稿者として資料を登録する。
func (g *Gateway) UploadResource(ctx context.Context, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.uploadResource(meta, file)
}

// UploadTeacherResource は教員として資料を登録する。振る舞いはUploadResourceと同じ。
func (g *Gateway) UploadTeacherResource(ctx context.Context, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return g.uploadResource(meta, file)
}

func (g *Gateway) uploadResource(meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	u, err := g.actor()
	if err != nil {
		return nil, err
	}
	if err := g.check(meta); err != nil {
		return nil, err
	}
	if err := g.db.checkCourses([]int64{meta.CourseID}); err != nil {
		return nil, err
	}

	r := &model.Resource{
		ID:         g.db.nextID(&g.db.next.resource),
		UploaderID: u.profile.ID,
		CreatedAt:  g.now(),
	}
	g.applyResourceMetadata(r, meta)
	if r.Visibility == "" {
		r.Visibility = model.VisibilityCourseOnly
	}
	attachFile(r, file)

	// 新しい資料を先頭に置く
	g.db.resources = append([]*model.Resource{r}, g.db.resources...)
	out := *r
	return &out, nil
}

// UpdateResource は資料の属性を置き換え、ファイルが指定された場合は差し替える。
func (g *Gateway) UpdateResource(ctx context.Context, id int64, meta model.ResourceMetadata, file *model.FileUpload) (*model.Resource, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r := g.db.resource(id)
	if r == nil {
		return nil, model.NewNotFoundError(model.EntityResource, id)
	}
	if err := g.check(meta); err != nil {
		return nil, err
	}
	if err := g.db.checkCourses([]int64{meta.CourseID}); err != nil {
		return nil, err
	}

	g.applyResourceMetadata(r, meta)
	attachFile(r, file)
	out := *r
	return &out, nil
}

// DeleteResource は資料を削除する。
func (g *Gateway) DeleteResource(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return g.deleteResource(id)
}

func (g *Gateway) deleteResource(id int64) error {
	for i, r := range g.db.resources {
		if r.ID == id {
			g.db.resources = append(g.db.resources[:i], g.db.resources[i+1:]...)
			return nil
		}
	}
	return model.NewNotFoundError(model.EntityResource, id)
}

func (g *Gateway) applyResourceMetadata(r *model.Resource, meta model.ResourceMetadata) {
	r.Title = g.sanitizer.SanitizeText(meta.Title)
	r.Summary = g.sanitizer.SanitizeText(meta.Summary)
	r.CourseID = meta.CourseID
	if meta.Visibility != "" {
		r.Visibility = meta.Visibility
	}
}

func attachFile(r *model.Resource, file *model.FileUpload) {
	if file == nil {
		return
	}
	r.FileType = fileType(file.Name)
	r.FileSize = int64(len(file.Data))
	r.FilePath = uploadPath("resources", r.ID, file.Name)
}

// uploadPath は保存先のパスを返す。ファイル名のディレクトリ部分は取り除く。
func uploadPath(kind string, id int64, name string) string {
	return fmt.Sprintf("/uploads/%s/%d/%s", kind, id, path.Base(name))
}
