// Package remote はリモートAPIサーバーを呼び出すゲートウェイ実装を提供する。
// 状態を持たず、各操作をリクエストパイプライン経由のHTTP呼び出しに変換する。
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/pipeline"
)

// Doer はリクエストパイプライン。pipeline.Clientが実装する。
type Doer interface {
	Do(ctx context.Context, req pipeline.Request, out any) error
}

// Gateway はリモートAPIを呼び出すゲートウェイ。
type Gateway struct {
	client Doer
}

// New はGatewayを生成する。
func New(client Doer) *Gateway {
	return &Gateway{client: client}
}

// Mode はゲートウェイ種別を返す。
func (g *Gateway) Mode() model.GatewayMode {
	return model.GatewayRemote
}

func (g *Gateway) get(ctx context.Context, path string, query url.Values, out any) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (g *Gateway) post(ctx context.Context, path string, body, out any) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (g *Gateway) put(ctx context.Context, path string, body, out any) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (g *Gateway) remove(ctx context.Context, path string) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodDelete, Path: path}, nil)
}

func (g *Gateway) postMultipart(ctx context.Context, path string, body *pipeline.Multipart, out any) error {
	return g.client.Do(ctx, pipeline.Request{Method: http.MethodPost, Path: path, Multipart: body}, out)
}

func itemPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}

// fetch はoutの型の値を1つ取得するジェネリックなヘルパー。
func fetch[T any](ctx context.Context, g *Gateway, path string, query url.Values) (*T, error) {
	var out T
	if err := g.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetchPage は一覧を取得し、サーバーが省略したページ指定を補完する。
func fetchPage[T any](ctx context.Context, g *Gateway, path string, query url.Values, paging model.Paging) (*model.Page[T], error) {
	var out model.Page[T]
	if err := g.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	page, pageSize := paging.Effective()
	if out.Page <= 0 {
		out.Page = page
	}
	if out.PageSize <= 0 {
		out.PageSize = pageSize
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return &out, nil
}
