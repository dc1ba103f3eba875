// Package simulated はメモリ上のデータセットでAPIサーバーの振る舞いを再現するゲートウェイを提供する。
//
// ネットワーク通信を行わず、サーバーと同じ検索・ページ分割・状態遷移の規則で応答する。
// デモ環境や画面の動作確認で使用し、各操作の前に人工的な遅延を挟む。
package simulated

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/security"
)

// DefaultLatency は各操作に挟む既定の遅延。
const DefaultLatency = 400 * time.Millisecond

// Identity は操作を行うユーザーを返す。session.Storeが満たす。
type Identity interface {
	CurrentUser() *model.UserProfile
}

// TokenSource は保持中のアクセストークンを返す。
// IdentityがTokenSourceも満たす場合、操作のたびにトークンを検証する。session.Storeが満たす。
type TokenSource interface {
	AccessToken() string
}

// Options はシミュレーションゲートウェイの設定。
type Options struct {
	Identity   Identity
	Latency    time.Duration // 0以下の場合は遅延なし
	JWTSecret  string
	BcryptCost int // 0の場合はbcrypt.DefaultCost
	Sanitizer  security.ContentSanitizer
	Now        func() time.Time
	Logger     *slog.Logger
}

// Gateway はメモリ上のデータセットに対してゲートウェイの全操作を実行する。
// 全操作は1つのミューテックスで直列化され、各操作は1回の論理的なステップとして観測される。
type Gateway struct {
	identity   Identity
	latency    time.Duration
	secret     []byte
	bcryptCost int
	sanitizer  security.ContentSanitizer
	now        func() time.Time
	logger     *slog.Logger
	validate   *validator.Validate

	mu sync.Mutex
	db *dataset
}

// New はフィクスチャデータを読み込んだシミュレーションゲートウェイを生成する。
func New(opts Options) (*Gateway, error) {
	g := &Gateway{
		identity:   opts.Identity,
		latency:    opts.Latency,
		secret:     []byte(opts.JWTSecret),
		bcryptCost: opts.BcryptCost,
		sanitizer:  opts.Sanitizer,
		now:        opts.Now,
		logger:     opts.Logger,
		validate:   newValidator(),
	}
	if g.bcryptCost == 0 {
		g.bcryptCost = bcrypt.DefaultCost
	}
	if g.sanitizer == nil {
		g.sanitizer = security.NewContentSanitizer()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if len(g.secret) == 0 {
		return nil, errors.New("simulated: JWT secret is required")
	}

	db, err := seed(g.now(), g.hashPassword)
	if err != nil {
		return nil, fmt.Errorf("seed fixtures: %w", err)
	}
	g.db = db
	return g, nil
}

// Mode は実装種別を返す。
func (g *Gateway) Mode() model.GatewayMode {
	return model.GatewaySimulated
}

// enter は人工的な遅延の後にロックを取得し、解放関数を返す。
// 遅延中にctxがキャンセルされた場合は操作を実行しない。
func (g *Gateway) enter(ctx context.Context) (func(), error) {
	if g.latency > 0 {
		t := time.NewTimer(g.latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	return g.mu.Unlock, nil
}

// actor はセッションのユーザーに対応するレコードを返す。呼び出し側がロックを保持していること。
func (g *Gateway) actor() (*userRecord, error) {
	if g.identity == nil {
		return nil, model.NewNotAuthenticatedError()
	}
	u := g.identity.CurrentUser()
	if u == nil {
		return nil, model.NewNotAuthenticatedError()
	}
	rec := g.db.user(u.ID)
	if rec == nil {
		return nil, model.NewNotAuthenticatedError()
	}
	if ts, ok := g.identity.(TokenSource); ok {
		claims, err := g.verifyAccessToken(ts.AccessToken())
		if err != nil || claims.UserID != rec.profile.ID {
			// 別の秘密鍵で発行されたトークンや期限切れのトークンを復元した場合
			g.logger.Warn("rejecting session token", slog.Int64("user_id", u.ID), slog.Any("error", err))
			return nil, model.NewNotAuthenticatedError()
		}
	}
	return rec, nil
}

func (g *Gateway) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// check は入力値を検証し、違反があればInvalidInputエラーを返す。
func (g *Gateway) check(v any) error {
	err := g.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewInvalidInputError(err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+"("+fe.Tag()+")")
	}
	return model.NewInvalidInputError(strings.Join(fields, ", "))
}

func newValidator() *validator.Validate {
	v := validator.New()
	// エラーにはJSONのフィールド名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
