// Package session はログイン中のユーザーと認証トークンを保持するセッションストアを提供する。
//
// ストアはプロセス全体で共有される唯一の可変状態であり、
// 変更はSetAuthとLogoutの2つの入口からのみ行われる。
// 読み出しはロックを取らず、常にユーザーとトークンの組を一貫した状態で返す。
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hitoshi/eduqa/internal/model"
)

// Namespace は永続化ストレージ上のキー。
const Namespace = "edushareqa-auth"

// persistTimeout はバックエンドへの書き込み1回あたりの上限時間。
const persistTimeout = 5 * time.Second

// Snapshot はある時点のセッション状態。生成後は変更されない。
type Snapshot struct {
	User       *model.UserProfile `json:"user"`
	Credential *model.Credential  `json:"credential"`
}

// Authenticated は認証トークンを保持しているかを返す。
func (s Snapshot) Authenticated() bool {
	return s.Credential != nil && s.Credential.AccessToken != ""
}

// Backend はセッション状態の永続化先。
// Loadはキーが存在しない場合 (nil, nil) を返す。
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store はセッションストア。並行に利用してよい。
type Store struct {
	state   atomic.Pointer[Snapshot]
	backend Backend
	logger  *slog.Logger

	// mu は書き込みと購読者リストの操作を直列化する
	mu      sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// NewStore は空のセッションストアを生成する。backendがnilの場合は永続化しない。
func NewStore(backend Backend, logger *slog.Logger) *Store {
	s := &Store{
		backend: backend,
		logger:  logger,
		subs:    make(map[int]chan Snapshot),
	}
	s.state.Store(&Snapshot{})
	return s
}

// Open はバックエンドから前回の状態を復元したストアを返す。
// 保存データが壊れている場合は破棄して未ログイン状態で開始する。
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	s := NewStore(backend, logger)
	if backend == nil {
		return s, nil
	}

	data, err := backend.Load(ctx, Namespace)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return s, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || !snap.Authenticated() || snap.User == nil {
		logger.Warn("discarding unreadable session state", slog.Int("bytes", len(data)))
		if err := backend.Delete(ctx, Namespace); err != nil {
			logger.Error("failed to delete session state", slog.String("error", err.Error()))
		}
		return s, nil
	}
	s.state.Store(&snap)
	logger.Info("session restored", slog.Int64("user_id", snap.User.ID))
	return s, nil
}

// SetAuth はユーザーと認証トークンを1つの操作で置き換える。
func (s *Store) SetAuth(user model.UserProfile, credential model.Credential) {
	user.Roles = append([]model.Role(nil), user.Roles...)
	s.replace(&Snapshot{User: &user, Credential: &credential})
}

// Logout はユーザーと認証トークンの両方を破棄する。
func (s *Store) Logout() {
	s.replace(&Snapshot{})
}

// CurrentCredential は現在の認証トークンのコピーを返す。未ログインの場合はnil。
func (s *Store) CurrentCredential() *model.Credential {
	snap := s.state.Load()
	if snap.Credential == nil {
		return nil
	}
	c := *snap.Credential
	return &c
}

// CurrentUser は現在のユーザーのコピーを返す。未ログインの場合はnil。
func (s *Store) CurrentUser() *model.UserProfile {
	snap := s.state.Load()
	if snap.User == nil {
		return nil
	}
	u := *snap.User
	u.Roles = append([]model.Role(nil), snap.User.Roles...)
	return &u
}

// AccessToken は現在のアクセストークンを返す。未ログインの場合は空文字。
func (s *Store) AccessToken() string {
	if c := s.state.Load().Credential; c != nil {
		return c.AccessToken
	}
	return ""
}

// Snapshot は現在の状態を返す。返り値のポインタ先を変更してはならない。
func (s *Store) Snapshot() Snapshot {
	return *s.state.Load()
}

// Subscribe は状態変更の通知を受け取るチャネルを返す。
// 受信が追いつかない購読者には最新の状態のみが残る。
// 返されたcancelを呼ぶとチャネルが閉じられる。
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) replace(next *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(next)
	s.persist(next)

	for _, ch := range s.subs {
		publish(ch, *next)
	}
}

// publish はチャネルに最新の状態を送る。古い未受信の値は捨てる。
func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// persist は状態をバックエンドへ書き込む。失敗はログに記録するのみで、
// メモリ上の状態が正となる。
func (s *Store) persist(snap *Snapshot) {
	if s.backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if !snap.Authenticated() {
		if err := s.backend.Delete(ctx, Namespace); err != nil {
			s.logger.Error("failed to clear session state", slog.String("error", err.Error()))
		}
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("failed to encode session state", slog.String("error", err.Error()))
		return
	}
	if err := s.backend.Save(ctx, Namespace, data); err != nil {
		s.logger.Error("failed to persist session state", slog.String("error", err.Error()))
	}
}
