package gateway

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/eduqa/internal/pipeline"
	"github.com/hitoshi/eduqa/internal/remote"
	"github.com/hitoshi/eduqa/internal/session"
	"github.com/hitoshi/eduqa/internal/simulated"
)

var (
	_ Gateway = (*remote.Gateway)(nil)
	_ Gateway = (*simulated.Gateway)(nil)
)

// Options はゲートウェイ生成時の設定。
// Sessionはリモート実装のBearerトークン取得元、シミュレーション実装の操作ユーザー取得元になる。
type Options struct {
	UseMocks  bool
	Session   *session.Store
	Remote    pipeline.Options
	Simulated simulated.Options
	Logger    *slog.Logger
}

// New は設定に応じてゲートウェイ実装を1つ選んで生成する。起動時に1回だけ呼び出す。
func New(opts Options) (Gateway, error) {
	if opts.Session == nil {
		return nil, errors.New("gateway: session store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.UseMocks {
		simOpts := opts.Simulated
		simOpts.Identity = opts.Session
		if simOpts.Logger == nil {
			simOpts.Logger = logger
		}
		g, err := simulated.New(simOpts)
		if err != nil {
			return nil, fmt.Errorf("create simulated gateway: %w", err)
		}
		logger.Info("gateway selected", slog.String("mode", string(ModeSimulated)))
		return g, nil
	}

	remoteOpts := opts.Remote
	remoteOpts.Credentials = opts.Session
	if remoteOpts.Logger == nil {
		remoteOpts.Logger = logger
	}
	client, err := pipeline.New(remoteOpts)
	if err != nil {
		return nil, fmt.Errorf("create request pipeline: %w", err)
	}
	logger.Info("gateway selected",
		slog.String("mode", string(ModeRemote)),
		slog.String("base_url", remoteOpts.BaseURL),
	)
	return remote.New(client), nil
}
