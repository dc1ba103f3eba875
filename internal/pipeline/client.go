// Package pipeline はリモートAPIへのすべてのリクエストが通る共通処理を提供する。
//
// 1リクエストごとに次の処理を行う:
//   - セッションストアのアクセストークンをBearerヘッダーとして付与する
//   - {code, message, data} 形式のエンベロープを解除する
//   - エンベロープ・HTTPレベルの失敗をRemoteRejectedとTransportErrorに正規化する
//
// 自動リトライは行わない。失敗はそのまま呼び出し元に返る。
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/hitoshi/eduqa/internal/metrics"
	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/security"
)

// maxResponseSize はレスポンスボディの最大読み込みサイズ。
const maxResponseSize = 10 << 20

// RequestIDHeader はリクエストIDを伝播するヘッダー名。
const RequestIDHeader = "X-Request-Id"

// CredentialSource はリクエストに付与するアクセストークンの取得元。
// session.Storeが実装する。
type CredentialSource interface {
	AccessToken() string
}

// Options はClientの設定。
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64 // 1秒あたりのリクエスト数。0以下の場合は制限しない
	Burst        int
	StrictEgress bool
	Credentials  CredentialSource
	Metrics      metrics.MetricsCollector
	Logger       *slog.Logger

	// HTTPClient が指定された場合はTimeoutとStrictEgressより優先する。
	HTTPClient *http.Client
}

// Client はリモートAPIクライアントの共通パイプライン。並行に利用してよい。
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials CredentialSource
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
}

// New はClientを生成する。
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		if opts.StrictEgress {
			guard := security.NewEgressGuard()
			port, err := guard.ValidateBaseURL(opts.BaseURL)
			if err != nil {
				return nil, fmt.Errorf("API base URL rejected by egress policy: %w", err)
			}
			httpClient = guard.NewStrictClient(opts.Timeout, port)
		} else {
			httpClient = &http.Client{Timeout: opts.Timeout}
		}
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		httpClient:  httpClient,
		limiter:     limiter,
		credentials: opts.Credentials,
		metrics:     m,
		logger:      logger,
	}, nil
}

// Request は1回のAPI呼び出し。
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body はJSONとして送信する。Multipartと同時に指定してはならない。
	Body      any
	Multipart *Multipart

	// Anonymous はセッションのトークンを付与しない。ログイン等で使用する。
	Anonymous bool
	// Token が空でない場合はセッションに関係なくこのトークンを付与する。
	Token string
}

// Do はリクエストを送信し、エンベロープを解除した結果をoutにデコードする。
// outがnilの場合は結果を破棄する。
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.RecordUpstreamFailure("rate_limit")
			return &model.TransportError{Cause: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return &model.TransportError{Cause: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordUpstreamFailure("transport")
		c.logger.Warn("api request failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		return &model.TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.metrics.RecordUpstreamLatency(time.Since(start))
	c.metrics.RecordUpstreamStatus(resp.StatusCode)
	if err != nil {
		c.metrics.RecordUpstreamFailure("transport")
		return &model.TransportError{Status: resp.StatusCode, Cause: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("api request",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", httpReq.Header.Get(RequestIDHeader)),
		slog.Duration("duration", time.Since(start)),
	)

	if err := c.decode(resp.StatusCode, body, out); err != nil {
		if model.KindOf(err) == model.KindRemoteRejected {
			c.metrics.RecordUpstreamFailure("rejected")
		} else {
			c.metrics.RecordUpstreamFailure("transport")
		}
		c.logger.Warn("api request rejected",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Multipart != nil:
		buf, ct, err := req.Multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("encode multipart: %w", err)
		}
		body, contentType = buf, ct
	case req.Body != nil:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	reqID := chimw.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	httpReq.Header.Set(RequestIDHeader, reqID)

	token := req.Token
	if token == "" && !req.Anonymous && c.credentials != nil {
		token = c.credentials.AccessToken()
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}
