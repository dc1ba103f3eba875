package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// デフォルト値。設定なしでデモ（シミュレーション）モードとして起動できる。
const (
	DefaultAPIBaseURL = "http://118.89.81.131:8080/api"
	DefaultJWTSecret  = "eduqa-demo-secret"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Gateway
	APIBaseURL       string
	UseMocks         bool
	SimulatedLatency time.Duration
	JWTSecret        string

	// Request pipeline
	RequestTimeout     time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
	StrictEgress       bool

	// Session
	SessionDir           string
	SessionRedisAddr     string
	SessionRedisPassword string
	SessionRedisDB       int
	SessionTTL           time.Duration

	// Logging
	LogLevel string

	// Server
	ServerHost   string
	ServerPort   string
	CookieSecure bool

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須の環境変数はなく、不正な値はデフォルト値にフォールバックする。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.APIBaseURL = strings.TrimRight(getEnvString("API_BASE_URL", DefaultAPIBaseURL), "/")
	cfg.UseMocks = getEnvBool("USE_MOCKS", true)
	cfg.SimulatedLatency = getEnvDuration("SIMULATED_LATENCY", 400*time.Millisecond)
	cfg.JWTSecret = getEnvString("JWT_SECRET", DefaultJWTSecret)

	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 15*time.Second)
	cfg.RateLimitPerSecond = getEnvFloat("RATE_LIMIT_PER_SECOND", 10)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 20)
	cfg.StrictEgress = getEnvBool("STRICT_EGRESS", false)

	cfg.SessionDir = getEnvString("SESSION_DIR", defaultSessionDir())
	cfg.SessionRedisAddr = getEnvString("SESSION_REDIS_ADDR", "")
	cfg.SessionRedisPassword = getEnvString("SESSION_REDIS_PASSWORD", "")
	cfg.SessionRedisDB = getEnvInt("SESSION_REDIS_DB", 0)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 0)

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerHost = getEnvString("SERVER_HOST", "127.0.0.1")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

// defaultSessionDir はセッションファイルの既定の保存先を返す。
// ユーザー設定ディレクトリが取得できない場合はカレントディレクトリを使う。
func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".eduqa"
	}
	return dir + string(os.PathSeparator) + "eduqa"
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
