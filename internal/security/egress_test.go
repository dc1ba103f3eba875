package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewStrictClient_Timeout はタイムアウト設定が反映されることを検証する。
func TestNewStrictClient_Timeout(t *testing.T) {
	client := NewEgressGuard().NewStrictClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewStrictClient() returned nil")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("expected timeout %v, got %v", 5*time.Second, client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected custom Transport")
	}
}

// TestNewStrictClient_BlocksLoopback はループバック宛ての接続が拒否されることを検証する。
// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewStrictClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewEgressGuard().NewStrictClient(5 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestValidateBaseURL_ReturnsPort は公開URLの検証が成功し、ポートが返ることを検証する。
func TestValidateBaseURL_ReturnsPort(t *testing.T) {
	g := NewEgressGuard()

	tests := []struct {
		url  string
		port int
	}{
		{"https://qa.example.edu/api", 443},
		{"http://qa.example.edu/api", 80},
		{"http://118.89.81.131:8080/api", 8080},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			port, err := g.ValidateBaseURL(tt.url)
			if err != nil {
				t.Fatalf("ValidateBaseURL(%q) returned error: %v", tt.url, err)
			}
			if port != tt.port {
				t.Errorf("port = %d, want %d", port, tt.port)
			}
		})
	}
}

// TestValidateBaseURL_RejectsUnsafeTargets は内部アドレスや不正なURLの拒否を検証する。
func TestValidateBaseURL_RejectsUnsafeTargets(t *testing.T) {
	g := NewEgressGuard()

	urls := []string{
		"",
		"ftp://example.com/api",
		"http:///api",
		"http://localhost:8080/api",
		"http://127.0.0.1/api",
		"http://10.1.2.3/api",
		"http://192.168.0.10/api",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/api",
		"http://example.com:abc/api",
	}
	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			if _, err := g.ValidateBaseURL(u); err == nil {
				t.Errorf("ValidateBaseURL(%q) should have returned error", u)
			}
		})
	}
}
