package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// allowedSchemes はAPIサーバーとして許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks は厳格モードで接続を禁止するネットワーク範囲。
// 静的検証用で、接続時の検証はsafeurlのDialerフックが行う。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16", // クラウドメタデータIPを含む
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// EgressGuard はリモートゲートウェイの送信先を公開アドレスに制限する。
// STRICT_EGRESS有効時、パイプラインはこのクライアントを使用する。
type EgressGuard struct{}

// NewEgressGuard はEgressGuardを生成する。
func NewEgressGuard() *EgressGuard {
	return &EgressGuard{}
}

// NewStrictClient はプライベート・ループバック・リンクローカル宛ての接続を拒否する
// HTTPクライアントを生成する。portsが空の場合は80と443のみ許可する。
// 検証は名前解決後のIPに対して行われるため、DNS再バインディングにも対応する。
func (g *EgressGuard) NewStrictClient(timeout time.Duration, ports ...int) *http.Client {
	if len(ports) == 0 {
		ports = []int{80, 443}
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(ports...).
		Build()

	return safeurl.Client(config).Client
}

// ValidateBaseURL はAPIベースURLを名前解決なしで静的に検証し、
// 接続に使うポート番号を返す。
func (g *EgressGuard) ValidateBaseURL(rawURL string) (int, error) {
	if rawURL == "" {
		return 0, fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return 0, fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return 0, fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return 0, fmt.Errorf("blocked IP address: %s", ip.String())
		}
	} else if strings.EqualFold(host, "localhost") {
		return 0, fmt.Errorf("blocked host: %s", host)
	}

	port := 80
	if scheme == "https" {
		port = 443
	}
	if p := parsed.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid port: %s", p)
		}
	}
	return port, nil
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
