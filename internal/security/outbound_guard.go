// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// allowedSchemes は外部API呼び出しで許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedHostnames はブロック対象のホスト名。
var blockedHostnames = []string{
	"localhost",
	"metadata.google.internal",
}

// OutboundGuard は外部API（Notion）への送信を安全なあて先に限定する。
type OutboundGuard struct {
	allowedPorts []int
}

// NewOutboundGuard はOutboundGuardを生成する。
func NewOutboundGuard() *OutboundGuard {
	return &OutboundGuard{allowedPorts: []int{80, 443}}
}

// NewClient はあて先検証付きのHTTPクライアントを生成する。
// safeurlがDNS解決後のIPアドレスをDialer段階で検証するため、
// プライベートIP、ループバック、リンクローカルへの接続はDNS再バインディング経由でも拒否される。
func (g *OutboundGuard) NewClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(g.allowedPorts...).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL は設定されたAPIベースURLを起動時に静的検証する。
// DNS解決は行わない。
func (g *OutboundGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %q (allowed: %v)", scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isBlockedIP はRFC 1918、ループバック、リンクローカル（メタデータIP含む）、
// 0.0.0.0/8、IPv6ユニークローカルを拒否する。
func isBlockedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if v4 := ip.To4(); v4 != nil && v4[0] == 0 {
		return true
	}
	return false
}

func isBlockedHostname(host string) bool {
	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	for _, blocked := range blockedHostnames {
		if lower == blocked || strings.HasSuffix(lower, "."+blocked) {
			return true
		}
	}
	return false
}
