package middleware

import (
	"net/http"
	"net/netip"
	"os"
	"strings"

	"poi-dashboard/internal/logger"
)

// 文档注释：管理接口来源白名单（单 IP + CIDR）
// 背景：/reload 与 /metrics 不面向地图前端，只允许运维网段或本机访问。
// 约束：列表为空且未允许本机时视为未启用，直接放行；来源 IP 默认取 RemoteAddr，可通过 header 指定上游真实 IP。
type Allowlist struct {
	prefixes     []netip.Prefix
	realIPHeader string
}

// NewAllowlist 解析逗号分隔的 IP / CIDR 列表，无效项忽略
func NewAllowlist(entries string, allowLocal bool, realIPHeader string) *Allowlist {
	a := &Allowlist{realIPHeader: strings.TrimSpace(realIPHeader)}
	for _, p := range strings.Split(entries, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if pf, err := netip.ParsePrefix(p); err == nil {
			a.prefixes = append(a.prefixes, pf.Masked())
			continue
		}
		if ip, err := netip.ParseAddr(p); err == nil {
			a.prefixes = append(a.prefixes, netip.PrefixFrom(ip, ip.BitLen()))
			continue
		}
		logger.L().Warn("admin_allowlist_invalid_entry", "entry", p)
	}
	if allowLocal {
		a.prefixes = append(a.prefixes, netip.MustParsePrefix("127.0.0.0/8"), netip.MustParsePrefix("::1/128"))
	}
	return a
}

// AllowlistFromEnv ADMIN_ALLOW=ip,cidr,... ADMIN_ALLOW_LOCAL=true REAL_IP_HEADER=X-Forwarded-For
func AllowlistFromEnv() *Allowlist {
	return NewAllowlist(os.Getenv("ADMIN_ALLOW"), os.Getenv("ADMIN_ALLOW_LOCAL") == "true", os.Getenv("REAL_IP_HEADER"))
}

func (a *Allowlist) Enabled() bool { return len(a.prefixes) > 0 }

// Allowed 判断地址是否命中任一网段
func (a *Allowlist) Allowed(ip netip.Addr) bool {
	ip = ip.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// Guard 未命中白名单返回 403
func (a *Allowlist) Guard(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, ok := a.clientIP(r)
		if ok && a.Allowed(ip) {
			next.ServeHTTP(w, r)
			return
		}
		logger.L().Debug("admin_allowlist_block", "remote", r.RemoteAddr, "path", r.URL.Path)
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	})
}

// clientIP 优先指定 header 的首个有效 IP
func (a *Allowlist) clientIP(r *http.Request) (netip.Addr, bool) {
	if a.realIPHeader != "" {
		if raw := r.Header.Get(a.realIPHeader); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
				return ip, true
			}
		}
	}
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr(), true
	}
	ip, err := netip.ParseAddr(r.RemoteAddr)
	return ip, err == nil
}
