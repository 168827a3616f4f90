package server

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	peerSweepInterval = 5 * time.Minute
	peerIdleTTL       = 10 * time.Minute
)

// connLimiter 按 IP 限制新连接和大厅请求。每秒、每分钟两个令牌桶，任一耗尽即封禁 ban 时长
type connLimiter struct {
	mu    sync.Mutex
	peers map[string]*peer
	now   func() time.Time

	perSecond int
	perMinute int
	ban       time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type peer struct {
	second      *rate.Limiter
	minute      *rate.Limiter
	bannedUntil time.Time
	lastSeen    time.Time
}

// newConnLimiter 创建限流器并启动过期记录清理，调用方负责 Stop
func newConnLimiter(perSecond, perMinute int, ban time.Duration) *connLimiter {
	l := &connLimiter{
		peers:     make(map[string]*peer),
		now:       time.Now,
		perSecond: perSecond,
		perMinute: perMinute,
		ban:       ban,
		stop:      make(chan struct{}),
	}
	go l.sweepLoop(peerSweepInterval)
	return l
}

// Allow 记录一次请求并返回是否放行
func (l *connLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	p, ok := l.peers[ip]
	if !ok {
		p = &peer{
			second: rate.NewLimiter(rate.Limit(l.perSecond), l.perSecond),
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(max(l.perMinute, 1))), l.perMinute),
		}
		l.peers[ip] = p
	}
	p.lastSeen = now

	if now.Before(p.bannedUntil) {
		return false
	}
	if p.second.AllowN(now, 1) && p.minute.AllowN(now, 1) {
		return true
	}

	p.bannedUntil = now.Add(l.ban)
	logrus.WithField("ip", ip).Warnf("⚠️ 请求过于频繁，暂时封禁 %v", l.ban)
	return false
}

// Stop 停止清理协程
func (l *connLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *connLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

// sweep 删除长时间没有请求且不在封禁中的记录
func (l *connLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, p := range l.peers {
		if now.Sub(p.lastSeen) > peerIdleTTL && !now.Before(p.bannedUntil) {
			delete(l.peers, ip)
		}
	}
}

// msgBudget 单个连接的消息速率，只在该连接的读协程里使用
type msgBudget struct {
	lim     *rate.Limiter
	burst   int
	strikes int
}

func newMsgBudget(perSecond int) *msgBudget {
	return &msgBudget{lim: rate.NewLimiter(rate.Limit(perSecond), perSecond), burst: perSecond}
}

// take 消耗一条消息的额度。ok 为 false 时记一次超速；near 表示余量已不足一半
func (b *msgBudget) take(now time.Time) (ok, near bool) {
	if !b.lim.AllowN(now, 1) {
		b.strikes++
		return false, true
	}
	return true, b.lim.TokensAt(now) < float64(b.burst)/2
}

// originCheck 生成 WebSocket 升级时的来源校验，"*" 放行所有来源。
// 没有 Origin 头的请求（非浏览器客户端）放行
func originCheck(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[normalizeOrigin(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[normalizeOrigin(origin)]
	}
}

// normalizeOrigin 统一为小写的 scheme://host[:port]
func normalizeOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// ipRules 配置里的白名单和黑名单，条目可以是单个 IP 或 CIDR。黑名单优先；
// 白名单非空时只允许名单内的地址
type ipRules struct {
	allow []netip.Prefix
	deny  []netip.Prefix
}

func newIPRules(allow, deny []string) ipRules {
	return ipRules{allow: parsePrefixes(allow), deny: parsePrefixes(deny)}
}

func parsePrefixes(entries []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
			continue
		}
		logrus.WithField("entry", e).Warn("忽略无效的 IP 规则")
	}
	return out
}

// Allows 检查地址是否放行，无法解析的地址只在没有白名单时放行
func (r ipRules) Allows(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return len(r.allow) == 0
	}
	addr = addr.Unmap()
	if matchAny(r.deny, addr) {
		return false
	}
	return len(r.allow) == 0 || matchAny(r.allow, addr)
}

func matchAny(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// GetClientIP 获取客户端真实 IP，优先代理头
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
