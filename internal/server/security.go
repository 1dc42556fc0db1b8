package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// 超过该时长没有请求且未被封禁的记录会被清理
const staleAfter = 10 * time.Minute

// RateLimiter 按 IP 限制建立连接的频率，超限后封禁一段时间
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*ipRate
	now     func() time.Time

	perSecond   int
	perMinute   int
	banDuration time.Duration
}

type ipRate struct {
	second      window
	minute      window
	bannedUntil time.Time
}

// window 固定窗口计数
type window struct {
	start time.Time
	count int
}

// hit 计一次请求，窗口过期时重新开始
func (w *window) hit(now time.Time, size time.Duration) int {
	if w.start.IsZero() || now.Sub(w.start) >= size {
		w.start = now
		w.count = 0
	}
	w.count++
	return w.count
}

// NewRateLimiter 创建连接速率限制器
func NewRateLimiter(perSecond, perMinute int, banDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:     make(map[string]*ipRate),
		now:         time.Now,
		perSecond:   perSecond,
		perMinute:   perMinute,
		banDuration: banDuration,
	}
}

// Allow 记录一次连接请求并返回是否放行
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rate, ok := rl.clients[ip]
	if !ok {
		rate = &ipRate{}
		rl.clients[ip] = rate
	}
	if now.Before(rate.bannedUntil) {
		return false
	}

	perSecond := rate.second.hit(now, time.Second)
	perMinute := rate.minute.hit(now, time.Minute)
	if perSecond > rl.perSecond || perMinute > rl.perMinute {
		rate.bannedUntil = now.Add(rl.banDuration)
		log.Warn().Str("ip", ip).Dur("ban", rl.banDuration).Msg("ip banned for connecting too often")
		return false
	}
	return true
}

// IsBanned IP 是否处于封禁期
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rate, ok := rl.clients[ip]
	return ok && rl.now().Before(rate.bannedUntil)
}

// Run 定期清理过期记录，直到 ctx 结束
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, rate := range rl.clients {
		if now.Sub(rate.minute.start) > staleAfter && !now.Before(rate.bannedUntil) {
			delete(rl.clients, ip)
		}
	}
}

// OriginChecker 校验 WebSocket 握手的 Origin 头
type OriginChecker struct {
	allowed  map[string]bool
	allowAll bool
}

// NewOriginChecker 创建来源校验器，"*" 或空列表表示不限制
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]bool), allowAll: len(origins) == 0}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			continue
		}
		oc.allowed[strings.ToLower(strings.TrimRight(origin, "/"))] = true
	}
	return oc
}

// Check 没有 Origin 头的请求（同源页面、命令行客户端）总是放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if oc.allowAll || origin == "" {
		return true
	}
	return oc.allowed[strings.ToLower(origin)]
}

// IPFilter IP 黑白名单
type IPFilter struct {
	mu        sync.RWMutex
	whitelist map[string]bool
	blacklist map[string]bool
}

// NewIPFilter 创建过滤器，blacklist 来自配置
func NewIPFilter(blacklist ...string) *IPFilter {
	f := &IPFilter{
		whitelist: make(map[string]bool),
		blacklist: make(map[string]bool, len(blacklist)),
	}
	for _, ip := range blacklist {
		f.blacklist[strings.TrimSpace(ip)] = true
	}
	return f
}

func (f *IPFilter) AddToWhitelist(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whitelist[ip] = true
}

func (f *IPFilter) AddToBlacklist(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[ip] = true
}

func (f *IPFilter) RemoveFromBlacklist(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blacklist, ip)
}

// IsAllowed 白名单非空时只放行白名单内的 IP；黑名单总是拒绝
func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.whitelist) > 0 && !f.whitelist[ip] {
		return false
	}
	return !f.blacklist[ip]
}

// GetClientIP 优先取反向代理头中的原始客户端地址
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// MessageRateLimiter 限制单个连接每秒的消息数
type MessageRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*messageRate
	now     func() time.Time

	perSecond int
	warnAt    int
}

type messageRate struct {
	window   window
	warnings int
}

// NewMessageRateLimiter 创建消息速率限制器，达到上限一半时开始警告
func NewMessageRateLimiter(perSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		clients:   make(map[string]*messageRate),
		now:       time.Now,
		perSecond: perSecond,
		warnAt:    perSecond / 2,
	}
}

// AllowMessage 记录一条消息，返回是否放行以及是否需要提醒放慢
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	rate, ok := ml.clients[clientID]
	if !ok {
		rate = &messageRate{}
		ml.clients[clientID] = rate
	}

	switch n := rate.window.hit(ml.now(), time.Second); {
	case n > ml.perSecond:
		rate.warnings++
		return false, true
	case n > ml.warnAt:
		return true, true
	default:
		return true, false
	}
}

// Warnings 连接累计的超限次数
func (ml *MessageRateLimiter) Warnings(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if rate, ok := ml.clients[clientID]; ok {
		return rate.warnings
	}
	return 0
}

// Remove 连接断开后清除记录
func (ml *MessageRateLimiter) Remove(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.clients, clientID)
}
