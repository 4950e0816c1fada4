// Package game 实现歌词接龙的会话状态机。
// 每个用户一份会话状态，同一用户的消息严格串行处理，
// 不同用户之间完全并发。所有内部失败都降级为沉默，
// 只有退出指令会得到固定的确认，绝不向聊天频道输出错误。
package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lyric-relay/internal/lyric"
	"lyric-relay/internal/match"
)

// DefaultSessionTimeout 默认会话超时
const DefaultSessionTimeout = 60 * time.Second

// DefaultExitMessage 默认退出确认语
const DefaultExitMessage = "已退出连唱模式"

// DefaultExitKeywords 默认退出关键词
var DefaultExitKeywords = []string{"退出接歌", "结束接歌", "quit", "q"}

var logger = log.With().Str("component", "game").Logger()

// Resolver 无会话时的找歌入口，由 internal/resolve 实现
type Resolver interface {
	Resolve(ctx context.Context, fragment string) (*lyric.Document, match.Result, error)
}

// Config 会话管理器配置
type Config struct {
	SessionTimeout time.Duration
	ExitKeywords   []string
	ExitMessage    string
}

// session 单个用户的会话状态。
// active 为 false 即无会话；字段只在持有 mu 时访问。
type session struct {
	mu           sync.Mutex
	active       bool
	doc          *lyric.Document
	index        int
	lastActivity time.Time
}

// Manager 会话管理器：按用户键维护状态机并处理每一条消息
type Manager struct {
	resolver Resolver
	locator  *match.Locator
	timeout  time.Duration
	exitSet  map[string]struct{}
	exitMsg  string

	// 测试中替换时钟
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager 创建会话管理器
func NewManager(resolver Resolver, locator *match.Locator, cfg Config) *Manager {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if len(cfg.ExitKeywords) == 0 {
		cfg.ExitKeywords = DefaultExitKeywords
	}
	if cfg.ExitMessage == "" {
		cfg.ExitMessage = DefaultExitMessage
	}

	exitSet := make(map[string]struct{}, len(cfg.ExitKeywords))
	for _, kw := range cfg.ExitKeywords {
		exitSet[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}

	return &Manager{
		resolver: resolver,
		locator:  locator,
		timeout:  cfg.SessionTimeout,
		exitSet:  exitSet,
		exitMsg:  cfg.ExitMessage,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Handle 处理一条用户消息。ok 为 false 表示沉默（不发送任何回复）。
func (m *Manager) Handle(ctx context.Context, userKey, text string) (reply string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	s := m.session(userKey)
	s.mu.Lock()
	defer s.mu.Unlock()

	// 退出指令在任何状态下都生效
	if _, isExit := m.exitSet[strings.ToLower(text)]; isExit {
		logger.Info().Str("user", userKey).Msg("User exited relay")
		s.reset()
		return m.exitMsg, true
	}

	now := m.now()

	// 超时按无会话处理，当前这句作为新的开局
	if s.active && now.Sub(s.lastActivity) > m.timeout {
		logger.Info().Str("user", userKey).Msg("Session timed out, treating as fresh start")
		s.reset()
	}

	if !s.active {
		return m.handleFresh(ctx, userKey, s, text, now)
	}
	return m.handleContinuation(userKey, s, text, now)
}

// handleFresh 无会话：解析歌曲并开局
func (m *Manager) handleFresh(ctx context.Context, userKey string, s *session, text string, now time.Time) (string, bool) {
	doc, res, err := m.resolver.Resolve(ctx, text)
	if err != nil {
		// 找不到歌或提供商失败都沉默，不打扰频道
		logger.Debug().Err(err).Str("user", userKey).Msg("Resolution failed")
		return "", false
	}

	s.active = true
	s.doc = doc
	s.index = res.Index
	s.lastActivity = now

	logger.Info().
		Str("user", userKey).
		Str("song_id", doc.SongID).
		Int("index", res.Index).
		Float64("confidence", res.Confidence).
		Str("strategy", string(res.Strategy)).
		Msg("Session started")

	return m.nextLine(s)
}

// handleContinuation 有会话：从当前位置继续定位
func (m *Manager) handleContinuation(userKey string, s *session, text string, now time.Time) (string, bool) {
	res, found := m.locator.Locate(s.doc, s.index, text)
	if !found {
		// 接不上就安静地结束这一局
		logger.Info().Str("user", userKey).Str("song_id", s.doc.SongID).Msg("Continuation failed, ending session")
		s.reset()
		return "", false
	}

	s.index = res.Index
	s.lastActivity = now

	logger.Debug().
		Str("user", userKey).
		Int("index", res.Index).
		Float64("confidence", res.Confidence).
		Str("strategy", string(res.Strategy)).
		Msg("Continuation matched")

	return m.nextLine(s)
}

// nextLine 回复当前位置的下一句。歌曲在当前句结束时沉默，
// 会话保持在末尾位置。
func (m *Manager) nextLine(s *session) (string, bool) {
	next := s.index + 1
	if next >= len(s.doc.Lines) {
		return "", false
	}
	return s.doc.Lines[next].Text, true
}

// session 取出或创建用户的会话条目
func (m *Manager) session(userKey string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userKey]
	if !ok {
		s = &session{}
		m.sessions[userKey] = s
	}
	return s
}

// Active 该用户当前是否处于连唱中（测试用）
func (m *Manager) Active(userKey string) bool {
	s := m.session(userKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *session) reset() {
	s.active = false
	s.doc = nil
	s.index = 0
	s.lastActivity = time.Time{}
}
