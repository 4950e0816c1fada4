// Package discord 把歌词接龙接到Discord上。
// 每条频道消息都会交给核心处理；用户键由频道和作者共同构成，
// 同一个人在不同频道里是不同的接龙会话。
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"lyric-relay/internal/transport"
)

const turnTimeout = 30 * time.Second

// Bot Discord传输
type Bot struct {
	session  *discordgo.Session
	dispatch *dispatcher
}

// New 创建Bot，此时尚未连接
func New(token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Bot{session: session, dispatch: newDispatcher()}, nil
}

// Start 注册消息处理器并打开网关连接
func (b *Bot) Start(h transport.Handler) error {
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}

		// discordgo在事件循环里同步调用handler，入队即保持到达顺序；
		// 实际处理交给该用户的worker，不阻塞其他用户
		userKey := m.ChannelID + ":" + m.Author.ID
		b.dispatch.dispatch(userKey, func() {
			ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
			defer cancel()

			reply, ok := h(ctx, userKey, m.Content)
			if !ok {
				return
			}
			if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
				log.Error().Err(err).Str("channel", m.ChannelID).Msg("Failed to send reply")
			}
		})
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	log.Info().Msg("Discord transport connected")
	return nil
}

// Close 断开网关连接并停掉所有用户worker
func (b *Bot) Close() error {
	err := b.session.Close()
	b.dispatch.close()
	return err
}
