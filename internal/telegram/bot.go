// Package telegram feeds Telegram chats into the honeypot engine. Every
// chat is one conversation, identified as "tg:<chat id>". Only the
// operator chat can force a report; in every other chat commands other
// than /start are treated as ordinary messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/honeypot"
	"scam-honeypot/internal/report"
)

const (
	channelName = "Telegram"
	startCmd    = "start"
	finalCmd    = "final"
)

// Engine is the part of the honeypot the bot drives.
type Engine interface {
	Process(ctx context.Context, in honeypot.Inbound) (honeypot.Result, error)
	ForceReport(ctx context.Context, id string) (report.Report, error)
}

type Bot struct {
	s        sender
	updates  updateSource
	engine   Engine
	logger   *zap.Logger
	timeout  time.Duration
	operator int64
}

func New(botToken string, operatorChatID int64, engine Engine, logger *zap.Logger, timeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Bot{
		s:        botAPISender{api: api},
		updates:  api,
		engine:   engine,
		logger:   logger,
		timeout:  timeout,
		operator: operatorChatID,
	}, nil
}

// SessionID is the conversation id used for a chat.
func SessionID(chatID int64) string { return "tg:" + strconv.FormatInt(chatID, 10) }

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.updates.GetUpdatesChan(u)
	defer b.updates.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.Text == "" {
		return
	}
	if b.isOperator(msg.Chat.ID) {
		b.handleOperator(ctx, msg)
		return
	}
	if msg.IsCommand() && msg.Command() == startCmd {
		b.sendMessage(msg.Chat.ID, "Hello, who is this?")
		return
	}
	id := SessionID(msg.Chat.ID)

	meta := &honeypot.Metadata{Channel: channelName}
	if msg.From != nil {
		meta.Language = msg.From.LanguageCode
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.engine.Process(ctx, honeypot.Inbound{
		SessionID: id,
		Message: conversation.Turn{
			Origin:    conversation.Counterpart,
			Text:      msg.Text,
			Timestamp: conversation.At(msg.Time()),
		},
		Metadata: meta,
	})
	if err != nil {
		b.logger.Warn("telegram turn rejected", zap.Error(err), zap.String("session_id", id))
		res.Reply = honeypot.FallbackReply
	}
	b.logger.Debug("telegram turn",
		zap.String("session_id", id),
		zap.Bool("scam", res.ScamDetected),
		zap.Bool("report_queued", res.ReportQueued),
	)
	b.sendMessage(msg.Chat.ID, res.Reply)
}

func (b *Bot) isOperator(chatID int64) bool { return b.operator != 0 && chatID == b.operator }

// handleOperator serves the operator chat, which is never a conversation
// itself. "/final <chat id>" forces the report of that chat.
func (b *Bot) handleOperator(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() || msg.Command() != finalCmd {
		b.sendMessage(msg.Chat.ID, "Usage: /final <chat id>")
		return
	}
	target, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil || target == b.operator {
		b.sendMessage(msg.Chat.ID, "Usage: /final <chat id>")
		return
	}
	id := SessionID(target)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	rep, err := b.engine.ForceReport(ctx, id)
	switch {
	case errors.Is(err, honeypot.ErrNotFound):
		b.sendMessage(msg.Chat.ID, "Nothing to report for "+id+".")
	case err != nil && !errors.Is(err, honeypot.ErrAlreadySent):
		b.logger.Warn("telegram forced report failed", zap.Error(err), zap.String("session_id", id))
		b.sendMessage(msg.Chat.ID, "Report for "+id+" could not be delivered.")
	default:
		b.sendMessage(msg.Chat.ID, rep.AgentNotes)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}
