package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramUpdateLimit = 100

// UpdatesAPI is the slice of the Bot API the Telegram source needs.
type UpdatesAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// TelegramConfig configures a TelegramSource.
type TelegramConfig struct {
	// Chats restricts ingestion to these chat usernames or titles. Empty
	// accepts every chat the bot sees.
	Chats []string
	Retry service.RetryOptions
}

// TelegramSource polls the Bot API for channel posts and group messages the
// bot can see. Each fetch acknowledges what it returned by advancing the
// update offset.
type TelegramSource struct {
	api    UpdatesAPI
	chats  map[string]bool
	retry  service.RetryOptions
	mu     sync.Mutex
	offset int
}

// NewTelegramSource connects to the Bot API with token.
func NewTelegramSource(token string, cfg TelegramConfig) (*TelegramSource, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token", common.ErrMissingConfig)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	return NewTelegramSourceWithAPI(api, cfg), nil
}

// NewTelegramSourceWithAPI builds a source around an existing client.
func NewTelegramSourceWithAPI(api UpdatesAPI, cfg TelegramConfig) *TelegramSource {
	chats := make(map[string]bool, len(cfg.Chats))
	for _, c := range cfg.Chats {
		chats[strings.ToLower(strings.TrimPrefix(c, "@"))] = true
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		}
	}
	return &TelegramSource{api: api, chats: chats, retry: cfg.Retry}
}

// Name implements Source.
func (t *TelegramSource) Name() string { return "telegram" }

// Offset returns the next update id to request.
func (t *TelegramSource) Offset() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// SetOffset resumes polling from a saved offset.
func (t *TelegramSource) SetOffset(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offset = offset
}

// Fetch implements Source.
func (t *TelegramSource) Fetch(ctx context.Context) ([]model.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var updates []tgbotapi.Update
	err := common.WithRetry(ctx, func() error {
		var err error
		updates, err = t.api.GetUpdates(tgbotapi.UpdateConfig{
			Offset:         t.offset,
			Limit:          telegramUpdateLimit,
			AllowedUpdates: []string{"message", "channel_post"},
		})
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err), Retryable: true}
		}
		return nil
	}, t.retry)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	var items []model.Item
	for _, u := range updates {
		if u.UpdateID >= t.offset {
			t.offset = u.UpdateID + 1
		}
		msg := u.ChannelPost
		if msg == nil {
			msg = u.Message
		}
		if msg == nil || msg.Chat == nil {
			continue
		}
		if item, ok := t.item(msg); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (t *TelegramSource) item(msg *tgbotapi.Message) (model.Item, bool) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return model.Item{}, false
	}

	chat := msg.Chat
	if len(t.chats) > 0 &&
		!t.chats[strings.ToLower(chat.UserName)] &&
		!t.chats[strings.ToLower(chat.Title)] {
		return model.Item{}, false
	}

	source := chat.Title
	if source == "" {
		source = chat.UserName
	}

	author := "unknown"
	switch {
	case msg.From != nil && msg.From.UserName != "":
		author = msg.From.UserName
	case msg.From != nil:
		author = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	case msg.SenderChat != nil:
		author = msg.SenderChat.Title
	case msg.AuthorSignature != "":
		author = msg.AuthorSignature
	}

	item := model.Item{
		ID:         strconv.FormatInt(chat.ID, 10) + ":" + strconv.Itoa(msg.MessageID),
		Kind:       model.KindMessage,
		Source:     source,
		SourceType: chat.Type,
		Author:     author,
		Body:       text,
		Timestamp:  msg.Time(),
	}
	if chat.UserName != "" {
		item.URL = fmt.Sprintf("https://t.me/%s/%d", chat.UserName, msg.MessageID)
	}
	return item, true
}
