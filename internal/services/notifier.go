package services

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier: служебные уведомления владельцам (новые покупки и т.п.).
// Ошибки только логируются, клиенту не возвращаются.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}

func NopNotifier() Notifier { return nopNotifier{} }

const notifyQueueSize = 64

// TelegramNotifier: отправка идёт в своей горутине, запрос покупки её не ждёт.
// Очередь ограничена; при переполнении сообщение пишется в лог и отбрасывается.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	queue  chan string
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

// NewTelegramNotifier: без токена или chat_id возвращает no-op.
// endpoint пустой = api.telegram.org.
func NewTelegramNotifier(token string, chatID int64, endpoint string, log *zap.Logger) Notifier {
	if token == "" || chatID == 0 {
		log.Info("[tg][notifier] disabled: token or chat_id empty")
		return NopNotifier()
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		log.Warn("[tg][notifier] init failed, notifications disabled", zap.Error(err))
		return NopNotifier()
	}
	log.Info("[tg][notifier] ready", zap.String("bot", bot.Self.UserName))
	t := &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, notifyQueueSize),
		done:   make(chan struct{}),
		log:    log,
	}
	go t.run()
	return t
}

func (t *TelegramNotifier) Notify(_ context.Context, text string) {
	select {
	case t.queue <- text:
	default:
		t.log.Warn("[tg][notifier] queue full, message dropped", zap.String("text", text))
	}
}

// Close дожидается отправки уже поставленных сообщений. Повторный вызов безопасен.
func (t *TelegramNotifier) Close() {
	t.once.Do(func() { close(t.queue) })
	<-t.done
}

func (t *TelegramNotifier) run() {
	defer close(t.done)
	for text := range t.queue {
		// без ParseMode: текст уходит как есть, разметку не экранируем
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			t.log.Warn("[tg][send] failed", zap.Int64("chat_id", t.chatID), zap.Error(err))
		}
	}
}
