package reporter

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-career-scraper/internal/config"
	"go-career-scraper/internal/models"
	"go-career-scraper/internal/proxy"
)

// TelegramReporter pushes run summaries and degradation alerts to a chat. A
// nil reporter is valid and drops everything, so callers never need to guard.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramReporter returns nil without error when no token is configured.
func NewTelegramReporter(cfg *config.Config) (*TelegramReporter, error) {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &TelegramReporter{
		bot:    bot,
		chatID: cfg.TelegramChatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	if t == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}

// SendRunSummary reports one finished scrape.
func (t *TelegramReporter) SendRunSummary(target string, jobs []models.Job) error {
	if t == nil {
		return nil
	}
	text := fmt.Sprintf("✓ <b>Scrape finished</b>\n🔗 %s\n📦 %d jobs", target, len(jobs))
	for i, job := range jobs {
		if i == 5 {
			text += fmt.Sprintf("\n… and %d more", len(jobs)-5)
			break
		}
		text += fmt.Sprintf("\n• <a href=\"%s\">%s</a>", job.URL, job.Title)
	}
	return t.SendMessage(text)
}

// SendDegraded fires when the proxy pool was reset in degraded mode.
func (t *TelegramReporter) SendDegraded(reason string, stats map[string]proxy.Stats) error {
	if t == nil {
		return nil
	}
	text := fmt.Sprintf("⚠️ <b>Proxy pool degraded</b>:\n%s", reason)
	for key, st := range stats {
		text += fmt.Sprintf("\n• %s — failures: %d", key, st.FailureCount)
	}
	return t.SendMessage(text)
}

func (t *TelegramReporter) SendError(target string, errReq error) error {
	if t == nil {
		return nil
	}
	return t.SendMessage(fmt.Sprintf("❌ <b>Scrape failed</b>\n🔗 %s\n%v", target, errReq))
}
