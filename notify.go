package main

import (
	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/gofiber/fiber/v2/log"
	"github.com/slongfield/pyfmt"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier reports loads to the configured Telegram chats. A nil Notifier
// drops everything.
type Notifier struct {
	bot      sender
	chats    []int64
	messages Messages
}

func newNotifier(conf TelegramConfig) *Notifier {
	if conf.Token == "" || len(conf.NotifyChats) == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(conf.Token)
	if err != nil {
		log.Errorf("Failed to init Bot API, notifications disabled: %v", err)
		return nil
	}
	return &Notifier{bot: bot, chats: conf.NotifyChats, messages: config.Messages}
}

func (n *Notifier) Broadcast(text string) {
	if n == nil {
		return
	}
	for _, chat := range n.chats {
		msg := tgbotapi.NewMessage(chat, text)
		msg.ParseMode = "Markdown"
		if _, err := n.bot.Send(msg); err != nil {
			log.Errorf("Failed to send notification to chatid=%d: %v", chat, err)
		}
	}
}

func (n *Notifier) summaryText(l Load, failed []ttparser.FileResult) string {
	text := pyfmt.Must(n.messages.LoadSummary, map[string]interface{}{
		"id":     l.ID,
		"files":  l.Files,
		"failed": l.FailedFiles,
		"groups": l.Groups,
		"pairs":  l.Pairs,
		"exams":  l.Exams,
	})
	for _, f := range failed {
		text += "\n" + pyfmt.Must(n.messages.FileFailed, map[string]interface{}{
			"path": f.File.Path,
			"err":  f.Err.Error(),
		})
	}
	return text
}

func (n *Notifier) LoadSummary(l Load, failed []ttparser.FileResult) {
	if n == nil {
		return
	}
	n.Broadcast(n.summaryText(l, failed))
}
