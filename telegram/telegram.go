package telegram

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"tryonapi/models"
)

var admins string = os.Getenv("TG_ADMINS") //separated by comma from env

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

// AlertBot pushes failure alerts to the admin chat and answers /stats.
// All sends are best effort, a dead bot must never affect the API.
type AlertBot struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewAlertBot() (*AlertBot, error) {
	bot, err := tgbotapi.NewBotAPI(os.Getenv("TG_TOKEN"))
	if err != nil {
		return nil, err
	}
	chatID, err := strconv.ParseInt(os.Getenv("TG_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TG_CHAT_ID: %w", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)
	return &AlertBot{bot: bot, chatID: chatID}, nil
}

// NotifyFailure is called from the pipeline on generation errors. Fire and forget.
func (a *AlertBot) NotifyFailure(shopDomain string, errorCode string, message string) {
	if a == nil || a.bot == nil {
		return
	}
	text := fmt.Sprintf("⚠️ Try-on failed\nShop: `%s`\nCode: `%s`\n%s", EscapeMessage(shopDomain), errorCode, EscapeMessage(message))
	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.ParseMode = "markdown"
	if _, err := a.bot.Send(msg); err != nil {
		log.Printf("tg alert send failed: %v", err)
	}
}

func isAdmin(userName string) bool {
	if admins == "" {
		return false
	}
	for _, name := range strings.Split(admins, ",") {
		if strings.TrimSpace(name) == userName {
			return true
		}
	}
	return false
}

// Run polls telegram updates and serves the /stats command to admins.
// Call in a goroutine from main.
func (a *AlertBot) Run(db *gorm.DB) {

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if !isAdmin(update.Message.From.UserName) {
			continue
		}
		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		if update.Message.Command() == "stats" {
			var total int64
			var today int64
			db.Model(&models.TryOnHistory{}).Count(&total)
			db.Model(&models.TryOnHistory{}).Where("created_at >= CURRENT_DATE").Count(&today)

			var topShops []struct {
				ShopDomain string
				Used       int64
			}
			db.Model(&models.ShopUsage{}).
				Select("shop_domain, used").
				Order("used desc").
				Limit(5).
				Find(&topShops)

			text := strings.Builder{}
			text.WriteString(fmt.Sprintf("📊 Try-ons: %v total, %v today\n", total, today))
			if len(topShops) > 0 {
				text.WriteString("```\n")
				for _, s := range topShops {
					text.WriteString(fmt.Sprintf("%-30s %v\n", s.ShopDomain, s.Used))
				}
				text.WriteString("```")
			}
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, text.String())
			msg.ParseMode = "markdown"
			a.bot.Send(msg)
		}
	}
}
