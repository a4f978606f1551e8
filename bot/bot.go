package bot

import (
	"context"
	"fmt"
	"strings"

	"food-webapp/config"
	"food-webapp/lang"
	"food-webapp/models"
	"food-webapp/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Bot struct {
	api        *tgbotapi.BotAPI
	messageBot *tgbotapi.BotAPI // bot for sending order notifications (MESSAGE_TOKEN)
	cfg        *config.Config
	menu       services.Menu
	lang       string
	log        *zap.Logger
}

func New(cfg *config.Config, menu services.Menu, log *zap.Logger) (*Bot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		api:  api,
		cfg:  cfg,
		menu: menu,
		lang: lang.Normalize(cfg.Lang),
		log:  log.With(zap.String("bot", api.Self.UserName)),
	}
	if cfg.Telegram.MessageToken != "" {
		messageBot, err := tgbotapi.NewBotAPI(cfg.Telegram.MessageToken)
		if err != nil {
			log.Warn("failed to initialize message bot", zap.Error(err))
		} else {
			bot.messageBot = messageBot
		}
	}
	return bot, nil
}

// GetAPI returns the main bot API.
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}

// apiForAudience returns the bot API used to message the given audience.
// Admin cards go through the message bot when there is one.
func (b *Bot) apiForAudience(audience string) *tgbotapi.BotAPI {
	if audience == "admin" && b.messageBot != nil {
		return b.messageBot
	}
	return b.api
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: lang.T(b.lang, "open_menu")},
			{Command: "menu", Description: lang.T(b.lang, "menu_header")},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

// Start runs the long-poll loop until the updates channel closes.
func (b *Bot) Start() {
	if err := b.setBotCommands(); err != nil {
		b.log.Warn("set bot commands", zap.Error(err))
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		msg := update.Message
		text := strings.TrimSpace(msg.Text)

		switch {
		case text == "/start" || strings.HasPrefix(text, "/start "):
			b.handleStart(msg.Chat.ID)
		case text == "/menu":
			b.sendMenu(msg.Chat.ID, models.CategoryAll)
		}
	}
}

// Stop ends the long poll; Start returns once the channel drains.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) send(api *tgbotapi.BotAPI, c tgbotapi.Chattable) {
	if _, err := api.Send(c); err != nil {
		b.log.Error("send error", zap.Error(err))
	}
}

func (b *Bot) handleStart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, lang.T(b.lang, "welcome"))
	msg.ReplyMarkup = startKeyboard(b.cfg.Telegram.WebAppURL, chatID, b.lang)
	b.send(b.api, msg)
}

// startKeyboard links to the mini-app with the chat id the page uses as its
// client id, followed by the category buttons.
func startKeyboard(webAppURL string, chatID int64, langCode string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if webAppURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(lang.T(langCode, "open_menu"), webAppLink(webAppURL, chatID)),
		))
	}
	rows = append(rows, categoryRow(langCode))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func webAppLink(base string, chatID int64) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%schat_id=%d", base, sep, chatID)
}

func categoryRow(langCode string) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range models.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(lang.T(langCode, "cat_"+c), "cat:"+c))
	}
	return row
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn("answer callback", zap.Error(err))
	}
	if cq.Message == nil {
		return
	}
	if category, ok := strings.CutPrefix(cq.Data, "cat:"); ok && models.ValidCategory(category) {
		b.sendMenu(cq.Message.Chat.ID, category)
	}
}

func (b *Bot) sendMenu(chatID int64, category string) {
	items, err := b.menu.List(context.Background(), category)
	if err != nil {
		b.log.Error("list menu", zap.String("category", category), zap.Error(err))
		items = nil
	}
	msg := tgbotapi.NewMessage(chatID, BuildMenuText(items, b.lang))
	msg.ReplyMarkup = startKeyboard(b.cfg.Telegram.WebAppURL, chatID, b.lang)
	b.send(b.api, msg)
}

// BuildMenuText lists items grouped by category in display order.
func BuildMenuText(items []models.MenuItem, langCode string) string {
	if len(items) == 0 {
		return lang.T(langCode, "menu_empty")
	}
	byCategory := make(map[string][]models.MenuItem)
	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}

	cur := lang.T(langCode, "currency")
	var sb strings.Builder
	sb.WriteString(lang.T(langCode, "menu_header"))
	for _, c := range models.Categories {
		list := byCategory[c]
		if len(list) == 0 {
			continue
		}
		sb.WriteString("\n\n" + lang.T(langCode, "cat_"+c))
		for _, it := range list {
			fmt.Fprintf(&sb, "\n• %s — %s %s", it.Name, services.FormatPrice(decimal.NewFromFloat(it.Price)), cur)
		}
	}
	return sb.String()
}

// NotifyOrder sends the admin card and the customer receipt for an accepted
// order. It runs as a services.AcceptedHook; failures are only logged.
func (b *Bot) NotifyOrder(ctx context.Context, order models.OrderRequest, resp models.SinkResponse) {
	log := b.log.With(zap.String("order_id", order.UniqueID))
	if b.cfg.Telegram.AdminID != 0 {
		card := tgbotapi.NewMessage(b.cfg.Telegram.AdminID, services.BuildOrderCard(order, b.lang))
		if _, err := b.apiForAudience("admin").Send(card); err != nil {
			log.Error("send admin card", zap.Error(err))
		}
	} else {
		log.Warn("ADMIN_ID not set, order card not sent")
	}

	if chatID, ok := order.ClientChatID.Int64(); ok {
		receipt := tgbotapi.NewMessage(chatID, services.BuildCustomerReceipt(order, resp.Message, b.lang))
		if _, err := b.apiForAudience("customer").Send(receipt); err != nil {
			log.Error("send customer receipt", zap.Error(err))
		}
	}
}
