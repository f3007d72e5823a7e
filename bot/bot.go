package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"

	"cineseek/models"
	"cineseek/services/nav"
)

// Bot adapts the navigator to the Telegram transport: commands and text
// become navigator calls, replies become messages with inline keyboards.
type Bot struct {
	bot     *gotgbot.Bot
	updater *ext.Updater
	nav     *nav.Navigator
	timeout time.Duration

	// interim holds the countdown message per chat so the reveal can
	// replace it instead of stacking under it.
	mu      sync.Mutex
	interim map[int64]int64
}

func New(token string, navigator *nav.Navigator, timeout time.Duration) (*Bot, error) {
	b, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Bot{
		bot:     b,
		nav:     navigator,
		timeout: timeout,
		interim: make(map[int64]int64),
	}, nil
}

// Start begins long polling. It returns once polling is established; use
// Idle to block until Stop.
func (tb *Bot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Printf("[bot] handler error: %v", err)
			return ext.DispatcherActionNoop
		},
	})

	dispatcher.AddHandler(handlers.NewCommand("start", tb.onStart))
	dispatcher.AddHandler(handlers.NewCommand("ai", tb.onAI))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.All, tb.onCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, tb.onText))

	tb.updater = ext.NewUpdater(dispatcher, nil)

	err := tb.updater.StartPolling(tb.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Second,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}

	log.Printf("[bot] @%s polling for updates", tb.bot.User.Username)
	return nil
}

// Idle blocks until the updater stops.
func (tb *Bot) Idle() {
	tb.updater.Idle()
}

// Stop halts polling.
func (tb *Bot) Stop() {
	if tb.updater != nil {
		if err := tb.updater.Stop(); err != nil {
			log.Printf("[bot] stop polling: %v", err)
		}
	}
}

func (tb *Bot) onStart(b *gotgbot.Bot, ctx *ext.Context) error {
	user := ctx.EffectiveUser
	reply := tb.nav.Start(strconv.FormatInt(user.Id, 10), user.FirstName)
	_, err := tb.send(ctx.EffectiveChat.Id, reply)
	return err
}

func (tb *Bot) onAI(b *gotgbot.Bot, ctx *ext.Context) error {
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)
	query := strings.TrimSpace(strings.TrimPrefix(ctx.EffectiveMessage.Text, "/ai"))

	reqCtx, cancel := context.WithTimeout(context.Background(), tb.timeout)
	defer cancel()

	reply, err := tb.nav.HandleAI(reqCtx, userID, query)
	if err != nil {
		return err
	}
	_, err = tb.send(ctx.EffectiveChat.Id, reply)
	return err
}

func (tb *Bot) onText(b *gotgbot.Bot, ctx *ext.Context) error {
	text := strings.TrimSpace(ctx.EffectiveMessage.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)

	reqCtx, cancel := context.WithTimeout(context.Background(), tb.timeout)
	defer cancel()

	reply, err := tb.nav.HandleText(reqCtx, userID, text)
	if err != nil {
		return err
	}
	_, err = tb.send(ctx.EffectiveChat.Id, reply)
	return err
}

func (tb *Bot) onCallback(b *gotgbot.Bot, ctx *ext.Context) error {
	cq := ctx.Update.CallbackQuery
	userID := strconv.FormatInt(cq.From.Id, 10)
	chatID := ctx.EffectiveChat.Id

	if _, err := cq.Answer(b, nil); err != nil {
		log.Printf("[bot] answer callback: %v", err)
	}

	push := func(reply models.Reply) {
		tb.clearInterim(chatID)
		if _, err := tb.send(chatID, reply); err != nil {
			log.Printf("[bot] push to chat %d: %v", chatID, err)
		}
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), tb.timeout)
	defer cancel()

	reply, err := tb.nav.HandleToken(reqCtx, userID, cq.Data, push)
	if err != nil {
		return err
	}
	if reply.Text == "" && len(reply.Buttons) == 0 {
		// Synchronous redelivery went through push already.
		return nil
	}

	sent, err := tb.send(chatID, reply)
	if err != nil {
		return err
	}
	if reply.Ephemeral && sent != nil {
		tb.mu.Lock()
		tb.interim[chatID] = sent.MessageId
		tb.mu.Unlock()
	}
	return nil
}

func (tb *Bot) clearInterim(chatID int64) {
	tb.mu.Lock()
	msgID, ok := tb.interim[chatID]
	delete(tb.interim, chatID)
	tb.mu.Unlock()

	if !ok {
		return
	}
	if _, err := tb.bot.DeleteMessage(chatID, msgID, nil); err != nil {
		log.Printf("[bot] delete interim message %d: %v", msgID, err)
	}
}

func (tb *Bot) send(chatID int64, reply models.Reply) (*gotgbot.Message, error) {
	markup := keyboard(reply.Buttons)

	if reply.PhotoURL != "" {
		opts := &gotgbot.SendPhotoOpts{
			Caption:   reply.Text,
			ParseMode: gotgbot.ParseModeHTML,
		}
		if markup != nil {
			opts.ReplyMarkup = *markup
		}
		msg, err := tb.bot.SendPhoto(chatID, gotgbot.InputFileByURL(reply.PhotoURL), opts)
		if err == nil {
			return msg, nil
		}
		// Posters 404 often enough that a broken image should not eat the
		// whole reply.
		log.Printf("[bot] photo send failed, falling back to text: %v", err)
	}

	opts := &gotgbot.SendMessageOpts{ParseMode: gotgbot.ParseModeHTML}
	if markup != nil {
		opts.ReplyMarkup = *markup
	}
	return tb.bot.SendMessage(chatID, reply.Text, opts)
}

func keyboard(rows [][]models.Button) *gotgbot.InlineKeyboardMarkup {
	var kb [][]gotgbot.InlineKeyboardButton
	for _, row := range rows {
		var line []gotgbot.InlineKeyboardButton
		for _, btn := range row {
			if btn.URL != "" {
				line = append(line, gotgbot.InlineKeyboardButton{Text: btn.Label, Url: btn.URL})
			} else {
				line = append(line, gotgbot.InlineKeyboardButton{Text: btn.Label, CallbackData: btn.Token})
			}
		}
		if len(line) > 0 {
			kb = append(kb, line)
		}
	}
	if len(kb) == 0 {
		return nil
	}
	return &gotgbot.InlineKeyboardMarkup{InlineKeyboard: kb}
}
