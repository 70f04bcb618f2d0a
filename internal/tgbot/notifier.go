package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"startloft-api/internal/models"
	"startloft-api/internal/util"
)

// requestTimeout bounds every Bot API call, including the initial getMe.
const requestTimeout = 10 * time.Second

// Notifier tells staff chats about new registrations.
type Notifier struct {
	token    string
	chats    []int64
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func New(token string, chatIDs map[int64]bool) *Notifier {
	chats := make([]int64, 0, len(chatIDs))
	for id, ok := range chatIDs {
		if ok {
			chats = append(chats, id)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return &Notifier{
		token:    token,
		chats:    chats,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.token != "" && len(n.chats) > 0
}

func (n *Notifier) getBot() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bot != nil {
		return n.bot, nil
	}
	b, err := tgbotapi.NewBotAPIWithClient(n.token, n.endpoint, n.client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	b.Debug = false
	log.Printf("tgbot: authorized as @%s", b.Self.UserName)
	n.bot = b
	return b, nil
}

func (n *Notifier) SendText(chatID int64, text string) error {
	b, err := n.getBot()
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err = b.Send(msg)
	return err
}

// sendText is SendText bounded by ctx. The Bot API client takes no context,
// so a stalled call is abandoned and left to the client timeout.
func (n *Notifier) sendText(ctx context.Context, chatID int64, text string) error {
	done := make(chan error, 1)
	go func() { done <- n.SendText(chatID, text) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotifyRegistration sends the registration summary to every admin chat.
// Chats that fail do not stop the others.
func (n *Notifier) NotifyRegistration(ctx context.Context, r models.Registration, title string) error {
	if !n.Enabled() {
		return nil
	}
	text := RegistrationMessage(r, title)
	var errs []error
	for _, chat := range n.chats {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := n.sendText(ctx, chat, text); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chat, err))
		}
	}
	return errors.Join(errs...)
}

func RegistrationMessage(r models.Registration, title string) string {
	var b strings.Builder
	b.WriteString("🆕 Новая заявка на турнир\n")
	fmt.Fprintf(&b, "🏆 %s\n", title)
	fmt.Fprintf(&b, "👤 %s\n", r.Fio)
	fmt.Fprintf(&b, "📞 %s\n", r.Phone)
	fmt.Fprintf(&b, "🌍 %s\n", r.CityCountry)
	fmt.Fprintf(&b, "🎯 %s / %s\n", r.Category, r.Rank)
	if r.Comment != "" {
		fmt.Fprintf(&b, "💬 %s\n", r.Comment)
	}
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "🕒 %s UTC\n", util.SheetTime(r.CreatedAt))
	}
	if !r.ID.IsZero() {
		fmt.Fprintf(&b, "ID: %s", r.ID.Hex())
	}
	return strings.TrimRight(b.String(), "\n")
}
