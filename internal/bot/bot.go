// Package bot wires the Telegram update stream to the upload and delivery
// flows.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/cinegate/cinegate/internal/deletion"
	"github.com/cinegate/cinegate/internal/gate"
	"github.com/cinegate/cinegate/internal/metrics"
	"github.com/cinegate/cinegate/internal/store"
	"github.com/cinegate/cinegate/internal/telegram"
)

const handlerTimeout = 2 * time.Minute

// Options carries the bot-level configuration.
type Options struct {
	AdminID        int64
	SourceChannel  string
	DeleteAfter    time.Duration
	PollingTimeout int
}

// Bot processes inbound Telegram updates: the admin upload flow, the
// deep-link delivery flow, and nothing else.
type Bot struct {
	client  *telegram.Client
	store   store.Store
	gate    *gate.Gate
	reaper  *deletion.Reaper
	pending *pendingStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	opts    Options

	username string
	poller   *telegram.Poller
}

// New creates a Bot. Start must be called before updates flow.
func New(client *telegram.Client, st store.Store, g *gate.Gate, reaper *deletion.Reaper, m *metrics.Metrics, logger *slog.Logger, opts Options) *Bot {
	return &Bot{
		client:  client,
		store:   st,
		gate:    g,
		reaper:  reaper,
		pending: newPendingStore(),
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("cinegate/bot"),
		opts:    opts,
	}
}

// Start validates the bot token, records the bot username for deep links,
// and begins long polling.
func (b *Bot) Start(ctx context.Context) error {
	user, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("bot: getMe failed (check token): %w", err)
	}
	b.username = user.Username
	b.logger.Info("bot authenticated", "id", user.ID, "username", user.Username)

	b.poller = telegram.NewPoller(
		b.client, b.handleUpdate, b.logger,
		b.opts.PollingTimeout,
		[]string{"message", "channel_post", "callback_query"},
	)
	b.poller.Start()
	b.logger.Info("polling started", "timeout", b.opts.PollingTimeout)
	return nil
}

// Stop halts polling and waits for in-flight handlers.
func (b *Bot) Stop() {
	if b.poller != nil {
		b.poller.Stop()
	}
}

// PendingCount reports the number of in-flight upload sequences.
func (b *Bot) PendingCount() int {
	return b.pending.Len()
}

// SweepExpired drops upload sequences older than maxAge. Wired to the cron
// pending_sweep job.
func (b *Bot) SweepExpired(maxAge time.Duration) int {
	return b.pending.SweepExpired(maxAge)
}

// handleUpdate dispatches one update. It runs on a per-update goroutine, so
// a slow store or transport call never stalls the polling loop.
func (b *Bot) handleUpdate(u *telegram.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	case u.ChannelPost != nil:
		b.handleMessage(ctx, u.ChannelPost)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	cmd, arg := parseCommand(msg.Text, b.username)
	switch cmd {
	case "start":
		b.handleStart(ctx, msg, arg)
	case "addmovie":
		b.handleAddMovie(ctx, msg, arg)
	default:
		if len(msg.Photo) > 0 && b.authorizedUploader(msg) {
			b.handleCover(ctx, msg)
		}
	}
}

// parseCommand splits "/cmd[@bot] rest" into a lowercase command name and
// its argument string. Returns "" when text is not a command or the command
// is addressed to a different bot.
func parseCommand(text, botUsername string) (cmd, arg string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	if name, target, ok := strings.Cut(head, "@"); ok {
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return "", ""
		}
		head = name
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// fromSourceChannel reports whether the message was posted in the configured
// source channel, by numeric ID or @username.
func (b *Bot) fromSourceChannel(msg *telegram.Message) bool {
	src := b.opts.SourceChannel
	if src == "" {
		return false
	}
	if strconv.FormatInt(msg.Chat.ID, 10) == src {
		return true
	}
	return msg.Chat.Username != "" && strings.EqualFold("@"+msg.Chat.Username, src)
}

// senderKey identifies the actor behind a message. Channel posts carry no
// sender, so the channel itself becomes the key.
func senderKey(msg *telegram.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

// reply sends a plain text response into the message's chat.
func (b *Bot) reply(ctx context.Context, msg *telegram.Message, text string) {
	_, err := b.client.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:           msg.Chat.ID,
		Text:             text,
		ReplyToMessageID: msg.MessageID,
	})
	if err != nil {
		b.logger.Error("send reply failed", "chat", msg.Chat.ID, "error", err)
	}
}
