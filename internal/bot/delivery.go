package bot

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cinegate/cinegate/internal/metrics"
	"github.com/cinegate/cinegate/internal/store"
	"github.com/cinegate/cinegate/internal/telegram"
)

// handleStart serves a deep link. Bare /start greets; /start <code> checks
// channel membership and either delivers the stored entries or shows the
// locked screen with join buttons.
func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message, arg string) {
	if arg == "" {
		b.reply(ctx, msg, "Hi! Open a share link to receive a movie.")
		return
	}

	ctx, span := b.tracer.Start(ctx, "bot.delivery")
	defer span.End()

	code := decodeStartPayload(arg)
	span.SetAttributes(attribute.String("delivery.code", code))

	entries, err := b.store.List(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			b.metrics.StoreErrors.Inc()
		}
		b.logger.Error("list entries failed", "code", code, "error", err)
		b.reply(ctx, msg, "Something went wrong, please try again later.")
		return
	}
	if len(entries) == 0 {
		b.metrics.Deliveries.WithLabelValues(metrics.OutcomeNotFound).Inc()
		span.SetAttributes(attribute.String("delivery.outcome", metrics.OutcomeNotFound))
		b.reply(ctx, msg, "No movie is registered under that link.")
		return
	}

	if !b.gate.IsMemberOfAll(ctx, senderKey(msg)) {
		b.metrics.Deliveries.WithLabelValues(metrics.OutcomeLocked).Inc()
		span.SetAttributes(attribute.String("delivery.outcome", metrics.OutcomeLocked))
		b.sendLockedScreen(ctx, msg, code, entries[0].CoverID)
		return
	}

	b.deliver(ctx, msg.Chat.ID, code, entries)
	b.metrics.Deliveries.WithLabelValues(metrics.OutcomeDelivered).Inc()
	span.SetAttributes(
		attribute.String("delivery.outcome", metrics.OutcomeDelivered),
		attribute.Int("delivery.entries", len(entries)),
	)
}

// deliver sends every entry for the code and schedules each sent message for
// deletion. A failed send is logged and skipped so one bad file_id does not
// block the rest of a series.
func (b *Bot) deliver(ctx context.Context, chatID int64, code string, entries []store.Entry) {
	notice := fmt.Sprintf("This will be deleted in %d minutes. Save or forward it now!", int(b.opts.DeleteAfter.Minutes()))

	for _, entry := range entries {
		if entry.CoverID != "" {
			sent, err := b.client.SendPhoto(ctx, telegram.SendPhotoRequest{
				ChatID:  chatID,
				Photo:   entry.CoverID,
				Caption: notice,
			})
			if err != nil {
				b.logger.Error("send cover failed", "code", code, "error", err)
			} else {
				b.reaper.Schedule(chatID, sent.MessageID, b.opts.DeleteAfter)
			}
		}

		sent, err := b.client.SendVideo(ctx, telegram.SendVideoRequest{
			ChatID:  chatID,
			Video:   entry.FileID,
			Caption: notice,
		})
		if err != nil {
			// The file_id may reference a document upload rather than a
			// native video; retry through sendDocument before giving up.
			sent, err = b.client.SendDocument(ctx, telegram.SendDocumentRequest{
				ChatID:   chatID,
				Document: entry.FileID,
				Caption:  notice,
			})
		}
		if err != nil {
			b.logger.Error("send entry failed", "code", code, "file", entry.FileID, "error", err)
			continue
		}
		b.reaper.Schedule(chatID, sent.MessageID, b.opts.DeleteAfter)
	}
}

// sendLockedScreen tells the user which channels to join, with one URL button
// per channel and a retry button that replays the deep link. When the code
// has a stored cover it fronts the screen as a teaser.
func (b *Bot) sendLockedScreen(ctx context.Context, msg *telegram.Message, code, coverID string) {
	var rows [][]telegram.InlineKeyboardButton
	for _, channel := range b.gate.Channels() {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text: "Join " + channelTitle(channel),
			URL:  channelURL(channel),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{
		Text: "I joined, try again",
		URL:  DeepLink(b.username, code),
	}})

	const lockedText = "Join all of our channels first, then tap the link again."
	markup := &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}

	var err error
	if coverID != "" {
		_, err = b.client.SendPhoto(ctx, telegram.SendPhotoRequest{
			ChatID:      msg.Chat.ID,
			Photo:       coverID,
			Caption:     lockedText,
			ReplyMarkup: markup,
		})
	} else {
		_, err = b.client.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:      msg.Chat.ID,
			Text:        lockedText,
			ReplyMarkup: markup,
		})
	}
	if err != nil {
		b.logger.Error("send locked screen failed", "chat", msg.Chat.ID, "error", err)
	}
}
