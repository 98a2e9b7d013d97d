package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cinegate/cinegate/internal/store"
	"github.com/cinegate/cinegate/internal/telegram"
)

const callbackModePrefix = "mode:"

// handleAddMovie starts an upload sequence. The command must be sent as a
// reply to the video (or document) being tagged, with the share code as the
// only argument. Allowed from the configured admin or from inside the source
// channel.
func (b *Bot) handleAddMovie(ctx context.Context, msg *telegram.Message, arg string) {
	if !b.authorizedUploader(msg) {
		b.logger.Warn("addmovie from unauthorized sender", "chat", msg.Chat.ID, "sender", senderKey(msg))
		return
	}

	target := msg.ReplyToMessage
	if target == nil || (target.Video == nil && target.Document == nil) {
		b.reply(ctx, msg, "Reply to the video you want to register: /addmovie <code>")
		return
	}

	code := arg
	if code == "" || strings.ContainsAny(code, " \t\n") {
		b.reply(ctx, msg, "Usage: /addmovie <code> (one code, no spaces)")
		return
	}

	fileID := ""
	if target.Video != nil {
		fileID = target.Video.FileID
	} else {
		fileID = target.Document.FileID
	}

	b.pending.Put(senderKey(msg), code, fileID)

	_, err := b.client.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:           msg.Chat.ID,
		Text:             fmt.Sprintf("Registering %q. Is this a single movie or a series episode?", code),
		ReplyToMessageID: msg.MessageID,
		ReplyMarkup: &telegram.InlineKeyboardMarkup{
			InlineKeyboard: [][]telegram.InlineKeyboardButton{{
				{Text: "Single movie", CallbackData: callbackModePrefix + store.ModeSingle + ":" + code},
				{Text: "Series episode", CallbackData: callbackModePrefix + store.ModeSeries + ":" + code},
			}},
		},
	})
	if err != nil {
		b.logger.Error("send mode keyboard failed", "chat", msg.Chat.ID, "error", err)
	}
}

// handleCallback processes inline keyboard presses. Only the upload-mode
// buttons exist today.
func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if strings.HasPrefix(cb.Data, callbackModePrefix) {
		b.handleModeCallback(ctx, cb)
		return
	}
	b.answerCallback(ctx, cb.ID, "", false)
}

// handleModeCallback records the single/series choice for the sender's
// pending upload. Data layout: mode:<single|series>:<code>.
func (b *Bot) handleModeCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	mode, code, ok := strings.Cut(strings.TrimPrefix(cb.Data, callbackModePrefix), ":")
	if !ok || (mode != store.ModeSingle && mode != store.ModeSeries) {
		b.answerCallback(ctx, cb.ID, "Unrecognized button.", true)
		return
	}

	if !b.pending.SetMode(cb.From.ID, code, mode) {
		b.answerCallback(ctx, cb.ID, "This upload has expired. Start over with /addmovie.", true)
		return
	}

	b.answerCallback(ctx, cb.ID, "", false)

	if cb.Message != nil {
		_, err := b.client.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID: cb.Message.Chat.ID,
			Text:   fmt.Sprintf("Got it, %s. Now send the cover photo for %q.", mode, code),
		})
		if err != nil {
			b.logger.Error("send cover prompt failed", "chat", cb.Message.Chat.ID, "error", err)
		}
	}
}

// handleCover finishes an upload sequence: the admin's next photo becomes the
// cover and the entry is persisted. The sequence is consumed even when the
// write fails, so a retry starts cleanly from /addmovie.
func (b *Bot) handleCover(ctx context.Context, msg *telegram.Message) {
	ctx, span := b.tracer.Start(ctx, "bot.upload")
	defer span.End()

	uploader := senderKey(msg)
	pending, ok := b.pending.Take(uploader)
	if !ok {
		return
	}
	if pending.Mode == "" {
		// Cover arrived before a mode was picked. Restore the sequence and
		// point the admin back at the keyboard.
		b.pending.Put(uploader, pending.Code, pending.FileID)
		b.reply(ctx, msg, "Pick single or series first, then resend the cover.")
		return
	}

	span.SetAttributes(
		attribute.String("upload.code", pending.Code),
		attribute.String("upload.mode", pending.Mode),
	)

	// Telegram lists photo sizes smallest first; keep the largest.
	cover := msg.Photo[len(msg.Photo)-1].FileID

	entry := store.Entry{
		Code:   pending.Code,
		FileID: pending.FileID,
		Mode:   pending.Mode,
	}
	// Series episodes share one cover per code; attaching it to every entry
	// would repeat it on delivery, so only single movies carry one.
	if pending.Mode == store.ModeSingle {
		entry.CoverID = cover
	}

	if err := b.store.Add(ctx, entry); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			b.metrics.StoreErrors.Inc()
		}
		b.logger.Error("persist entry failed", "code", pending.Code, "error", err)
		b.reply(ctx, msg, "Could not save the entry. Start over with /addmovie.")
		return
	}

	b.metrics.Uploads.Inc()
	b.logger.Info("entry registered", "code", pending.Code, "mode", pending.Mode)

	link := DeepLink(b.username, pending.Code)
	text := fmt.Sprintf("Saved. Share link:\n%s", link)
	if pending.Mode == store.ModeSeries {
		text += "\n\nSend the next episode with the same code to extend the series."
	}
	b.reply(ctx, msg, text)
}

// authorizedUploader reports whether the message may drive the upload flow:
// the configured admin in any chat, or any post inside the source channel.
func (b *Bot) authorizedUploader(msg *telegram.Message) bool {
	if msg.From != nil && msg.From.ID == b.opts.AdminID {
		return true
	}
	return b.fromSourceChannel(msg)
}

func (b *Bot) answerCallback(ctx context.Context, id, text string, alert bool) {
	err := b.client.AnswerCallbackQuery(ctx, telegram.AnswerCallbackQueryRequest{
		CallbackQueryID: id,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		b.logger.Debug("answer callback failed", "error", err)
	}
}
