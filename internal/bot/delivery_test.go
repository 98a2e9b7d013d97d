package bot

import (
	"strings"
	"testing"

	"github.com/cinegate/cinegate/internal/store"
	"github.com/cinegate/cinegate/internal/telegram"
)

func seedEntry(t *testing.T, tb *testBot, e store.Entry) {
	t.Helper()
	if err := tb.bot.store.Add(t.Context(), e); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func TestDeliveryToMember(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha", "@beta"})
	seedEntry(t, tb, store.Entry{Code: "night01", FileID: "vid-1", CoverID: "cov-1", Mode: store.ModeSingle})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start night01")})

	if got := tb.api.count("getChatMember"); got != 2 {
		t.Fatalf("getChatMember calls = %d, want 2", got)
	}
	if tb.api.count("sendPhoto") != 1 {
		t.Fatal("cover was not sent")
	}
	if tb.api.count("sendVideo") != 1 {
		t.Fatal("video was not sent")
	}

	var photo telegram.SendPhotoRequest
	tb.api.payload(t, "sendPhoto", 0, &photo)
	if photo.Photo != "cov-1" || !strings.Contains(photo.Caption, "deleted") {
		t.Fatalf("unexpected cover send: %+v", photo)
	}

	// Both sent messages get reaped after the configured delay.
	waitFor(t, func() bool { return tb.api.count("deleteMessage") == 2 })
}

func TestDeliverySeriesSendsAllEpisodes(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})
	seedEntry(t, tb, store.Entry{Code: "show42", FileID: "ep-b", Mode: store.ModeSeries})
	seedEntry(t, tb, store.Entry{Code: "show42", FileID: "ep-a", Mode: store.ModeSeries})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start show42")})

	if got := tb.api.count("sendVideo"); got != 2 {
		t.Fatalf("sendVideo calls = %d, want 2", got)
	}
	var first telegram.SendVideoRequest
	tb.api.payload(t, "sendVideo", 0, &first)
	if first.Video != "ep-a" {
		t.Fatalf("first episode = %q, want ep-a", first.Video)
	}
	if tb.api.count("sendPhoto") != 0 {
		t.Error("coverless series entries must not trigger sendPhoto")
	}
}

func TestDeliveryReapsEveryCoverAndVideo(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})
	// Entries imported from the legacy schema carry a cover on every row;
	// delivery honors whatever is stored.
	seedEntry(t, tb, store.Entry{Code: "demo", FileID: "ep01", CoverID: "cov01", Mode: store.ModeSeries})
	seedEntry(t, tb, store.Entry{Code: "demo", FileID: "ep02", CoverID: "cov02", Mode: store.ModeSeries})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start demo")})

	if tb.api.count("sendPhoto") != 2 || tb.api.count("sendVideo") != 2 {
		t.Fatalf("sends = %d photos, %d videos, want 2 each",
			tb.api.count("sendPhoto"), tb.api.count("sendVideo"))
	}
	waitFor(t, func() bool { return tb.api.count("deleteMessage") == 4 })
}

func TestDeliveryLockedForNonMember(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha", "@beta"})
	tb.api.memberStatus["@beta"] = "left"
	seedEntry(t, tb, store.Entry{Code: "night01", FileID: "vid-1", Mode: store.ModeSingle})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start night01")})

	if tb.api.count("sendVideo") != 0 {
		t.Fatal("locked user must not receive content")
	}

	var screen telegram.SendMessageRequest
	tb.api.payload(t, "sendMessage", 0, &screen)
	if screen.ReplyMarkup == nil {
		t.Fatal("locked screen must carry join buttons")
	}
	rows := screen.ReplyMarkup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("keyboard rows = %d, want 2 channels + retry", len(rows))
	}
	if rows[0][0].URL != "https://t.me/alpha" || rows[1][0].URL != "https://t.me/beta" {
		t.Fatalf("unexpected join URLs: %q, %q", rows[0][0].URL, rows[1][0].URL)
	}
	if rows[2][0].URL != DeepLink(testUsername, "night01") {
		t.Fatalf("retry button URL = %q", rows[2][0].URL)
	}
}

func TestDeliveryLockedScreenFrontsCover(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})
	tb.api.memberStatus["@alpha"] = "left"
	seedEntry(t, tb, store.Entry{Code: "night01", FileID: "vid-1", CoverID: "cov-1", Mode: store.ModeSingle})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start night01")})

	var teaser telegram.SendPhotoRequest
	tb.api.payload(t, "sendPhoto", 0, &teaser)
	if teaser.Photo != "cov-1" || teaser.ReplyMarkup == nil {
		t.Fatalf("locked screen should front the cover with buttons, got %+v", teaser)
	}
	if tb.api.count("sendVideo") != 0 {
		t.Fatal("locked user must not receive content")
	}
}

func TestDeliveryFailClosedOnMembershipError(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})
	tb.api.memberStatus["@alpha"] = "kicked"
	seedEntry(t, tb, store.Entry{Code: "night01", FileID: "vid-1", Mode: store.ModeSingle})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start night01")})

	if tb.api.count("sendVideo") != 0 {
		t.Fatal("kicked user must not receive content")
	}
}

func TestDeliveryUnknownCode(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start nothing-here")})

	var resp telegram.SendMessageRequest
	tb.api.payload(t, "sendMessage", 0, &resp)
	if resp.ReplyMarkup != nil {
		t.Fatal("not-found reply should not carry a keyboard")
	}
	if !strings.Contains(resp.Text, "No movie") {
		t.Fatalf("unexpected not-found text: %q", resp.Text)
	}
}

func TestDeliveryDecodesEncodedPayload(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})
	seedEntry(t, tb, store.Entry{Code: "night 01", FileID: "vid-1", Mode: store.ModeSingle})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start night+01")})

	if got := tb.api.count("sendVideo"); got != 1 {
		t.Fatalf("sendVideo calls = %d, want 1", got)
	}
}

func TestDeliveryFallsBackToDocument(t *testing.T) {
	tb := newTestBot(t, []string{"@alpha"})
	tb.api.failSendVideo = true
	seedEntry(t, tb, store.Entry{Code: "doc01", FileID: "doc-file", Mode: store.ModeSingle})

	tb.bot.handleUpdate(&telegram.Update{Message: userMessage("/start doc01")})

	if tb.api.count("sendDocument") != 1 {
		t.Fatal("failed sendVideo must fall back to sendDocument")
	}
	var doc telegram.SendDocumentRequest
	tb.api.payload(t, "sendDocument", 0, &doc)
	if doc.Document != "doc-file" {
		t.Fatalf("document file = %q, want doc-file", doc.Document)
	}
	waitFor(t, func() bool { return tb.api.count("deleteMessage") == 1 })
}
