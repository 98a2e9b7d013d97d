package bot

import (
	"fmt"
	"net/url"
	"strings"
)

// DeepLink builds the shareable start link for a code. The code is
// URL-encoded so reserved characters survive the round trip through
// Telegram's start payload.
func DeepLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, url.QueryEscape(code))
}

// decodeStartPayload reverses the deep-link encoding. Payloads that are not
// valid percent-encoding are passed through untouched, since users can type
// /start <code> by hand.
func decodeStartPayload(payload string) string {
	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return payload
	}
	return decoded
}

// channelURL turns a configured channel reference into a join link.
// @username references become public t.me links; -100-prefixed numeric IDs
// become t.me/c/ links, which resolve for members of private channels.
func channelURL(channel string) string {
	if name, ok := strings.CutPrefix(channel, "@"); ok {
		return "https://t.me/" + name
	}
	if id, ok := strings.CutPrefix(channel, "-100"); ok {
		return "https://t.me/c/" + id
	}
	return "https://t.me/" + channel
}

// channelTitle is the button label for a configured channel reference.
func channelTitle(channel string) string {
	return strings.TrimPrefix(channel, "@")
}
