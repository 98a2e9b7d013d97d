// Package gate implements the channel-membership access check.
package gate

import (
	"context"
	"log/slog"

	"github.com/cinegate/cinegate/internal/telegram"
)

// memberStatuses are the chat member statuses that count as "in".
var memberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// ChatMemberGetter is the slice of the Telegram client the gate needs.
type ChatMemberGetter interface {
	GetChatMember(ctx context.Context, chat string, userID int64) (*telegram.ChatMember, error)
}

// Gate checks whether a user belongs to a configured set of channels.
type Gate struct {
	client   ChatMemberGetter
	channels []string
	logger   *slog.Logger
}

// New creates a Gate over the given channel list. Channels are checked in
// list order.
func New(client ChatMemberGetter, channels []string, logger *slog.Logger) *Gate {
	return &Gate{client: client, channels: channels, logger: logger}
}

// Channels returns the configured channel list.
func (g *Gate) Channels() []string {
	return g.channels
}

// IsMember reports whether the user is a current member of the channel.
// Any query failure counts as "not a member" (fail-closed): if the bot
// cannot see the channel, content stays locked.
func (g *Gate) IsMember(ctx context.Context, userID int64, channel string) bool {
	member, err := g.client.GetChatMember(ctx, channel, userID)
	if err != nil {
		g.logger.Debug("membership check failed",
			"channel", channel,
			"user", userID,
			"error", err,
		)
		return false
	}
	return memberStatuses[member.Status]
}

// IsMemberOfAll reports whether the user is a member of every configured
// channel, short-circuiting on the first miss.
func (g *Gate) IsMemberOfAll(ctx context.Context, userID int64) bool {
	for _, channel := range g.channels {
		if !g.IsMember(ctx, userID, channel) {
			return false
		}
	}
	return true
}
