// Presence change announcements over Discord.
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"guildwatch/internal/logging"
	"guildwatch/internal/presence"
)

// Transition is a player whose presence flipped between two runs.
type Transition struct {
	Player string
	Online bool
}

// Transitions compares the previous run's rows with the current run's and
// returns the players that changed state. Players absent from the previous
// run only announce when they are online now, so a freshly added roster
// entry does not produce a spurious "went offline".
func Transitions(prev, cur []presence.SnapshotRow) []Transition {
	prevOnline := make(map[string]bool, len(prev))
	for _, r := range prev {
		prevOnline[presence.Key(r.Player)] = r.Online
	}

	var out []Transition
	for _, r := range cur {
		was, seen := prevOnline[presence.Key(r.Player)]
		switch {
		case !seen && r.Online:
			out = append(out, Transition{Player: r.Player, Online: true})
		case seen && was != r.Online:
			out = append(out, Transition{Player: r.Player, Online: r.Online})
		}
	}
	return out
}

// DiscordNotifier posts transition messages to one channel. Delivery is best
// effort; a failed send never fails the collection run.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordNotifier builds a notifier from a bot token and channel id.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel id required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

// Announce sends one message per transition.
func (n *DiscordNotifier) Announce(ctx context.Context, transitions []Transition) {
	log := logging.FromContext(ctx)
	for _, tr := range transitions {
		msg := fmt.Sprintf("🟢 **%s** is now online", tr.Player)
		if !tr.Online {
			msg = fmt.Sprintf("⚫ **%s** went offline", tr.Player)
		}
		if _, err := n.session.ChannelMessageSend(n.channelID, msg); err != nil {
			log.Warn("discord notify failed", "player", tr.Player, "error", err)
		}
	}
}
