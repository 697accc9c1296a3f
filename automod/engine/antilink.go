package engine

import (
	"fmt"

	"github.com/kaido-bot/kaido/automod/flagstore"
	"github.com/kaido-bot/kaido/automod/helpers"
)

// Antilink enforcement for group messages. Returns true if the message was acted on and processing should stop.
//
// Admins, the owner, and the bot's own messages are never filtered. The message is deleted whenever the filter matches; the sender is removed if the bot holds admin rights, even when the delete failed.
func (eng *Engine) enforceAntilink(c *MessageContext) (bool, error) {
	if c.IsGroupAdmin || c.IsOwner || c.Event.Ref.FromMe {
		return false, nil
	}
	if !helpers.IsLinkMessage(c.Event.Text) {
		return false, nil
	}
	on, err := flagstore.HasFlag(c.Ctx, eng.Policies, c.Chat, flagstore.FlagAntilink)
	if err != nil {
		return false, fmt.Errorf("checking antilink policy: %w", err)
	}
	if !on {
		return false, nil
	}

	sender := c.Event.Sender
	c.Logger.Info("antilink triggered", "links", helpers.ExtractLinks(c.Event.Text))
	// a failed delete does not spare the sender
	delErr := collabErr("deleting link message", eng.Transport.DeleteMessage(c.Ctx, c.Event.Ref))
	if delErr != nil {
		c.Logger.Error("antilink delete error", "err", delErr)
	} else {
		moderationActions.WithLabelValues("antilink_delete").Inc()
	}

	if !c.BotIsAdmin || sender == "" {
		return true, delErr
	}
	if err := c.removeParticipant(sender, "antilink"); err != nil {
		c.Logger.Error("antilink kick error", "err", err)
		return true, collabErr("removing link sender", err)
	}
	err = c.ReplyWith(OutgoingText{
		Text:     antilinkKickText(sender),
		Mentions: []string{sender},
	})
	if err != nil {
		return true, err
	}
	return true, delErr
}
