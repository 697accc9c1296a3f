package engine

import (
	"fmt"

	"github.com/kaido-bot/kaido/automod/identity"
)

// number of warnings at which a participant is removed from the group
const WarnThreshold = 2

func warnCounterName(group string) string {
	return "warn/" + group
}

// Records a warning against `target` in the current group, and escalates to removal once the threshold is reached.
//
// The counter is only deleted after a successful removal. If the bot lacks admin rights, the count is retained and ErrCapabilityMissing is returned.
func (eng *Engine) warn(c *MessageContext, target string) (int, error) {
	name := warnCounterName(c.Chat)
	key := identity.Normalize(target)
	count, err := eng.Warnings.Increment(c.Ctx, name, key)
	if err != nil {
		return 0, fmt.Errorf("incrementing warn counter: %w", err)
	}
	c.Logger.Info("user warned", "target", target, "count", count)
	mentions := []string{target}

	if count < WarnThreshold {
		return count, c.ReplyWith(OutgoingText{Text: warnText(target, count), Mentions: mentions})
	}

	if !c.BotIsAdmin {
		if err := c.ReplyWith(OutgoingText{Text: warnNoCapabilityText(target), Mentions: mentions}); err != nil {
			return count, err
		}
		return count, fmt.Errorf("warn escalation: %w", ErrCapabilityMissing)
	}

	if err := c.removeParticipant(target, "warn"); err != nil {
		c.Logger.Error("warn kick error", "target", target, "err", err)
		return count, collabErr("removing warned user", err)
	}
	if err := eng.Warnings.Reset(c.Ctx, name, key); err != nil {
		return count, fmt.Errorf("resetting warn counter: %w", err)
	}
	return count, c.ReplyWith(OutgoingText{Text: warnKickedText(target), Mentions: mentions})
}
