package engine

import (
	"fmt"
	"strings"

	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/flagstore"
	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/automod/setstore"
)

// resolves the quoted participant for a reply-targeted command. `notice` is sent when there is no quoted message at all; a quoted message without a participant fails silently.
func (c *MessageContext) requireTarget(notice string) (string, error) {
	if c.Quoted() == nil {
		if err := c.Reply(notice); err != nil {
			return "", err
		}
		return "", ErrTargetResolution
	}
	target := c.QuotedParticipant()
	if target == "" {
		return "", ErrTargetResolution
	}
	return target, nil
}

func cmdTagAll(c *MessageContext, args []string) error {
	members := c.MemberIDs()
	quote := c.Event.Ref
	return c.ReplyWith(OutgoingText{
		Text:     tagAllText(members),
		Mentions: members,
		Quote:    &quote,
	})
}

func cmdHidetag(c *MessageContext, args []string) error {
	return c.hidetag()
}

// broadcasts a low-visibility placeholder mentioning every member
func (c *MessageContext) hidetag() error {
	err := c.ReplyWith(OutgoingText{Text: ".", Mentions: c.MemberIDs()})
	if err != nil {
		c.Logger.Error("hidetag error", "err", err)
		return err
	}
	return c.ReactTemporarily(emojiDone)
}

func cmdLock(c *MessageContext, args []string) error {
	if err := c.setLocked(true); err != nil {
		return c.fail("❌ Failed to lock group: "+err.Error(), "locking group", err)
	}
	return c.React(emojiDone)
}

func cmdOpen(c *MessageContext, args []string) error {
	if err := c.setLocked(false); err != nil {
		return c.fail("❌ Failed to open group: "+err.Error(), "opening group", err)
	}
	return c.React(emojiDone)
}

// toggles the group's broadcast restriction, and the locked-groups marker once the transport accepted it
func (c *MessageContext) setLocked(locked bool) error {
	eng := c.engine
	if err := eng.Transport.SetGroupBroadcastRestricted(c.Ctx, c.Chat, locked); err != nil {
		return err
	}
	var err error
	if locked {
		err = eng.Sets.Add(c.Ctx, setstore.SetLockedGroups, c.Chat)
	} else {
		_, err = eng.Sets.Remove(c.Ctx, setstore.SetLockedGroups, c.Chat)
	}
	if err != nil {
		c.Logger.Warn("failed to update locked-groups marker", "err", err)
	}
	if locked {
		moderationActions.WithLabelValues("lock").Inc()
	} else {
		moderationActions.WithLabelValues("open").Inc()
	}
	c.Logger.Info("group lock changed", "locked", locked)
	return nil
}

func cmdKick(c *MessageContext, args []string) error {
	target, err := c.requireTarget(textKickNoReply)
	if err != nil {
		return err
	}
	if err := c.removeParticipant(target, "kick"); err != nil {
		return c.fail("❌ Failed to kick user: "+err.Error(), "kicking user", err)
	}
	return c.React(emojiDone)
}

func (c *MessageContext) removeParticipant(target, reason string) error {
	if err := c.engine.Transport.RemoveParticipant(c.Ctx, c.Chat, target); err != nil {
		return err
	}
	moderationActions.WithLabelValues(reason).Inc()
	c.Logger.Info("user removed from group", "target", target, "reason", reason)
	return nil
}

func cmdPromote(c *MessageContext, args []string) error {
	return c.changeRole(RoleAdmin, textPromoteNoReply, textPromoteFailed)
}

func cmdDemote(c *MessageContext, args []string) error {
	return c.changeRole(RoleMember, textDemoteNoReply, textDemoteFailed)
}

func (c *MessageContext) changeRole(role Role, noReply, failed string) error {
	target, err := c.requireTarget(noReply)
	if err != nil {
		return err
	}
	if err := c.engine.Transport.SetParticipantRole(c.Ctx, c.Chat, target, role); err != nil {
		return c.fail(failed, "changing participant role", err)
	}
	moderationActions.WithLabelValues("role_" + string(role)).Inc()
	c.Logger.Info("participant role changed", "target", target, "role", role)
	return c.React(emojiDone)
}

func cmdWarn(c *MessageContext, args []string) error {
	target, err := c.requireTarget(textWarnNoReply)
	if err != nil {
		return err
	}
	_, err = c.engine.warn(c, target)
	return err
}

func cmdAntilink(c *MessageContext, args []string) error {
	action := ""
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}
	if action != "on" && action != "off" {
		if err := c.Reply(textAntilinkUsage); err != nil {
			return err
		}
		return ErrUsage
	}

	on := action == "on"
	flags := []string{flagstore.FlagAntilink}
	var err error
	if on {
		err = c.engine.Policies.Add(c.Ctx, c.Chat, flags)
	} else {
		err = c.engine.Policies.Remove(c.Ctx, c.Chat, flags)
	}
	if err != nil {
		return fmt.Errorf("updating antilink policy: %w", err)
	}
	c.Logger.Info("antilink toggled", "enabled", on)
	return c.Reply(antilinkToggleText(on, c.BotIsAdmin))
}

func cmdBlock(c *MessageContext, args []string) error {
	target, err := c.requireTarget(textBlockNoReply)
	if err != nil {
		return err
	}
	name := setstore.BlockListName(identity.Normalize(c.engine.Transport.SelfID()))
	if err := c.engine.Sets.Add(c.Ctx, name, identity.Normalize(target)); err != nil {
		return fmt.Errorf("updating block list: %w", err)
	}
	c.Logger.Info("user blocked", "target", target)
	return c.React(emojiDone)
}

func cmdUnblock(c *MessageContext, args []string) error {
	if len(args) < 1 {
		if err := c.Reply(textUnblockUsage); err != nil {
			return err
		}
		return ErrUsage
	}
	number := args[0]
	target := identity.UserIdentity(number)
	name := setstore.BlockListName(identity.Normalize(c.engine.Transport.SelfID()))
	removed, err := c.engine.Sets.Remove(c.Ctx, name, target)
	if err != nil {
		return fmt.Errorf("updating block list: %w", err)
	}
	if !removed {
		return c.Reply(textUnblockNotFound)
	}
	c.Logger.Info("user unblocked", "target", target)
	return c.Reply(fmt.Sprintf("✅ User %s unblocked", number))
}

func cmdProfilePicture(c *MessageContext, args []string) error {
	if c.Quoted() == nil {
		if err := c.Reply(textPPNoReply); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	target := c.QuotedParticipant()
	if target == "" {
		if err := c.Reply(textPPNoTarget); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	return c.sendProfilePicture(identity.Normalize(target))
}

// resolves a profile image, trying each resolution tier in turn, and sends it to the conversation
func (c *MessageContext) sendProfilePicture(target string) error {
	eng := c.engine
	var url string
	var lastErr error
	for _, tier := range []ProfileTier{ProfileTierImage, ProfileTierDisplay} {
		u, err := eng.Transport.ResolveProfileImage(c.Ctx, target, tier)
		if err == nil && u != "" {
			url = u
			break
		}
		lastErr = err
	}
	if url == "" {
		c.Logger.Info("profile picture unavailable", "target", target, "err", lastErr)
		return c.Reply(textPPUnavailable)
	}
	err := eng.Transport.SendImage(c.Ctx, c.Chat, OutgoingMedia{
		URL:      url,
		Caption:  profileCaption(target),
		Mentions: []string{target},
	})
	if err != nil {
		return c.fail("❌ Error: "+err.Error(), "sending profile picture", err)
	}
	return nil
}

func cmdDeleteGroup(c *MessageContext, args []string) error {
	q := c.Quoted()
	if q == nil {
		if err := c.Reply(textDeleteNoReply); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	ref := event.MessageRef{
		Chat:        c.Chat,
		ID:          q.ID,
		Participant: q.Participant,
		FromMe:      identity.SameAccount(q.Participant, c.engine.Transport.SelfID()),
	}
	if err := c.engine.Transport.DeleteMessage(c.Ctx, ref); err != nil {
		return c.fail("❌ Failed to delete message: "+err.Error(), "deleting message", err)
	}
	moderationActions.WithLabelValues("delete").Inc()
	return c.React(emojiDone)
}

func cmdDeleteDirect(c *MessageContext, args []string) error {
	q := c.Quoted()
	if q == nil {
		if err := c.Reply(textDeleteNoReply); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	ref := event.MessageRef{
		Chat:   c.Chat,
		ID:     q.ID,
		FromMe: true,
	}
	if err := c.engine.Transport.DeleteMessage(c.Ctx, ref); err != nil {
		return c.fail(textDeleteFailedDM, "deleting message", err)
	}
	return nil
}
