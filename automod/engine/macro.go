package engine

import (
	"fmt"

	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/automod/macrostore"
)

// kick, open and lock replay under the same gate as their typed counterparts
var macroAdminAccess = Access{Tier: TierAdmin, NeedsBotAdmin: true}

// Replays the macro bound to an incoming sticker, if any.
//
// Permission is derived from the sender's standing at replay time: media and tagging macros use the general gate, moderation macros the admin gate of their typed commands. Failures are logged but never reported to the conversation.
func (eng *Engine) replayMacro(c *MessageContext) error {
	name, ok := eng.Macros.Match(c.Event.Sticker.Fingerprint)
	if !ok {
		return nil
	}
	// only media macros make sense outside of groups
	if !c.IsGroup && name != macrostore.MacroVV && name != macrostore.MacroSticker {
		return nil
	}

	c.Logger = c.Logger.With("macro", name)
	c.Logger.Info("sticker macro triggered")
	err := eng.runMacro(c, name)
	macroReplayCount.WithLabelValues(name, errorKind(err)).Inc()
	if err != nil && !isUserError(err) {
		c.Logger.Error("sticker macro failed", "err", err)
	}
	return err
}

func (eng *Engine) runMacro(c *MessageContext, name string) error {
	switch name {
	case macrostore.MacroKick, macrostore.MacroLock, macrostore.MacroOpen:
		return eng.runAdminMacro(c, name)
	}

	if !CanUse(c.Mode(), c.Actor()) {
		return fmt.Errorf("sticker macro %s: %w", name, ErrPermissionDenied)
	}
	switch name {
	case macrostore.MacroVV:
		return macroViewOnce(c)
	case macrostore.MacroHidetag:
		return c.hidetag()
	case macrostore.MacroPP:
		target := c.QuotedParticipant()
		if target == "" {
			return ErrTargetResolution
		}
		return c.sendProfilePicture(identity.Normalize(target))
	case macrostore.MacroSticker:
		return macroConvertSticker(c)
	}
	return fmt.Errorf("unhandled sticker macro: %q", name)
}

func (eng *Engine) runAdminMacro(c *MessageContext, name string) error {
	if err := CheckAccess(macroAdminAccess, c.Mode(), c.Actor()); err != nil {
		return fmt.Errorf("sticker macro %s: %w", name, err)
	}
	switch name {
	case macrostore.MacroKick:
		target := c.QuotedParticipant()
		if target == "" {
			return ErrTargetResolution
		}
		if err := c.removeParticipant(target, "kick"); err != nil {
			return collabErr("kicking user", err)
		}
	case macrostore.MacroLock:
		if err := c.setLocked(true); err != nil {
			return collabErr("locking group", err)
		}
	case macrostore.MacroOpen:
		if err := c.setLocked(false); err != nil {
			return collabErr("opening group", err)
		}
	}
	return c.React(emojiDone)
}

func macroViewOnce(c *MessageContext) error {
	q := c.Quoted()
	if q == nil {
		return ErrTargetResolution
	}
	if c.engine.Media == nil {
		return collabErr("extracting view-once media", errMissingCollaborator)
	}
	media, err := c.engine.Media.ExtractViewOnce(c.Ctx, q)
	if err != nil {
		return collabErr("extracting view-once media", err)
	}
	if media == nil || len(media.Data) == 0 {
		return ErrTargetResolution
	}
	if err := c.deliverViewOnce(media, true); err != nil {
		return collabErr("delivering view-once media", err)
	}
	return c.ReactTemporarily(emojiDone)
}

func macroConvertSticker(c *MessageContext) error {
	q := c.Quoted()
	if q == nil || q.Kind != event.KindImage {
		return nil
	}
	if c.engine.Media == nil {
		return collabErr("converting sticker", errMissingCollaborator)
	}
	webp, err := c.convertQuotedImage(q)
	if err != nil {
		return collabErr("converting sticker", err)
	}
	return collabErr("sending sticker", c.engine.Transport.SendSticker(c.Ctx, c.Chat, webp))
}
