package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/helpers"
	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/automod/macrostore"
)

func cmdSetSticker(c *MessageContext, args []string) error {
	usage := textSetStickerUsage
	if !c.IsGroup {
		usage = textSetStickerUsageD
	}
	q := c.Quoted()
	name := ""
	if len(args) > 0 {
		name = strings.ToLower(args[0])
	}
	if q == nil || q.Kind != event.KindSticker || q.Sticker == nil || name == "" {
		if err := c.Reply(usage); err != nil {
			return err
		}
		return ErrUsage
	}
	if !macrostore.IsMacroName(name) {
		if err := c.Reply(textSetStickerNames); err != nil {
			return err
		}
		return ErrUsage
	}

	crit, err := c.engine.Macros.Register(name, q.Sticker.Fingerprint, name == macrostore.MacroSticker)
	if err != nil {
		return fmt.Errorf("registering sticker macro: %w", err)
	}
	c.Logger.Info("sticker macro set", "macro", name, "criterion", crit.Kind, "fingerprint", helpers.HashOfBytes(q.Sticker.Fingerprint))

	switch {
	case !c.IsGroup:
		return c.Reply(fmt.Sprintf("✅ Sticker set to *%s* - works globally!", strings.ToUpper(name)))
	case name == macrostore.MacroSticker:
		return c.Reply(textConverterSet)
	default:
		return c.Reply(fmt.Sprintf("✅ Sticker set to *%s*!", strings.ToUpper(name)))
	}
}

func cmdSticker(c *MessageContext, args []string) error {
	q := c.Quoted()
	if q == nil {
		if err := c.Reply(textStickerNoReply); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	if q.Kind != event.KindImage {
		if err := c.Reply(textStickerNotImage); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	if c.engine.Media == nil {
		return c.fail(textNoCollaborator, "converting sticker", errMissingCollaborator)
	}

	if err := c.React(emojiPending); err != nil {
		return err
	}
	webp, err := c.convertQuotedImage(q)
	if err != nil {
		if errors.Is(err, errConversionFailed) {
			return c.fail(textStickerFailed, "converting sticker", err)
		}
		return c.fail("❌ Failed to create sticker: "+err.Error(), "converting sticker", err)
	}
	if err := c.engine.Transport.SendSticker(c.Ctx, c.Chat, webp); err != nil {
		return c.fail("❌ Failed to create sticker: "+err.Error(), "sending sticker", err)
	}
	c.Logger.Info("sticker created")
	return c.React(emojiDone)
}

var errConversionFailed = errors.New("image conversion failed")

// downloads the quoted image and converts it to a sticker
func (c *MessageContext) convertQuotedImage(q *event.QuotedMessage) ([]byte, error) {
	media := c.engine.Media
	img, err := media.DownloadImage(c.Ctx, q)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	webp, err := media.ConvertImageToSticker(c.Ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConversionFailed, err)
	}
	if len(webp) == 0 {
		return nil, errConversionFailed
	}
	return webp, nil
}

func cmdViewOnce(c *MessageContext, args []string) error {
	q := c.Quoted()
	if q == nil {
		if err := c.Reply(textVVNoReply); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	if c.engine.Media == nil {
		return c.fail(textNoCollaborator, "extracting view-once media", errMissingCollaborator)
	}

	media, err := c.engine.Media.ExtractViewOnce(c.Ctx, q)
	if err != nil {
		return c.fail(textVVDownloadFailed, "extracting view-once media", err)
	}
	if media == nil {
		if err := c.Reply(textVVNotViewOnce); err != nil {
			return err
		}
		return ErrTargetResolution
	}
	if len(media.Data) == 0 {
		return c.fail(textVVDownloadFailed, "extracting view-once media", errors.New("empty media payload"))
	}

	if err := c.deliverViewOnce(media, false); err != nil {
		return c.fail("❌ Failed to save view-once media: "+err.Error(), "delivering view-once media", err)
	}
	return c.React(emojiDone)
}

func viewOnceCaption(media *ViewOnceMedia, direct, viaMacro bool) string {
	via := ""
	if viaMacro {
		via = " (via sticker)"
	}
	if direct {
		prefix := "📸"
		if media.Type == MediaVideo {
			prefix = "🎥"
		}
		return prefix + " View-once from DM" + via + "\n" + media.Caption
	}
	if media.Caption != "" {
		return media.Caption
	}
	if media.Type == MediaVideo {
		return "View-once video saved" + via
	}
	return "View-once photo saved" + via
}

// sends recovered view-once media to the owner's direct chat (or the bot's own chat, if no owner is configured)
func (c *MessageContext) deliverViewOnce(media *ViewOnceMedia, viaMacro bool) error {
	eng := c.engine
	dest := eng.Owner.Identity()
	if eng.Owner.Number() == "" {
		dest = identity.Normalize(eng.Transport.SelfID())
	}
	out := OutgoingMedia{
		Data:    media.Data,
		Caption: viewOnceCaption(media, !c.IsGroup, viaMacro),
	}
	var err error
	switch media.Type {
	case MediaVideo:
		err = eng.Transport.SendVideo(c.Ctx, dest, out)
	default:
		err = eng.Transport.SendImage(c.Ctx, dest, out)
	}
	if err != nil {
		return err
	}
	c.Logger.Info("view-once media saved", "type", media.Type, "macro", viaMacro)
	return nil
}

func cmdJoin(c *MessageContext, args []string) error {
	link := strings.TrimSpace(strings.Join(args, " "))
	if link == "" {
		if err := c.Reply(textJoinUsage); err != nil {
			return err
		}
		return ErrUsage
	}

	code, err := helpers.ExtractInviteCode(link)
	if err != nil {
		notice := textJoinBadFormat
		if errors.Is(err, helpers.ErrNotInviteLink) {
			notice = textJoinInvalidLink
		}
		if serr := c.Reply(notice); serr != nil {
			return serr
		}
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	group, err := c.engine.Transport.AcceptGroupInvite(c.Ctx, code)
	if err != nil {
		msg := strings.ToLower(err.Error())
		notice := textJoinFailed
		switch {
		case strings.Contains(msg, "already"):
			notice = textJoinAlready
		case strings.Contains(msg, "expired"):
			notice = textJoinExpired
		}
		return c.fail(notice, "joining group", err)
	}
	c.Logger.Info("joined group", "group", group)
	return c.Reply(textJoinSuccess)
}
