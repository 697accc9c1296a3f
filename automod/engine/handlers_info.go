package engine

import (
	"time"
)

func cmdMenu(c *MessageContext, args []string) error {
	text := menuText(c.Mode())
	if img := c.engine.Config.MenuImage; len(img) > 0 {
		err := c.engine.Transport.SendImage(c.Ctx, c.Chat, OutgoingMedia{Data: img, Caption: text})
		if err == nil {
			return nil
		}
		// fall back to plain text
		c.Logger.Warn("failed to send menu image", "err", err)
	}
	return c.Reply(text)
}

func cmdHelp(c *MessageContext, args []string) error {
	return c.Reply(helpText(c.Mode()))
}

func cmdPing(c *MessageContext, args []string) error {
	since := c.started
	if ts := c.Event.Timestamp; !ts.IsZero() && ts.Before(since) {
		since = ts
	}
	return c.Reply(pongText(time.Since(since), c.Mode()))
}

func cmdPublic(c *MessageContext, args []string) error {
	c.engine.Mode.Set(ModePublic)
	c.Logger.Info("bot mode changed", "mode", ModePublic)
	return c.Reply(textNowPublic)
}

func cmdPrivate(c *MessageContext, args []string) error {
	c.engine.Mode.Set(ModePrivate)
	c.Logger.Info("bot mode changed", "mode", ModePrivate)
	return c.Reply(textNowPrivate)
}

func cmdLive(c *MessageContext, args []string) error {
	if len(args) < 1 {
		if err := c.Reply(textLiveUsage); err != nil {
			return err
		}
		return ErrUsage
	}
	symbol := args[0]
	if c.engine.Prices == nil {
		return c.fail(textNoCollaborator, "price lookup", errMissingCollaborator)
	}

	if err := c.React(emojiPending); err != nil {
		return err
	}

	q, err := c.engine.Prices.LookupPrice(c.Ctx, symbol)
	if err != nil || q == nil {
		if serr := c.Reply(priceNotFoundText(symbol)); serr != nil {
			return serr
		}
		if err != nil {
			c.Logger.Error("price lookup failed", "symbol", symbol, "err", err)
			return collabErr("price lookup", err)
		}
		return nil
	}

	if err := c.Reply(priceText(q, time.Now())); err != nil {
		return err
	}
	return c.React(emojiDone)
}
