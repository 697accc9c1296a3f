package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/identity"
)

// Per-event processing context, handed to every command handler and macro replay.
//
// Classification (group vs direct, owner and admin standing) happens once, when the context is created. The bot mode is read live from the engine, so permission checks always see the current mode.
type MessageContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger
	Event  *event.MessageEvent

	// conversation identity
	Chat         string
	IsGroup      bool
	IsOwner      bool
	IsGroupAdmin bool
	BotIsAdmin   bool
	// current members, only populated for groups
	Participants []Participant

	started time.Time
	engine  *Engine // NOTE: pointer, but expected never to be nil
}

func (eng *Engine) newMessageContext(ctx context.Context, evt *event.MessageEvent, started time.Time) (*MessageContext, error) {
	chat := evt.Ref.Chat
	isGroup := identity.IsGroup(chat)
	sender := evt.Sender
	if sender == "" {
		sender = chat
	}

	c := &MessageContext{
		Ctx:     ctx,
		Event:   evt,
		Chat:    chat,
		IsGroup: isGroup,
		started: started,
		engine:  eng,
	}
	c.IsOwner = identity.IsOwner(sender, eng.Owner, identity.Origin{
		Direct: !isGroup,
		FromMe: evt.Ref.FromMe,
		Chat:   chat,
	})
	c.Logger = eng.Logger.With("chat", chat, "sender", sender, "msg", evt.Ref.ID)

	if !isGroup {
		return c, nil
	}

	parts, err := eng.Transport.GroupParticipants(ctx, chat)
	if err != nil {
		return nil, collabErr("fetching group participants", err)
	}
	self := eng.Transport.SelfID()
	c.Participants = parts
	for _, p := range parts {
		if !p.IsAdmin {
			continue
		}
		if identity.SameAccount(p.ID, sender) {
			c.IsGroupAdmin = true
		}
		if identity.SameAccount(p.ID, self) {
			c.BotIsAdmin = true
		}
	}
	return c, nil
}

func (c *MessageContext) Mode() BotMode {
	return c.engine.Mode.Get()
}

func (c *MessageContext) Actor() Actor {
	return Actor{
		IsOwner:      c.IsOwner,
		IsGroupAdmin: c.IsGroupAdmin,
		BotIsAdmin:   c.BotIsAdmin,
	}
}

func (c *MessageContext) contextLabel() string {
	if c.IsGroup {
		return "group"
	}
	return "direct"
}

func (c *MessageContext) reactionClearDelay() time.Duration {
	if c.IsGroup {
		return c.engine.Config.ReactionClearGroup
	}
	return c.engine.Config.ReactionClearDirect
}

// the quoted message, if this message is a reply
func (c *MessageContext) Quoted() *event.QuotedMessage {
	return c.Event.Quoted
}

// participant the current message replies to, exactly as the transport reported it. empty if none.
func (c *MessageContext) QuotedParticipant() string {
	q := c.Event.Quoted
	if q == nil {
		return ""
	}
	return q.Participant
}

// all current group member identities
func (c *MessageContext) MemberIDs() []string {
	out := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		out = append(out, p.ID)
	}
	return out
}

// sends a plain text reply to the current conversation
func (c *MessageContext) Reply(text string) error {
	return c.ReplyWith(OutgoingText{Text: text})
}

func (c *MessageContext) ReplyWith(msg OutgoingText) error {
	return collabErr("sending text", c.engine.Transport.SendText(c.Ctx, c.Chat, msg))
}

// reacts to the triggering message
func (c *MessageContext) React(emoji string) error {
	return collabErr("sending reaction", c.engine.Transport.SendReaction(c.Ctx, c.Event.Ref, emoji))
}

// reacts to the triggering message, then clears the reaction after the configured delay
func (c *MessageContext) ReactTemporarily(emoji string) error {
	if err := c.React(emoji); err != nil {
		return err
	}
	c.engine.clearReactionLater(c.Event.Ref, c.reactionClearDelay(), c.Logger)
	return nil
}

// reports a collaborator failure to the conversation, and returns it for logging
func (c *MessageContext) fail(notice string, op string, err error) error {
	c.Logger.Error("command failed", "op", op, "err", err)
	if notice != "" {
		if serr := c.Reply(notice); serr != nil {
			c.Logger.Error("failed to send failure notice", "err", serr)
		}
	}
	return collabErr(op, err)
}
