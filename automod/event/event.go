package event

import (
	"fmt"
	"time"
)

type MessageKind int

const (
	// no message payload (eg, protocol or receipt-only events)
	KindNone MessageKind = iota
	KindText
	KindImage
	KindVideo
	KindSticker
	KindOther
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindSticker:
		return "sticker"
	case KindOther:
		return "other"
	default:
		return "none"
	}
}

func (k MessageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MessageKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*k = KindNone
	case "text":
		*k = KindText
	case "image":
		*k = KindImage
	case "video":
		*k = KindVideo
	case "sticker":
		*k = KindSticker
	case "other":
		*k = KindOther
	default:
		return fmt.Errorf("unknown message kind: %q", string(b))
	}
	return nil
}

// Reference to a single message in a conversation. Used for reactions and deletions.
type MessageRef struct {
	// Conversation identity (group or direct chat)
	Chat string
	// Transport message ID
	ID string
	// Author of the message, when in a group. Empty for direct chats.
	Participant string
	// Message was sent by the bot's own account
	FromMe bool
}

// Sticker metadata carried by a sticker message.
type Sticker struct {
	// Content-derived identifier (SHA-256 of the sticker file). May be empty.
	Fingerprint []byte
}

// The message a command or sticker was sent in reply to.
type QuotedMessage struct {
	// Message ID of the quoted message (aka, stanza ID)
	ID string
	// Author of the quoted message. Used as the target of moderation commands.
	Participant string
	Kind        MessageKind
	// Quoted media was sent as view-once
	ViewOnce bool
	// Only set when the quoted message is a sticker
	Sticker *Sticker
	// Transport-specific message payload, handed back to the media collaborator for downloads.
	Payload any
}

// A single inbound message, as delivered by the transport.
//
// Events are plain data: they carry no transport session state, and the engine never mutates them.
type MessageEvent struct {
	Ref MessageRef
	// Raw author identity. For direct chats this is the peer (or the bot's own account for mirrored messages).
	Sender   string
	PushName string
	Kind     MessageKind
	// Conversation or caption text
	Text    string
	Sticker *Sticker
	// Message this one replies to, if any
	Quoted    *QuotedMessage
	Timestamp time.Time
}

// Whether the event carries any message payload at all.
func (e *MessageEvent) HasPayload() bool {
	return e != nil && e.Kind != KindNone
}

func (e *MessageEvent) IsSticker() bool {
	return e.Kind == KindSticker && e.Sticker != nil
}
