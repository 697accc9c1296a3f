package whatsapp

import (
	"errors"

	"github.com/kaido-bot/kaido/automod/event"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// the session was logged out from the phone; a new pairing is required
var ErrLoggedOut = errors.New("whatsapp session logged out")

// ConvertMessage maps a whatsmeow message event to the transport-independent event type.
//
// Messages without any user content (protocol messages, reactions, key distribution) convert to event.KindNone.
func ConvertMessage(evt *events.Message) *event.MessageEvent {
	info := evt.Info
	out := &event.MessageEvent{
		Ref: event.MessageRef{
			Chat:   info.Chat.String(),
			ID:     info.ID,
			FromMe: info.IsFromMe,
		},
		Sender:    info.Sender.String(),
		PushName:  info.PushName,
		Timestamp: info.Timestamp,
	}
	if info.IsGroup {
		out.Ref.Participant = info.Sender.String()
	}

	msg := unwrapViewOnce(evt.Message)
	if msg == nil {
		return out
	}
	kind, text, ci := classify(msg)
	out.Kind = kind
	out.Text = text
	if sticker := msg.GetStickerMessage(); sticker != nil {
		out.Sticker = &event.Sticker{Fingerprint: sticker.GetFileSHA256()}
	}
	out.Quoted = convertQuoted(ci)
	return out
}

// kind, text or caption, and context info of a message
func classify(msg *waE2E.Message) (event.MessageKind, string, *waE2E.ContextInfo) {
	switch {
	case msg.Conversation != nil:
		return event.KindText, msg.GetConversation(), nil
	case msg.ExtendedTextMessage != nil:
		etm := msg.GetExtendedTextMessage()
		return event.KindText, etm.GetText(), etm.GetContextInfo()
	case msg.ImageMessage != nil:
		img := msg.GetImageMessage()
		return event.KindImage, img.GetCaption(), img.GetContextInfo()
	case msg.VideoMessage != nil:
		vid := msg.GetVideoMessage()
		return event.KindVideo, vid.GetCaption(), vid.GetContextInfo()
	case msg.StickerMessage != nil:
		return event.KindSticker, "", msg.GetStickerMessage().GetContextInfo()
	case msg.ProtocolMessage != nil, msg.ReactionMessage != nil, msg.SenderKeyDistributionMessage != nil:
		return event.KindNone, "", nil
	default:
		return event.KindOther, "", nil
	}
}

func convertQuoted(ci *waE2E.ContextInfo) *event.QuotedMessage {
	if ci == nil || (ci.GetStanzaID() == "" && ci.QuotedMessage == nil) {
		return nil
	}
	quoted := ci.GetQuotedMessage()
	q := &event.QuotedMessage{
		ID:          ci.GetStanzaID(),
		Participant: ci.GetParticipant(),
		ViewOnce:    isViewOnce(quoted),
		Payload:     quoted,
	}
	if inner := unwrapViewOnce(quoted); inner != nil {
		q.Kind, _, _ = classify(inner)
		if sticker := inner.GetStickerMessage(); sticker != nil {
			q.Sticker = &event.Sticker{Fingerprint: sticker.GetFileSHA256()}
		}
	}
	return q
}

// inner message of any view-once wrapper, or the message itself
func unwrapViewOnce(msg *waE2E.Message) *waE2E.Message {
	if msg == nil {
		return nil
	}
	for _, w := range []*waE2E.FutureProofMessage{
		msg.GetViewOnceMessage(),
		msg.GetViewOnceMessageV2(),
		msg.GetViewOnceMessageV2Extension(),
	} {
		if inner := w.GetMessage(); inner != nil {
			return inner
		}
	}
	return msg
}

func isViewOnce(msg *waE2E.Message) bool {
	if msg == nil {
		return false
	}
	if msg.ViewOnceMessage != nil || msg.ViewOnceMessageV2 != nil || msg.ViewOnceMessageV2Extension != nil {
		return true
	}
	return msg.GetImageMessage().GetViewOnce() || msg.GetVideoMessage().GetViewOnce()
}
