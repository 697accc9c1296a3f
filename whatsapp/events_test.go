package whatsapp

import (
	"testing"
	"time"

	"github.com/kaido-bot/kaido/automod/event"

	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

var (
	testGroupJID  = types.NewJID("120363000000000001", types.GroupServer)
	testMemberJID = types.NewJID("15553330000", types.DefaultUserServer)
)

func groupMessage(msg *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    testGroupJID,
				Sender:  testMemberJID,
				IsGroup: true,
			},
			ID:        "ABCDEF",
			PushName:  "member",
			Timestamp: time.Unix(1700000000, 0),
		},
		Message: msg,
	}
}

func TestConvertGroupText(t *testing.T) {
	assert := assert.New(t)

	evt := ConvertMessage(groupMessage(&waE2E.Message{Conversation: proto.String(".ping")}))
	assert.Equal(event.KindText, evt.Kind)
	assert.Equal(".ping", evt.Text)
	assert.Equal("120363000000000001@g.us", evt.Ref.Chat)
	assert.Equal("15553330000@s.whatsapp.net", evt.Ref.Participant)
	assert.Equal("15553330000@s.whatsapp.net", evt.Sender)
	assert.Equal("ABCDEF", evt.Ref.ID)
	assert.False(evt.Ref.FromMe)
	assert.Nil(evt.Quoted)
	assert.Equal(int64(1700000000), evt.Timestamp.Unix())
}

func TestConvertDirectHasNoParticipant(t *testing.T) {
	assert := assert.New(t)

	raw := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:   testMemberJID,
				Sender: testMemberJID,
			},
			ID: "XYZ",
		},
		Message: &waE2E.Message{Conversation: proto.String("hi")},
	}
	evt := ConvertMessage(raw)
	assert.Equal("", evt.Ref.Participant)
	assert.Equal("15553330000@s.whatsapp.net", evt.Ref.Chat)
}

func TestConvertReplyWithQuotedViewOnce(t *testing.T) {
	assert := assert.New(t)

	quoted := &waE2E.Message{
		ViewOnceMessageV2: &waE2E.FutureProofMessage{
			Message: &waE2E.Message{
				ImageMessage: &waE2E.ImageMessage{Caption: proto.String("secret"), ViewOnce: proto.Bool(true)},
			},
		},
	}
	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(".vv"),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String("QUOTED1"),
				Participant:   proto.String("15552220000:3@s.whatsapp.net"),
				QuotedMessage: quoted,
			},
		},
	}
	evt := ConvertMessage(groupMessage(msg))
	assert.Equal(event.KindText, evt.Kind)
	assert.Equal(".vv", evt.Text)
	if assert.NotNil(evt.Quoted) {
		assert.Equal("QUOTED1", evt.Quoted.ID)
		// participant is kept exactly as the transport reports it
		assert.Equal("15552220000:3@s.whatsapp.net", evt.Quoted.Participant)
		assert.True(evt.Quoted.ViewOnce)
		assert.Equal(event.KindImage, evt.Quoted.Kind)
		assert.Same(quoted, evt.Quoted.Payload)
	}
}

func TestConvertSticker(t *testing.T) {
	assert := assert.New(t)

	fp := []byte{0x01, 0x02, 0x03}
	evt := ConvertMessage(groupMessage(&waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{FileSHA256: fp},
	}))
	assert.Equal(event.KindSticker, evt.Kind)
	assert.True(evt.IsSticker())
	assert.Equal(fp, evt.Sticker.Fingerprint)

	// reply quoting a sticker carries its fingerprint
	evt = ConvertMessage(groupMessage(&waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(".setsticker kick"),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String("S1"),
				QuotedMessage: &waE2E.Message{StickerMessage: &waE2E.StickerMessage{FileSHA256: fp}},
			},
		},
	}))
	if assert.NotNil(evt.Quoted) && assert.NotNil(evt.Quoted.Sticker) {
		assert.Equal(fp, evt.Quoted.Sticker.Fingerprint)
		assert.Equal(event.KindSticker, evt.Quoted.Kind)
		assert.False(evt.Quoted.ViewOnce)
	}
}

func TestConvertNonContent(t *testing.T) {
	assert := assert.New(t)

	for _, msg := range []*waE2E.Message{
		nil,
		{ProtocolMessage: &waE2E.ProtocolMessage{}},
		{ReactionMessage: &waE2E.ReactionMessage{Text: proto.String("👍")}},
		{SenderKeyDistributionMessage: &waE2E.SenderKeyDistributionMessage{}},
	} {
		evt := ConvertMessage(groupMessage(msg))
		assert.Equal(event.KindNone, evt.Kind)
		assert.False(evt.HasPayload())
	}

	evt := ConvertMessage(groupMessage(&waE2E.Message{LocationMessage: &waE2E.LocationMessage{}}))
	assert.Equal(event.KindOther, evt.Kind)
}

func TestIsViewOnceFlags(t *testing.T) {
	assert := assert.New(t)

	assert.False(isViewOnce(nil))
	assert.False(isViewOnce(&waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}))
	assert.True(isViewOnce(&waE2E.Message{VideoMessage: &waE2E.VideoMessage{ViewOnce: proto.Bool(true)}}))
	assert.True(isViewOnce(&waE2E.Message{ViewOnceMessage: &waE2E.FutureProofMessage{}}))

	plain := &waE2E.Message{Conversation: proto.String("x")}
	assert.Same(plain, unwrapViewOnce(plain))
	assert.Nil(unwrapViewOnce(nil))
}
