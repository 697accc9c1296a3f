package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/setstore"
	"github.com/kaido-bot/kaido/pricefeed"

	"github.com/stretchr/testify/assert"
)

func TestLockOpenCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	assert.NoError(eng.ProcessMessage(ctx, groupText(TestAdmin, ".lock")))
	restricted, _ := mt.Restricted(TestGroup)
	assert.True(restricted)
	locked, err := eng.Sets.InSet(ctx, setstore.SetLockedGroups, TestGroup)
	assert.NoError(err)
	assert.True(locked)

	assert.NoError(eng.ProcessMessage(ctx, groupText(TestOwner, ".open")))
	restricted, _ = mt.Restricted(TestGroup)
	assert.False(restricted)
	locked, err = eng.Sets.InSet(ctx, setstore.SetLockedGroups, TestGroup)
	assert.NoError(err)
	assert.False(locked)
	assert.Equal(2, len(mt.Reactions()))

	// transport failure leaves the marker alone
	mt.Errors["SetGroupBroadcastRestricted"] = fmt.Errorf("forbidden")
	err = eng.ProcessMessage(ctx, groupText(TestAdmin, ".lock"))
	var ce *CollaboratorError
	assert.ErrorAs(err, &ce)
	assert.Equal([]string{"❌ Failed to lock group: forbidden"}, mt.TextsTo(TestGroup))
	locked, _ = eng.Sets.InSet(ctx, setstore.SetLockedGroups, TestGroup)
	assert.False(locked)
}

func TestCapabilityNotice(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)
	mt.SetGroup(TestGroup, []Participant{{ID: TestAdmin, IsAdmin: true}, {ID: TestMember}, {ID: TestSelf}})

	err := eng.ProcessMessage(ctx, groupText(TestAdmin, ".lock"))
	assert.ErrorIs(err, ErrCapabilityMissing)
	assert.Equal([]string{"❌ Bot needs to be admin to lock the group!"}, mt.TextsTo(TestGroup))
	_, set := mt.Restricted(TestGroup)
	assert.False(set)

	err = eng.ProcessMessage(ctx, replyTo(groupText(TestAdmin, ".promote"), TestMember, event.KindText))
	assert.ErrorIs(err, ErrCapabilityMissing)
	assert.Empty(mt.RoleChanges())

	// permission is checked first: members get nothing at all
	err = eng.ProcessMessage(ctx, groupText(TestMember, ".lock"))
	assert.ErrorIs(err, ErrPermissionDenied)
	assert.Equal(2, len(mt.TextsTo(TestGroup)))
}

func TestRoleCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	assert.NoError(eng.ProcessMessage(ctx, replyTo(groupText(TestAdmin, ".promote"), TestMember, event.KindText)))
	assert.NoError(eng.ProcessMessage(ctx, replyTo(groupText(TestAdmin, ".demote"), TestMember, event.KindText)))
	assert.Equal([]RoleChange{
		{Group: TestGroup, Ident: TestMember, Role: RoleAdmin},
		{Group: TestGroup, Ident: TestMember, Role: RoleMember},
	}, mt.RoleChanges())

	err := eng.ProcessMessage(ctx, groupText(TestAdmin, ".promote"))
	assert.ErrorIs(err, ErrTargetResolution)
	assert.Equal([]string{textPromoteNoReply}, mt.TextsTo(TestGroup))

	mt.Errors["SetParticipantRole"] = fmt.Errorf("not-authorized")
	err = eng.ProcessMessage(ctx, replyTo(groupText(TestAdmin, ".demote"), TestMember, event.KindText))
	assert.Error(err)
	assert.Equal(textDemoteFailed, mt.TextsTo(TestGroup)[1])
}

func TestTagCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	evt := groupText(TestOwner, ".tagall")
	assert.NoError(eng.ProcessMessage(ctx, evt))
	texts := mt.Texts()
	assert.Equal(1, len(texts))
	assert.Contains(texts[0].Msg.Text, "@15552220000\n")
	assert.Equal(4, len(texts[0].Msg.Mentions))
	assert.Equal(evt.Ref, *texts[0].Msg.Quote)

	evt = groupText(TestOwner, ".hidetag")
	assert.NoError(eng.ProcessMessage(ctx, evt))
	eng.Wait()
	texts = mt.Texts()
	assert.Equal(".", texts[1].Msg.Text)
	assert.Nil(texts[1].Msg.Quote)
	assert.Equal([]SentReaction{{Ref: evt.Ref, Emoji: emojiDone}, {Ref: evt.Ref, Emoji: ""}}, mt.Reactions())
}

func TestProfilePictureCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)
	mt.ProfileImages[TestAdmin+"/image"] = "https://pps.example/admin-hd.jpg"
	mt.ProfileImages[TestAdmin+"/display"] = "https://pps.example/admin.jpg"

	// device-qualified participant is normalized before lookup
	assert.NoError(eng.ProcessMessage(ctx, replyTo(groupText(TestOwner, ".get pp"), "15552220000:3@s.whatsapp.net", event.KindText)))
	media := mt.Media()
	assert.Equal(1, len(media))
	assert.Equal("https://pps.example/admin-hd.jpg", media[0].Media.URL)
	assert.Equal([]string{TestAdmin}, media[0].Media.Mentions)

	assert.NoError(eng.ProcessMessage(ctx, replyTo(groupText(TestOwner, ".get pp"), TestMember, event.KindText)))
	assert.Equal([]string{textPPUnavailable}, mt.TextsTo(TestGroup))

	err := eng.ProcessMessage(ctx, groupText(TestOwner, ".get pp"))
	assert.ErrorIs(err, ErrTargetResolution)
	assert.Equal(textPPNoReply, mt.TextsTo(TestGroup)[1])
}

func TestBlockList(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)
	blocked := setstore.BlockListName(TestSelf)

	assert.NoError(eng.ProcessMessage(ctx, replyTo(groupText(TestOwner, ".block"), "15553330000:2@s.whatsapp.net", event.KindText)))
	ok, err := eng.Sets.InSet(ctx, blocked, TestMember)
	assert.NoError(err)
	assert.True(ok)

	assert.NoError(eng.ProcessMessage(ctx, groupText(TestOwner, ".unblock +15553330000")))
	assert.Equal([]string{"✅ User +15553330000 unblocked"}, mt.TextsTo(TestGroup))
	ok, err = eng.Sets.InSet(ctx, blocked, TestMember)
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(eng.ProcessMessage(ctx, groupText(TestOwner, ".unblock 15553330000")))
	assert.Equal(textUnblockNotFound, mt.TextsTo(TestGroup)[1])

	assert.ErrorIs(eng.ProcessMessage(ctx, groupText(TestOwner, ".unblock")), ErrUsage)
	assert.ErrorIs(eng.ProcessMessage(ctx, groupText(TestOwner, ".block")), ErrTargetResolution)
}

func TestDeleteCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	evt := replyTo(groupText(TestAdmin, ".delete"), TestMember, event.KindText)
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Equal([]event.MessageRef{{Chat: TestGroup, ID: evt.Quoted.ID, Participant: TestMember}}, mt.Deleted())

	// direct chat: only the bot's own messages
	evt = replyTo(directText(TestOwner, ".delete", false), TestSelf, event.KindText)
	assert.NoError(eng.ProcessMessage(ctx, evt))
	deleted := mt.Deleted()
	assert.Equal(event.MessageRef{Chat: TestOwner, ID: evt.Quoted.ID, FromMe: true}, deleted[1])

	mt.Errors["DeleteMessage"] = fmt.Errorf("too old")
	evt = replyTo(directText(TestOwner, ".delete", false), TestSelf, event.KindText)
	assert.Error(eng.ProcessMessage(ctx, evt))
	assert.Equal([]string{textDeleteFailedDM}, mt.TextsTo(TestOwner))
}

func TestJoinCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	assert.NoError(eng.ProcessMessage(ctx, directText(TestOwner, ".join https://chat.whatsapp.com/AbCdEfGhIj12?mode=r", false)))
	assert.Equal([]string{"AbCdEfGhIj12"}, mt.Joined())
	assert.Equal([]string{textJoinSuccess}, mt.TextsTo(TestOwner))

	assert.ErrorIs(eng.ProcessMessage(ctx, directText(TestOwner, ".join", false)), ErrUsage)
	assert.ErrorIs(eng.ProcessMessage(ctx, directText(TestOwner, ".join https://example.com/x", false)), ErrUsage)
	assert.ErrorIs(eng.ProcessMessage(ctx, directText(TestOwner, ".join chat.whatsapp.com/abc", false)), ErrUsage)
	texts := mt.TextsTo(TestOwner)
	assert.Equal([]string{textJoinUsage, textJoinInvalidLink, textJoinBadFormat}, texts[1:])

	mt.Errors["AcceptGroupInvite"] = fmt.Errorf("you are already a participant")
	assert.Error(eng.ProcessMessage(ctx, directText(TestOwner, ".join https://chat.whatsapp.com/AbCdEfGhIj12", false)))
	texts = mt.TextsTo(TestOwner)
	assert.Equal(textJoinAlready, texts[len(texts)-1])

	// strangers are treated as if the command does not exist
	eng.Mode.Set(ModePublic)
	err := eng.ProcessMessage(ctx, directText(TestStranger, ".join https://chat.whatsapp.com/AbCdEfGhIj12", false))
	assert.ErrorIs(err, ErrUnknownCommand)
	assert.Equal([]string{textUnknownCommand}, mt.TextsTo(TestStranger))
}

func TestSetStickerCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	err := eng.ProcessMessage(ctx, groupText(TestOwner, ".setsticker kick"))
	assert.ErrorIs(err, ErrUsage)
	err = eng.ProcessMessage(ctx, quotedSticker(groupText(TestOwner, ".setsticker ban"), fpOther))
	assert.ErrorIs(err, ErrUsage)
	assert.Equal([]string{textSetStickerUsage, textSetStickerNames}, mt.TextsTo(TestGroup))
	assert.Empty(eng.Macros.Bindings())

	// direct chats: owner only, global confirmation
	assert.NoError(eng.ProcessMessage(ctx, quotedSticker(directText(TestOwner, ".setsticker VV", false), fpVV)))
	assert.Equal([]string{"✅ Sticker set to *VV* - works globally!"}, mt.TextsTo(TestOwner))
	name, ok := eng.Macros.Match(fpVV)
	assert.True(ok)
	assert.Equal("vv", name)

	eng.Mode.Set(ModePublic)
	err = eng.ProcessMessage(ctx, quotedSticker(directText(TestStranger, ".setsticker kick", false), fpOther))
	assert.ErrorIs(err, ErrUnknownCommand)
	_, ok = eng.Macros.Lookup("kick")
	assert.False(ok)

	// rebinding replaces the criterion
	assert.NoError(eng.ProcessMessage(ctx, quotedSticker(groupText(TestMember, ".setsticker vv"), fpOther)))
	_, ok = eng.Macros.Match(fpVV)
	assert.False(ok)
	name, ok = eng.Macros.Match(fpOther)
	assert.True(ok)
	assert.Equal("vv", name)
}

func TestStickerCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	assert.ErrorIs(eng.ProcessMessage(ctx, groupText(TestOwner, ".sticker")), ErrTargetResolution)
	assert.ErrorIs(eng.ProcessMessage(ctx, replyTo(groupText(TestOwner, ".sticker"), TestMember, event.KindVideo)), ErrTargetResolution)
	assert.Equal([]string{textStickerNoReply, textStickerNotImage}, mt.TextsTo(TestGroup))

	evt := replyTo(groupText(TestOwner, ".sticker"), TestMember, event.KindImage)
	assert.NoError(eng.ProcessMessage(ctx, evt))
	media := mt.Media()
	assert.Equal(1, len(media))
	assert.Equal("sticker", media[0].Kind)
	assert.Equal([]SentReaction{{Ref: evt.Ref, Emoji: emojiPending}, {Ref: evt.Ref, Emoji: emojiDone}}, mt.Reactions())

	eng.Media.(*MockMedia).Sticker = nil
	assert.Error(eng.ProcessMessage(ctx, replyTo(groupText(TestOwner, ".sticker"), TestMember, event.KindImage)))
	texts := mt.TextsTo(TestGroup)
	assert.Equal(textStickerFailed, texts[len(texts)-1])
}

func TestViewOnceCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	assert.ErrorIs(eng.ProcessMessage(ctx, groupText(TestOwner, ".vv")), ErrTargetResolution)
	assert.ErrorIs(eng.ProcessMessage(ctx, replyTo(groupText(TestOwner, ".vv"), TestMember, event.KindText)), ErrTargetResolution)
	assert.Equal([]string{textVVNoReply, textVVNotViewOnce}, mt.TextsTo(TestGroup))

	evt := replyTo(groupText(TestOwner, ".vv"), TestMember, event.KindImage)
	evt.Quoted.ViewOnce = true
	assert.NoError(eng.ProcessMessage(ctx, evt))
	media := mt.Media()
	assert.Equal(1, len(media))
	assert.Equal(TestOwner, media[0].Chat)
	assert.Equal("View-once photo saved", media[0].Media.Caption)

	evt = replyTo(directText(TestOwner, ".vv", false), "", event.KindImage)
	evt.Quoted.ViewOnce = true
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Equal("📸 View-once from DM\n", mt.Media()[1].Media.Caption)

	eng.Media.(*MockMedia).Err = fmt.Errorf("media conn expired")
	assert.Error(eng.ProcessMessage(ctx, evt))
	assert.Equal([]string{textVVDownloadFailed}, mt.TextsTo(TestOwner))
}

func TestLiveCommand(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)
	eng.Prices.(*MockPrices).Quotes["btc"] = &pricefeed.Quote{
		Symbol:    "BTC",
		CoinID:    "bitcoin",
		Price:     64123.5,
		Change24h: -1.234,
		MarketCap: 1263000000000,
		FetchedAt: time.Now(),
	}

	evt := groupText(TestOwner, ".live BTC")
	assert.NoError(eng.ProcessMessage(ctx, evt))
	texts := mt.TextsTo(TestGroup)
	assert.Equal(1, len(texts))
	assert.Contains(texts[0], "💹 *BTC* Live Price")
	assert.Contains(texts[0], "$64,123.50")
	assert.Contains(texts[0], "📉 *24h Change:* -1.23%")
	assert.Contains(texts[0], "Market Cap: $1,263,000,000,000")
	assert.Equal([]SentReaction{{Ref: evt.Ref, Emoji: emojiPending}, {Ref: evt.Ref, Emoji: emojiDone}}, mt.Reactions())

	assert.NoError(eng.ProcessMessage(ctx, groupText(TestOwner, ".live nope")))
	assert.Contains(mt.TextsTo(TestGroup)[1], "Could not find data for *NOPE*")

	eng.Prices.(*MockPrices).Err = fmt.Errorf("429")
	assert.Error(eng.ProcessMessage(ctx, groupText(TestOwner, ".live eth")))
	assert.Contains(mt.TextsTo(TestGroup)[2], "Could not find data for *ETH*")
}
