package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/kaido-bot/kaido/automod/event"

	"github.com/stretchr/testify/assert"
)

func warnEvent(target string) *event.MessageEvent {
	return replyTo(groupText(TestAdmin, ".warn"), target, event.KindText)
}

func TestWarnEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	assert.NoError(eng.ProcessMessage(ctx, warnEvent(TestMember)))
	count, err := eng.Warnings.GetCount(ctx, warnCounterName(TestGroup), TestMember)
	assert.NoError(err)
	assert.Equal(1, count)
	texts := mt.Texts()
	assert.Equal("⚠️ *Warning 1/2* - @15553330000\n\n⛔ One more warning = KICK!", texts[0].Msg.Text)
	assert.Equal([]string{TestMember}, texts[0].Msg.Mentions)
	assert.Empty(mt.Removed())

	assert.NoError(eng.ProcessMessage(ctx, warnEvent(TestMember)))
	assert.Equal([]RoleChange{{Group: TestGroup, Ident: TestMember}}, mt.Removed())
	// counter is deleted, not zeroed
	exists, err := eng.Warnings.Exists(ctx, warnCounterName(TestGroup), TestMember)
	assert.NoError(err)
	assert.False(exists)
	texts = mt.Texts()
	assert.Equal("⚠️ *@15553330000* received 2 warnings and has been kicked!", texts[1].Msg.Text)
}

func TestWarnWithoutBotAdmin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)
	mt.SetGroup(TestGroup, []Participant{
		{ID: TestAdmin, IsAdmin: true},
		{ID: TestMember},
		{ID: TestSelf},
	})

	assert.NoError(eng.ProcessMessage(ctx, warnEvent(TestMember)))
	err := eng.ProcessMessage(ctx, warnEvent(TestMember))
	assert.ErrorIs(err, ErrCapabilityMissing)
	assert.Empty(mt.Removed())
	assert.Equal("⚠️ *@15553330000* has 2 warnings but bot is not admin to kick!", mt.Texts()[1].Msg.Text)

	// count is retained, and keeps growing
	err = eng.ProcessMessage(ctx, warnEvent(TestMember))
	assert.ErrorIs(err, ErrCapabilityMissing)
	count, err := eng.Warnings.GetCount(ctx, warnCounterName(TestGroup), TestMember)
	assert.NoError(err)
	assert.Equal(3, count)
}

func TestWarnRemovalFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)
	mt.Errors["RemoveParticipant"] = fmt.Errorf("not-authorized")

	assert.NoError(eng.ProcessMessage(ctx, warnEvent(TestMember)))
	err := eng.ProcessMessage(ctx, warnEvent(TestMember))
	var ce *CollaboratorError
	assert.ErrorAs(err, &ce)
	count, err := eng.Warnings.GetCount(ctx, warnCounterName(TestGroup), TestMember)
	assert.NoError(err)
	assert.Equal(2, count)
}

func TestWarnTargets(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	mt := mockTransport(eng)

	// no quoted message
	err := eng.ProcessMessage(ctx, groupText(TestAdmin, ".warn"))
	assert.ErrorIs(err, ErrTargetResolution)
	assert.Equal([]string{textWarnNoReply}, mt.TextsTo(TestGroup))

	// quoted message with no participant fails silently
	err = eng.ProcessMessage(ctx, warnEvent(""))
	assert.ErrorIs(err, ErrTargetResolution)
	assert.Equal(1, len(mt.TextsTo(TestGroup)))

	// device-qualified identities count against the same account
	assert.NoError(eng.ProcessMessage(ctx, warnEvent("15553330000:7@s.whatsapp.net")))
	assert.NoError(eng.ProcessMessage(ctx, warnEvent(TestMember)))
	assert.Equal(1, len(mt.Removed()))

	// counters are per group
	count, err := eng.Warnings.GetCount(ctx, warnCounterName("120363000000000002@g.us"), TestMember)
	assert.NoError(err)
	assert.Equal(0, count)
}
