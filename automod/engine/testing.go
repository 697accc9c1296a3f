package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kaido-bot/kaido/automod/countstore"
	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/flagstore"
	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/automod/macrostore"
	"github.com/kaido-bot/kaido/automod/setstore"
	"github.com/kaido-bot/kaido/pricefeed"
)

// identities used by EngineTestFixture
const (
	TestOwnerNumber = "15550001111"
	TestOwner       = TestOwnerNumber + "@s.whatsapp.net"
	TestSelf        = "15559990000@s.whatsapp.net"
	TestGroup       = "120363000000000001@g.us"
	TestAdmin       = "15552220000@s.whatsapp.net"
	TestMember      = "15553330000@s.whatsapp.net"
	TestStranger    = "15554440000@s.whatsapp.net"
)

type SentText struct {
	Chat string
	Msg  OutgoingText
}

type SentMedia struct {
	Chat  string
	Kind  string
	Media OutgoingMedia
}

type SentReaction struct {
	Ref   event.MessageRef
	Emoji string
}

type RoleChange struct {
	Group string
	Ident string
	// empty for removals
	Role Role
}

// In-memory Transport implementation, which records every outbound call. Safe for concurrent use.
type MockTransport struct {
	Self string
	// failures to inject, keyed by method name (eg, "RemoveParticipant")
	Errors map[string]error
	// profile image URLs, keyed by "<ident>/<tier>"
	ProfileImages map[string]string

	mu           sync.Mutex
	groups       map[string][]Participant
	texts        []SentText
	media        []SentMedia
	reactions    []SentReaction
	deleted      []event.MessageRef
	removed      []RoleChange
	roleChanges  []RoleChange
	restricted   map[string]bool
	joinedGroups []string
}

var _ Transport = (*MockTransport)(nil)

func NewMockTransport(self string) *MockTransport {
	return &MockTransport{
		Self:          self,
		Errors:        make(map[string]error),
		ProfileImages: make(map[string]string),
		groups:        make(map[string][]Participant),
		restricted:    make(map[string]bool),
	}
}

func (mt *MockTransport) SetGroup(group string, parts []Participant) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.groups[group] = parts
}

func (mt *MockTransport) fail(method string) error {
	return mt.Errors[method]
}

func (mt *MockTransport) SelfID() string {
	return mt.Self
}

func (mt *MockTransport) GroupParticipants(ctx context.Context, group string) ([]Participant, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("GroupParticipants"); err != nil {
		return nil, err
	}
	parts, ok := mt.groups[group]
	if !ok {
		return nil, fmt.Errorf("group not found: %s", group)
	}
	return append([]Participant(nil), parts...), nil
}

func (mt *MockTransport) SetGroupBroadcastRestricted(ctx context.Context, group string, restricted bool) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("SetGroupBroadcastRestricted"); err != nil {
		return err
	}
	mt.restricted[group] = restricted
	return nil
}

func (mt *MockTransport) RemoveParticipant(ctx context.Context, group, ident string) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("RemoveParticipant"); err != nil {
		return err
	}
	mt.removed = append(mt.removed, RoleChange{Group: group, Ident: ident})
	parts := mt.groups[group][:0:0]
	for _, p := range mt.groups[group] {
		if !identity.SameAccount(p.ID, ident) {
			parts = append(parts, p)
		}
	}
	mt.groups[group] = parts
	return nil
}

func (mt *MockTransport) SetParticipantRole(ctx context.Context, group, ident string, role Role) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("SetParticipantRole"); err != nil {
		return err
	}
	mt.roleChanges = append(mt.roleChanges, RoleChange{Group: group, Ident: ident, Role: role})
	return nil
}

func (mt *MockTransport) SendText(ctx context.Context, chat string, msg OutgoingText) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("SendText"); err != nil {
		return err
	}
	mt.texts = append(mt.texts, SentText{Chat: chat, Msg: msg})
	return nil
}

func (mt *MockTransport) sendMedia(method, kind, chat string, m OutgoingMedia) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail(method); err != nil {
		return err
	}
	mt.media = append(mt.media, SentMedia{Chat: chat, Kind: kind, Media: m})
	return nil
}

func (mt *MockTransport) SendImage(ctx context.Context, chat string, img OutgoingMedia) error {
	return mt.sendMedia("SendImage", "image", chat, img)
}

func (mt *MockTransport) SendVideo(ctx context.Context, chat string, vid OutgoingMedia) error {
	return mt.sendMedia("SendVideo", "video", chat, vid)
}

func (mt *MockTransport) SendSticker(ctx context.Context, chat string, webp []byte) error {
	return mt.sendMedia("SendSticker", "sticker", chat, OutgoingMedia{Data: webp})
}

func (mt *MockTransport) SendReaction(ctx context.Context, ref event.MessageRef, emoji string) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("SendReaction"); err != nil {
		return err
	}
	mt.reactions = append(mt.reactions, SentReaction{Ref: ref, Emoji: emoji})
	return nil
}

func (mt *MockTransport) DeleteMessage(ctx context.Context, ref event.MessageRef) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("DeleteMessage"); err != nil {
		return err
	}
	mt.deleted = append(mt.deleted, ref)
	return nil
}

func (mt *MockTransport) ResolveProfileImage(ctx context.Context, ident string, tier ProfileTier) (string, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	url, ok := mt.ProfileImages[ident+"/"+string(tier)]
	if !ok {
		return "", errors.New("item-not-found")
	}
	return url, nil
}

func (mt *MockTransport) AcceptGroupInvite(ctx context.Context, code string) (string, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.fail("AcceptGroupInvite"); err != nil {
		return "", err
	}
	mt.joinedGroups = append(mt.joinedGroups, code)
	return strings.ToLower(code) + "@g.us", nil
}

func (mt *MockTransport) Texts() []SentText {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]SentText(nil), mt.texts...)
}

// text bodies sent to a single chat, in order
func (mt *MockTransport) TextsTo(chat string) []string {
	var out []string
	for _, t := range mt.Texts() {
		if t.Chat == chat {
			out = append(out, t.Msg.Text)
		}
	}
	return out
}

func (mt *MockTransport) Media() []SentMedia {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]SentMedia(nil), mt.media...)
}

func (mt *MockTransport) Reactions() []SentReaction {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]SentReaction(nil), mt.reactions...)
}

func (mt *MockTransport) Deleted() []event.MessageRef {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]event.MessageRef(nil), mt.deleted...)
}

func (mt *MockTransport) Removed() []RoleChange {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]RoleChange(nil), mt.removed...)
}

func (mt *MockTransport) RoleChanges() []RoleChange {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]RoleChange(nil), mt.roleChanges...)
}

// current broadcast restriction, and whether it was ever set
func (mt *MockTransport) Restricted(group string) (bool, bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	v, ok := mt.restricted[group]
	return v, ok
}

func (mt *MockTransport) Joined() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]string(nil), mt.joinedGroups...)
}

// total number of outbound calls which produce something visible
func (mt *MockTransport) OutboundCount() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.texts) + len(mt.media) + len(mt.reactions) + len(mt.deleted) + len(mt.removed) + len(mt.roleChanges) + len(mt.restricted) + len(mt.joinedGroups)
}

type MockMedia struct {
	ViewOnce *ViewOnceMedia
	Image    []byte
	Sticker  []byte
	Err      error
}

var _ Media = (*MockMedia)(nil)

func (mm *MockMedia) ExtractViewOnce(ctx context.Context, quoted *event.QuotedMessage) (*ViewOnceMedia, error) {
	if mm.Err != nil {
		return nil, mm.Err
	}
	if !quoted.ViewOnce {
		return nil, nil
	}
	return mm.ViewOnce, nil
}

func (mm *MockMedia) DownloadImage(ctx context.Context, quoted *event.QuotedMessage) ([]byte, error) {
	if mm.Err != nil {
		return nil, mm.Err
	}
	return mm.Image, nil
}

func (mm *MockMedia) ConvertImageToSticker(ctx context.Context, img []byte) ([]byte, error) {
	if mm.Err != nil {
		return nil, mm.Err
	}
	return mm.Sticker, nil
}

// canned price quotes, keyed by lower-case symbol
type MockPrices struct {
	Quotes map[string]*pricefeed.Quote
	Err    error
}

var _ PriceLookup = (*MockPrices)(nil)

func (mp *MockPrices) LookupPrice(ctx context.Context, symbol string) (*pricefeed.Quote, error) {
	if mp.Err != nil {
		return nil, mp.Err
	}
	return mp.Quotes[strings.ToLower(symbol)], nil
}

// Engine wired to in-memory stores and mock collaborators.
//
// TestGroup has the owner and TestMember as plain members, and TestAdmin and the bot itself as admins. The bot starts in private mode.
func EngineTestFixture() *Engine {
	mt := NewMockTransport(TestSelf)
	mt.SetGroup(TestGroup, []Participant{
		{ID: TestOwner},
		{ID: TestAdmin, IsAdmin: true},
		{ID: TestMember},
		{ID: TestSelf, IsAdmin: true},
	})
	cfg := DefaultConfig()
	cfg.ReactionClearGroup = time.Millisecond
	cfg.ReactionClearDirect = time.Millisecond
	return &Engine{
		Logger:    slog.Default(),
		Owner:     identity.NewOwnerConfig(TestOwnerNumber),
		Mode:      NewModeSwitch(ModePrivate),
		Warnings:  countstore.NewMemCountStore(),
		Policies:  flagstore.NewMemFlagStore(),
		Sets:      setstore.NewMemSetStore(),
		Macros:    macrostore.NewRegistry(),
		Transport: mt,
		Media: &MockMedia{
			ViewOnce: &ViewOnceMedia{Type: MediaImage, Data: []byte("jpeg")},
			Image:    []byte("png"),
			Sticker:  []byte("webp"),
		},
		Prices: &MockPrices{Quotes: map[string]*pricefeed.Quote{}},
		Config: cfg,
	}
}

// Sequence of recorded inbound events, for replay in tests.
type EventCapture struct {
	Mode   BotMode              `json:"mode"`
	Events []event.MessageEvent `json:"events"`
}

func MustLoadCapture(capPath string) EventCapture {
	f, err := os.Open(capPath)
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		panic(err)
	}

	var capture EventCapture
	if err := json.Unmarshal(raw, &capture); err != nil {
		panic(err)
	}
	return capture
}

// Test helper which processes all the events from a capture, in order. Intentionally exported, for use in other packages.
//
// Expected user-facing outcomes (permission denials, usage errors) are not returned as errors.
func ProcessCaptureEvents(eng *Engine, capture EventCapture) error {
	ctx := context.Background()
	if capture.Mode != "" {
		eng.Mode.Set(capture.Mode)
	}
	for i := range capture.Events {
		evt := capture.Events[i]
		eng.Logger.Debug("processing captured event", "chat", evt.Ref.Chat, "msg", evt.Ref.ID)
		if err := eng.ProcessMessage(ctx, &evt); err != nil && !isUserError(err) {
			return fmt.Errorf("event %d (%s): %w", i, evt.Ref.ID, err)
		}
	}
	eng.Wait()
	return nil
}
