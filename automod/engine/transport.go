package engine

import (
	"context"

	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/pricefeed"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Resolution tier for profile images, tried in this order.
type ProfileTier string

const (
	ProfileTierImage   ProfileTier = "image"
	ProfileTierDisplay ProfileTier = "display"
)

type Participant struct {
	ID      string
	IsAdmin bool
}

type OutgoingText struct {
	Text     string
	Mentions []string
	// optional message to reply to
	Quote *event.MessageRef
}

// Image or video payload. Exactly one of Data or URL should be set.
type OutgoingMedia struct {
	Data     []byte
	URL      string
	Caption  string
	Mentions []string
}

// Abstract messaging transport. The engine never holds transport session state; every call goes through this interface.
type Transport interface {
	// identity of the bot's own account
	SelfID() string
	GroupParticipants(ctx context.Context, group string) ([]Participant, error)
	// "announcement" mode: only admins can post
	SetGroupBroadcastRestricted(ctx context.Context, group string, restricted bool) error
	RemoveParticipant(ctx context.Context, group, ident string) error
	SetParticipantRole(ctx context.Context, group, ident string, role Role) error
	SendText(ctx context.Context, chat string, msg OutgoingText) error
	SendImage(ctx context.Context, chat string, img OutgoingMedia) error
	SendVideo(ctx context.Context, chat string, vid OutgoingMedia) error
	SendSticker(ctx context.Context, chat string, webp []byte) error
	// empty emoji clears an existing reaction
	SendReaction(ctx context.Context, ref event.MessageRef, emoji string) error
	DeleteMessage(ctx context.Context, ref event.MessageRef) error
	// returns a URL for the profile image, or an error if private or unavailable
	ResolveProfileImage(ctx context.Context, ident string, tier ProfileTier) (string, error)
	// returns the identity of the joined group
	AcceptGroupInvite(ctx context.Context, code string) (string, error)
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type ViewOnceMedia struct {
	Type    MediaType
	Data    []byte
	Caption string
}

// Media download and conversion. Treated as opaque functions over byte buffers.
type Media interface {
	// returns nil (and no error) if the quoted message is not view-once (or plain) image or video content
	ExtractViewOnce(ctx context.Context, quoted *event.QuotedMessage) (*ViewOnceMedia, error)
	// downloads a quoted image
	DownloadImage(ctx context.Context, quoted *event.QuotedMessage) ([]byte, error)
	ConvertImageToSticker(ctx context.Context, img []byte) ([]byte, error)
}

// returns nil (and no error) if the symbol is not known upstream
type PriceLookup interface {
	LookupPrice(ctx context.Context, symbol string) (*pricefeed.Quote, error)
}
