package identity

import (
	"strings"
	"sync/atomic"
)

const (
	// canonical server for individual accounts
	DefaultUserServer = "s.whatsapp.net"
	GroupServer       = "g.us"
)

// Normalize returns the canonical form of a participant identity: the bare
// number with any device or agent suffix removed, on the default user server.
//
// Alternate-ID domains (eg, "lid") are replaced. Group identities and the
// empty string are returned unchanged.
func Normalize(raw string) string {
	if raw == "" || IsGroup(raw) {
		return raw
	}
	return BareNumber(raw) + "@" + DefaultUserServer
}

// BareNumber extracts the account number from an identity string.
//
// "2347000000000:12@s.whatsapp.net" -> "2347000000000"
func BareNumber(raw string) string {
	user, _, _ := strings.Cut(raw, "@")
	if i := strings.IndexAny(user, ":."); i >= 0 {
		user = user[:i]
	}
	return user
}

func IsGroup(raw string) bool {
	return strings.HasSuffix(raw, "@"+GroupServer)
}

// UserIdentity builds the canonical identity for a bare number, as typed by a user.
func UserIdentity(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), "+") + "@" + DefaultUserServer
}

// OwnerConfig holds the owner's bare number. It is process-wide configuration;
// Set is the only mutation point.
type OwnerConfig struct {
	number atomic.Value
}

func NewOwnerConfig(number string) *OwnerConfig {
	oc := &OwnerConfig{}
	oc.Set(number)
	return oc
}

func (oc *OwnerConfig) Set(number string) {
	oc.number.Store(BareNumber(strings.TrimPrefix(strings.TrimSpace(number), "+")))
}

func (oc *OwnerConfig) Number() string {
	v, _ := oc.number.Load().(string)
	return v
}

// canonical identity of the owner's direct chat
func (oc *OwnerConfig) Identity() string {
	return UserIdentity(oc.Number())
}

// Origin describes the conversation an identity was observed in.
type Origin struct {
	// direct-message conversation (not a group)
	Direct bool
	// message was authored by the bot's own account (mirrored outgoing message)
	FromMe bool
	// conversation identity, for direct messages this is the peer
	Chat string
}

// IsOwner decides whether an identity belongs to the configured owner.
//
// Three independent checks are OR'd: the bare number matches exactly; the raw
// identity contains the owner number (alternate-ID formats may embed the real
// number without normalizing to it); or, in a direct conversation, the message
// is self-authored or the conversation itself is the owner's chat.
func IsOwner(raw string, owner *OwnerConfig, origin Origin) bool {
	num := ""
	if owner != nil {
		num = owner.Number()
	}
	if origin.Direct {
		if origin.FromMe {
			return true
		}
		if num != "" && strings.Contains(origin.Chat, num) {
			return true
		}
	}
	if raw == "" || num == "" {
		return false
	}
	if BareNumber(raw) == num {
		return true
	}
	return strings.Contains(raw, num)
}

// SameAccount compares two identities after normalization.
func SameAccount(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Normalize(a) == Normalize(b)
}
