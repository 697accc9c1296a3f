package engine

// Permission tier required by a command or macro.
type Tier int

const (
	// no check at all
	TierOpen Tier = iota
	// owner, or anybody while the bot is in public mode
	TierGeneral
	// group admins and the owner, regardless of mode
	TierAdmin
	// only the owner, regardless of mode
	TierOwner
)

func (t Tier) String() string {
	switch t {
	case TierOpen:
		return "open"
	case TierGeneral:
		return "general"
	case TierAdmin:
		return "admin"
	case TierOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Standing of the actor (and the bot) in the current conversation.
type Actor struct {
	IsOwner      bool
	IsGroupAdmin bool
	BotIsAdmin   bool
}

type Access struct {
	Tier Tier
	// the underlying transport call is rejected unless the bot account is a group admin
	NeedsBotAdmin bool
}

// CanUse is the general gate: owner, or public mode.
func CanUse(mode BotMode, actor Actor) bool {
	return actor.IsOwner || mode == ModePublic
}

// CheckAccess evaluates the access gate for a command tier.
//
// Admin-tier commands skip the mode check entirely, but never the admin-or-owner check. The bot-admin capability is only checked after the actor passes.
func CheckAccess(access Access, mode BotMode, actor Actor) error {
	switch access.Tier {
	case TierOpen:
	case TierGeneral:
		if !CanUse(mode, actor) {
			return ErrPermissionDenied
		}
	case TierAdmin:
		if !actor.IsGroupAdmin && !actor.IsOwner {
			return ErrPermissionDenied
		}
	case TierOwner:
		if !actor.IsOwner {
			return ErrPermissionDenied
		}
	default:
		return ErrPermissionDenied
	}
	if access.NeedsBotAdmin && !actor.BotIsAdmin {
		return ErrCapabilityMissing
	}
	return nil
}
