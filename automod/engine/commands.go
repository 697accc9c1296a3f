package engine

import (
	"errors"
	"fmt"
)

type commandFunc func(c *MessageContext, args []string) error

type command struct {
	Access Access
	// explicit denial notice; empty means silent denial
	Denied string
	// send the denial notice even to actors who fail the general gate
	AlwaysExplain bool
	// a denied actor sees the same response as for an unknown command
	DenyAsUnknown bool
	Run           commandFunc
}

var (
	general  = Access{Tier: TierGeneral}
	adminCmd = Access{Tier: TierAdmin}
	adminCap = Access{Tier: TierAdmin, NeedsBotAdmin: true}
	ownerCmd = Access{Tier: TierOwner}
)

// commands available in group conversations
var groupCommands = map[string]command{
	"menu":       {Access: general, Run: cmdMenu},
	"help":       {Access: general, Run: cmdHelp},
	"ping":       {Access: general, Run: cmdPing},
	"live":       {Access: general, Run: cmdLive},
	"public":     {Access: ownerCmd, Denied: textOwnerModeOnly, AlwaysExplain: true, Run: cmdPublic},
	"private":    {Access: ownerCmd, Denied: textOwnerModeOnly, AlwaysExplain: true, Run: cmdPrivate},
	"tagall":     {Access: general, Run: cmdTagAll},
	"hidetag":    {Access: general, Run: cmdHidetag},
	"setsticker": {Access: general, Run: cmdSetSticker},
	"sticker":    {Access: general, Run: cmdSticker},
	"vv":         {Access: general, Run: cmdViewOnce},
	"get pp":     {Access: general, Run: cmdProfilePicture},
	"block":      {Access: general, Run: cmdBlock},
	"unblock":    {Access: general, Run: cmdUnblock},
	"lock":       {Access: adminCap, Denied: textAdminsOnly, Run: cmdLock},
	"open":       {Access: adminCap, Denied: textAdminsOnly, Run: cmdOpen},
	"kick":       {Access: adminCap, Denied: textAdminsOnly, Run: cmdKick},
	"promote":    {Access: adminCap, Denied: textAdminsOnly, Run: cmdPromote},
	"demote":     {Access: adminCap, Denied: textAdminsOnly, Run: cmdDemote},
	"warn":       {Access: adminCmd, Denied: textAdminsOnly, Run: cmdWarn},
	"antilink":   {Access: adminCmd, Denied: textAdminsOnly, Run: cmdAntilink},
	"delete":     {Access: adminCmd, Denied: textAdminsOnly, Run: cmdDeleteGroup},
}

// commands available in direct conversations
var directCommands = map[string]command{
	"menu":       {Access: Access{Tier: TierOpen}, Run: cmdMenu},
	"help":       {Access: Access{Tier: TierOpen}, Run: cmdHelp},
	"ping":       {Access: Access{Tier: TierOpen}, Run: cmdPing},
	"public":     {Access: ownerCmd, Denied: textOwnerModeOnly, AlwaysExplain: true, Run: cmdPublic},
	"private":    {Access: ownerCmd, Denied: textOwnerModeOnly, AlwaysExplain: true, Run: cmdPrivate},
	"live":       {Access: general, Run: cmdLive},
	"vv":         {Access: general, Run: cmdViewOnce},
	"sticker":    {Access: general, Run: cmdSticker},
	"delete":     {Access: general, Run: cmdDeleteDirect},
	"setsticker": {Access: ownerCmd, DenyAsUnknown: true, Run: cmdSetSticker},
	"join":       {Access: ownerCmd, DenyAsUnknown: true, Run: cmdJoin},
}

// IsKnownCommand reports whether a command name is handled in group or direct context.
func IsKnownCommand(name string, group bool) bool {
	if group {
		_, ok := groupCommands[name]
		return ok
	}
	_, ok := directCommands[name]
	return ok
}

func (eng *Engine) dispatchCommand(c *MessageContext, name string, args []string) error {
	table := groupCommands
	if !c.IsGroup {
		table = directCommands
	}

	cmd, ok := table[name]
	if ok {
		err := CheckAccess(cmd.Access, c.Mode(), c.Actor())
		switch {
		case err == nil:
			err = cmd.Run(c, args)
			commandCount.WithLabelValues(name, errorKind(err)).Inc()
			return err
		case errors.Is(err, ErrCapabilityMissing):
			commandCount.WithLabelValues(name, errorKind(err)).Inc()
			if notice, ok := capabilityNotices[name]; ok {
				if serr := c.Reply(notice); serr != nil {
					return serr
				}
			}
			return fmt.Errorf("%s: %w", name, err)
		case !cmd.DenyAsUnknown:
			commandCount.WithLabelValues(name, errorKind(err)).Inc()
			if cmd.Denied != "" && (cmd.AlwaysExplain || CanUse(c.Mode(), c.Actor())) {
				if serr := c.Reply(cmd.Denied); serr != nil {
					return serr
				}
			}
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	// unknown commands only get a response from actors who could otherwise use the bot here; everybody else gets silence
	if !c.mayExplainUnknown() {
		return fmt.Errorf("%q: %w", name, ErrPermissionDenied)
	}
	commandCount.WithLabelValues("unknown", "unknown").Inc()
	if err := c.Reply(textUnknownCommand); err != nil {
		return err
	}
	return fmt.Errorf("%q: %w", name, ErrUnknownCommand)
}

func (c *MessageContext) mayExplainUnknown() bool {
	if !CanUse(c.Mode(), c.Actor()) {
		return false
	}
	if c.IsGroup {
		return c.IsGroupAdmin || c.IsOwner
	}
	return true
}
