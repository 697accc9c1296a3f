package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/pricefeed"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const CommandPrefix = "."

const (
	emojiPending = "⏳"
	emojiDone    = "✅"
)

const (
	textUnknownCommand   = "❌ *Unknown Command!*\n\nUse *.menu* to see available commands"
	textAdminsOnly       = "❌ This command is for admins only!"
	textOwnerModeOnly    = "❌ Only the bot owner can change bot mode!"
	textNowPublic        = "✅ Bot is now *PUBLIC*\n\nAll users can now use bot commands!"
	textNowPrivate       = "🔐 Bot is now *PRIVATE*\n\nOnly the owner can use bot commands!"
	textLiveUsage        = "❌ Usage: .live [symbol]\n\nExamples:\n.live btc\n.live eth\n.live sol\n.live coai"
	textSetStickerUsage  = "❌ Reply to a sticker with *.setsticker [command]*\n\nSupported: kick, open, lock, vv, hidetag, pp, sticker"
	textSetStickerUsageD = "❌ Usage: Reply to a sticker with *.setsticker [command]*\n\nSupported commands: kick, open, lock, vv, hidetag, pp, sticker"
	textSetStickerNames  = "❌ Supported commands: kick, open, lock, vv, hidetag, pp, sticker"
	textConverterSet     = "✅ Sticker set to *STICKER CONVERTER*!\n\nNow reply with this sticker to an image to convert it to a sticker!"
	textStickerNoReply   = "❌ Reply to an image with *.sticker*"
	textStickerNotImage  = "❌ Reply to an image only!"
	textStickerFailed    = "❌ Failed to convert image to sticker"
	textVVNoReply        = "❌ Reply to a view-once photo or video with *.vv*"
	textVVNotViewOnce    = "❌ That message is not a view-once photo or video."
	textVVDownloadFailed = "❌ Failed to download media"
	textPPNoReply        = "❌ Reply to a user's message to get their profile picture"
	textPPNoTarget       = "❌ Could not identify the user"
	textPPUnavailable    = "❌ Profile picture is private or unavailable"
	textKickNoReply      = "❌ Reply to a message to kick that user"
	textWarnNoReply      = "❌ Reply to a user's message to warn them"
	textPromoteNoReply   = "❌ Reply to a user's message to promote them"
	textDemoteNoReply    = "❌ Reply to a user's message to demote them"
	textPromoteFailed    = "❌ Failed to promote user"
	textDemoteFailed     = "❌ Failed to demote user"
	textBlockNoReply     = "❌ Reply to a user's message to block them"
	textUnblockUsage     = "❌ Usage: .unblock [number]\n\nExample: .unblock 1234567890"
	textUnblockNotFound  = "❌ User not found in blocked list"
	textAntilinkUsage    = "❌ Usage: .antilink on/off\n\nExample:\n.antilink on - Enable link protection\n.antilink off - Disable link protection"
	textDeleteNoReply    = "❌ Reply to a message to delete it"
	textDeleteFailedDM   = "❌ Failed to delete message"
	textJoinUsage        = "❌ Usage: .join [WhatsApp Group Link]\n\nExample:\n.join https://chat.whatsapp.com/ABCDEF123456"
	textJoinInvalidLink  = "❌ Invalid WhatsApp group link!"
	textJoinBadFormat    = "❌ Invalid group link format!"
	textJoinSuccess      = "✅ Successfully joined the group!"
	textJoinAlready      = "❌ You are already in this group!"
	textJoinExpired      = "❌ This invite link has expired!"
	textJoinFailed       = "❌ Failed to join group.\n\nPossible reasons:\n• Invalid link\n• Already in group\n• Link expired"
	textNoCollaborator   = "❌ This feature is not available right now"
)

// capability notices, per command
var capabilityNotices = map[string]string{
	"lock":    "❌ Bot needs to be admin to lock the group!",
	"open":    "❌ Bot needs to be admin to open the group!",
	"kick":    "❌ Bot needs to be admin to kick users!",
	"promote": "❌ Bot needs to be admin to promote users!",
	"demote":  "❌ Bot needs to be admin to demote users!",
}

// "@number" mention token for an identity
func mentionTag(ident string) string {
	return "@" + identity.BareNumber(ident)
}

func menuText(mode BotMode) string {
	return fmt.Sprintf(`
╔══════════════════════════════════════╗
║  ⚔️⚔️⚔️  KAIDO BOT  ⚔️⚔️⚔️           ║
║   *Built by James The Goat*         ║
╚══════════════════════════════════════╝

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
👥  GROUP MANAGEMENT
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

🔒 .lock ····· Lock group
🔓 .open ····· Unlock group
👢 .kick ····· Kick user (reply)
⚠️  .warn ····· Warn user (2 = kick)
⬆️  .promote ··· Make admin (reply)
⬇️  .demote ··· Remove admin (reply)
🚫 .block ····· Block user (reply)
✅ .unblock ··· Unblock user

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
📢  CHAT MANAGEMENT
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

🔗 .antilink on/off ··· Link filter
📢 .tagall ····· Tag all (visible)
👻 .hidetag ··· Tag all (hidden)

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
🎨  STICKER COMMANDS
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

🖼️  .sticker ··· Convert image to sticker
🎪 .setsticker · Set custom sticker cmd

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
🛠️  UTILITY TOOLS
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

👁️  .vv ······· Save view-once (reply)
👤 .get pp ···· Get profile pic (reply)
📊 .ping ····· Bot status
🔗 .join ····· Join group (link)
🗑️  .delete ···· Delete message (reply)

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
📈  CRYPTO
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

💹 .live [coin] ··· Live crypto price
   Example: .live btc, .live eth

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
⚙️  BOT SETTINGS (Owner Only)
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

🔓 .public ····· Allow others to use bot
🔐 .private ···· Only owner can use bot
📋 .menu ····· Show this menu
ℹ️  .help ····· Bot information

╔══════════════════════════════════════╗
║  ⚠️  USE RESPONSIBLY  ⚠️             ║
║  Mode: %-8s ║
╚══════════════════════════════════════╝
`, mode.Upper())
}

func helpText(mode BotMode) string {
	return `ℹ️ *BOT INFORMATION*

🤖 KAIDO Bot
Built by: Everybody Hates James
Version: 2.0

━━━━━━━━━━━━━━━━━━━━━━━━━━

📋 *Features:*
• Group management (lock/unlock/kick)
• Member tagging (hidden & visible)
• View-once media saving
• Profile picture extraction
• Custom sticker commands
• Auto-link moderation
• Warning system (2 strikes = kick)
• Live crypto prices
• Public/Private mode

━━━━━━━━━━━━━━━━━━━━━━━━━━

💡 *How to Use:*
1. Type .menu for all commands
2. Reply to messages for actions
3. Use stickers for quick commands
4. .public/.private to toggle mode

━━━━━━━━━━━━━━━━━━━━━━━━━━

Current Mode: ` + mode.Upper() + `

⚠️ *Important:*
Use responsibly!`
}

// greeting sent to the bot's own chat when the transport connects
func ConnectedText(mode BotMode) string {
	return `✅ *CONNECTION SUCCESSFUL*

🤖 KAIDO Bot is online!
Built by: Everybody Hates James

━━━━━━━━━━━━━━━━━━━━━━━━━━

📋 *Quick Start:*
.menu - View all commands
.help - Bot information
.ping - Check status
.public/.private - Toggle mode

━━━━━━━━━━━━━━━━━━━━━━━━━━

Current Mode: ` + mode.Upper() + `
Ready to manage! 🚀`
}

func pongText(latency time.Duration, mode BotMode) string {
	return fmt.Sprintf("📊 *PONG!*\n✅ Bot is online and responding\n⚡ Latency: %dms\n🔧 Mode: %s", latency.Milliseconds(), mode.Upper())
}

func priceNotFoundText(symbol string) string {
	upper := strings.ToUpper(symbol)
	return fmt.Sprintf(`❌ Could not find data for *%s*

💡 *Tips:*
• Check if the symbol is correct
• The coin might not be listed on CoinGecko
• Try popular coins like: BTC, ETH, SOL, TON, BNB, ADA, XRP, DOGE, MATIC, DOT

🔍 *How to add new coins:*
If you know the CoinGecko ID for %s, contact the bot owner to add it.

Example: Search "coingecko %s" to find the correct ID.`, upper, upper, upper)
}

var enPrinter = message.NewPrinter(language.English)

func formatUSD(v float64, minFrac, maxFrac int) string {
	return enPrinter.Sprint(number.Decimal(v, number.MinFractionDigits(minFrac), number.MaxFractionDigits(maxFrac)))
}

func priceText(q *pricefeed.Quote, now time.Time) string {
	changeEmoji := "📈"
	changeSign := "+"
	if q.Change24h < 0 {
		changeEmoji = "📉"
		changeSign = ""
	}
	return fmt.Sprintf(`💹 *%s* Live Price

💰 *Price:* $%s
%s *24h Change:* %s%.2f%%

📊 *24h Stats:*
📦 Volume: $%s
💎 Market Cap: $%s

⏰ Updated: %s
📡 Source: CoinGecko`,
		q.Symbol,
		formatUSD(q.Price, 2, 8),
		changeEmoji, changeSign, q.Change24h,
		formatUSD(q.Volume, 0, 0),
		formatUSD(q.MarketCap, 0, 0),
		now.Format("3:04:05 PM"),
	)
}

func tagAllText(members []string) string {
	var sb strings.Builder
	sb.WriteString("👥 *Group Members:*\n\n")
	for _, m := range members {
		sb.WriteString(mentionTag(m))
		sb.WriteString("\n")
	}
	return sb.String()
}

func warnText(target string, count int) string {
	return fmt.Sprintf("⚠️ *Warning %d/%d* - %s\n\n⛔ One more warning = KICK!", count, WarnThreshold, mentionTag(target))
}

func warnKickedText(target string) string {
	return fmt.Sprintf("⚠️ *%s* received %d warnings and has been kicked!", mentionTag(target), WarnThreshold)
}

func warnNoCapabilityText(target string) string {
	return fmt.Sprintf("⚠️ *%s* has %d warnings but bot is not admin to kick!", mentionTag(target), WarnThreshold)
}

func antilinkKickText(target string) string {
	return fmt.Sprintf("🚫 *%s kicked for sending link*", mentionTag(target))
}

func antilinkToggleText(on, botIsAdmin bool) string {
	if !on {
		return "🔗 Antilink ❌ *DISABLED*\n\nUsers can send links freely."
	}
	ready := "⚠️ Make bot admin for full functionality!"
	if botIsAdmin {
		ready = "✅ Bot is admin - ready to enforce!"
	}
	return "🔗 Antilink ✅ *ENABLED*\n\n⚠️ Non-admins who send links will have their message deleted and be kicked!\n\n" + ready
}

func profileCaption(target string) string {
	return "Profile: " + mentionTag(target)
}
