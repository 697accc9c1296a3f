package helpers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/spaolacci/murmur3"
)

// returns a fast, compact hash of a byte slice
//
// current implementation uses murmur3, default seed, and hex encoding. used to log sticker fingerprints without dumping raw bytes.
func HashOfBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	val := murmur3.Sum64(b)
	return fmt.Sprintf("%016x", val)
}

// bare URLs, "www." prefixes, and known invite or short-link domains. matched anywhere in the text, case-insensitive.
var linkRegex = regexp.MustCompile(`(?i)(?:https?://\S+|www\.\S+|chat\.whatsapp\.com/\S+|wa\.me/\S+|t\.me/\S+|discord\.gg/\S+|bit\.ly/\S+|tinyurl\.com/\S+)`)

func IsLinkMessage(text string) bool {
	if text == "" {
		return false
	}
	return linkRegex.MatchString(text)
}

func ExtractLinks(text string) []string {
	return linkRegex.FindAllString(text, -1)
}

const inviteHost = "chat.whatsapp.com"

var (
	ErrNotInviteLink   = errors.New("not a group invite link")
	ErrBadInviteFormat = errors.New("malformed group invite link")
)

// extracts the invite code from a group invite link, eg "https://chat.whatsapp.com/AbCdEf123456"
//
// codes are case sensitive; only scheme and host are normalized.
func ExtractInviteCode(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	if !strings.Contains(strings.ToLower(link), inviteHost) {
		return "", ErrNotInviteLink
	}
	if norm, err := purell.NormalizeURLString(link, purell.FlagsSafe|purell.FlagRemoveFragment); err == nil {
		link = norm
	}
	idx := strings.Index(strings.ToLower(link), inviteHost+"/")
	if idx < 0 {
		return "", ErrBadInviteFormat
	}
	code := link[idx+len(inviteHost)+1:]
	if i := strings.IndexAny(code, "?/ \t\n"); i >= 0 {
		code = code[:i]
	}
	if len(code) < 10 {
		return "", ErrBadInviteFormat
	}
	return code, nil
}
