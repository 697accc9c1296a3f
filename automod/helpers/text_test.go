package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLinkMessage(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		s    string
		link bool
	}{
		{s: "check this out https://evil.example/x", link: true},
		{s: "HTTP://SHOUTING.EXAMPLE", link: true},
		{s: "visit www.example.com today", link: true},
		{s: "join chat.whatsapp.com/AbCdEf123456 now", link: true},
		{s: "dm me wa.me/15550001111", link: true},
		{s: "t.me/somechannel", link: true},
		{s: "discord.gg/abc", link: true},
		{s: "bit.ly/xyz and tinyurl.com/abc", link: true},
		{s: "just some normal text", link: false},
		{s: "example.com without scheme", link: false},
		{s: "http:// broken", link: false},
		{s: "", link: false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.link, IsLinkMessage(fix.s), fix.s)
	}

	assert.Equal([]string{"https://a.example/1", "www.b.example"}, ExtractLinks("x https://a.example/1 y www.b.example"))
}

func TestExtractInviteCode(t *testing.T) {
	assert := assert.New(t)

	code, err := ExtractInviteCode("https://chat.whatsapp.com/AbCdEf123456")
	assert.NoError(err)
	assert.Equal("AbCdEf123456", code)

	code, err = ExtractInviteCode("  HTTPS://Chat.WhatsApp.com/AbCdEf123456?ref=x#frag ")
	assert.NoError(err)
	assert.Equal("AbCdEf123456", code)

	code, err = ExtractInviteCode("chat.whatsapp.com/AbCdEf123456")
	assert.NoError(err)
	assert.Equal("AbCdEf123456", code)

	_, err = ExtractInviteCode("https://example.com/AbCdEf123456")
	assert.ErrorIs(err, ErrNotInviteLink)

	_, err = ExtractInviteCode("https://chat.whatsapp.com/short")
	assert.ErrorIs(err, ErrBadInviteFormat)

	_, err = ExtractInviteCode("https://chat.whatsapp.com")
	assert.ErrorIs(err, ErrBadInviteFormat)
}

func TestHashOfBytes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", HashOfBytes(nil))
	h := HashOfBytes([]byte("sticker"))
	assert.Equal(16, len(h))
	assert.Equal(h, HashOfBytes([]byte("sticker")))
	assert.NotEqual(h, HashOfBytes([]byte("other")))
}
