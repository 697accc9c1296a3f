package macrostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryMatch(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	fpA := []byte{0x01, 0x02}
	fpB := []byte{0x03, 0x04}

	_, ok := r.Match(fpA)
	assert.False(ok)

	crit, err := r.Register("lock", fpA, false)
	assert.NoError(err)
	assert.Equal(Fingerprint, crit.Kind)

	name, ok := r.Match(fpA)
	assert.True(ok)
	assert.Equal(MacroLock, name)

	_, ok = r.Match(fpB)
	assert.False(ok)

	// last write wins, and keeps position
	_, err = r.Register("kick", fpB, false)
	assert.NoError(err)
	_, err = r.Register("LOCK", fpB, false)
	assert.NoError(err)
	name, ok = r.Match(fpB)
	assert.True(ok)
	assert.Equal(MacroLock, name)
	_, ok = r.Match(fpA)
	assert.False(ok)

	b := r.Bindings()
	assert.Equal(2, len(b))
	assert.Equal(MacroLock, b[0].Name)
	assert.Equal(MacroKick, b[1].Name)
}

func TestRegistryWildcard(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	crit, err := r.Register("hidetag", nil, false)
	assert.NoError(err)
	assert.Equal(Wildcard, crit.Kind)

	name, ok := r.Match([]byte{0xff})
	assert.True(ok)
	assert.Equal(MacroHidetag, name)
	name, ok = r.Match(nil)
	assert.True(ok)
	assert.Equal(MacroHidetag, name)

	// first match wins: the wildcard was inserted first
	_, err = r.Register("pp", []byte{0xff}, false)
	assert.NoError(err)
	name, ok = r.Match([]byte{0xff})
	assert.True(ok)
	assert.Equal(MacroHidetag, name)
}

func TestRegistryConverter(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	crit, err := r.Register("sticker", []byte{0x09}, false)
	assert.NoError(err)
	assert.Equal(ConverterFingerprint, crit.Kind)

	name, ok := r.Match([]byte{0x09})
	assert.True(ok)
	assert.Equal(MacroSticker, name)

	// a converter without fingerprint only matches stickers without one
	crit, err = r.Register("sticker", nil, true)
	assert.NoError(err)
	assert.Equal(ConverterFingerprint, crit.Kind)
	_, ok = r.Match([]byte{0x09})
	assert.False(ok)
	_, ok = r.Match(nil)
	assert.True(ok)
}

func TestRegistryRejectsUnknownNames(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	_, err := r.Register("ban", []byte{0x01}, false)
	assert.Error(err)
	assert.Empty(r.Bindings())
	assert.True(IsMacroName("vv"))
	assert.False(IsMacroName("warn"))
}
