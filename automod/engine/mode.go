package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

type BotMode string

const (
	// only the owner can use general commands
	ModePrivate BotMode = "private"
	// anybody can use general commands
	ModePublic BotMode = "public"
)

func ParseBotMode(s string) (BotMode, error) {
	switch BotMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePrivate:
		return ModePrivate, nil
	case ModePublic:
		return ModePublic, nil
	default:
		return "", fmt.Errorf("unknown bot mode: %q", s)
	}
}

func (m BotMode) Upper() string {
	return strings.ToUpper(string(m))
}

// Process-wide bot mode, safe for concurrent use.
type ModeSwitch struct {
	v atomic.Value
}

func NewModeSwitch(m BotMode) *ModeSwitch {
	ms := &ModeSwitch{}
	ms.Set(m)
	return ms
}

func (ms *ModeSwitch) Get() BotMode {
	m, ok := ms.v.Load().(BotMode)
	if !ok {
		return ModePrivate
	}
	return m
}

func (ms *ModeSwitch) Set(m BotMode) {
	ms.v.Store(m)
}
