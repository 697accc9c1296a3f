// Registry binding sticker artifacts to symbolic macro commands.
//
// The registry is global (shared by every group and direct chat). Each symbolic name holds exactly one criterion; registering a name again replaces its criterion but keeps its original position in iteration order.
package macrostore

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"
)

const (
	MacroKick    = "kick"
	MacroOpen    = "open"
	MacroLock    = "lock"
	MacroVV      = "vv"
	MacroHidetag = "hidetag"
	MacroPP      = "pp"
	MacroSticker = "sticker"
)

// fixed set of symbolic names a sticker can be bound to
var MacroNames = []string{MacroKick, MacroOpen, MacroLock, MacroVV, MacroHidetag, MacroPP, MacroSticker}

func IsMacroName(name string) bool {
	return slices.Contains(MacroNames, name)
}

type CriterionKind int

const (
	// matches any incoming sticker
	Wildcard CriterionKind = iota
	// matches stickers with an identical fingerprint
	Fingerprint
	// like Fingerprint, but marks the macro as an image-to-sticker converter
	ConverterFingerprint
)

func (k CriterionKind) String() string {
	switch k {
	case Wildcard:
		return "wildcard"
	case Fingerprint:
		return "fingerprint"
	case ConverterFingerprint:
		return "converter"
	default:
		return fmt.Sprintf("CriterionKind(%d)", int(k))
	}
}

type Criterion struct {
	Kind        CriterionKind
	Fingerprint []byte
}

func (c Criterion) Matches(fingerprint []byte) bool {
	switch c.Kind {
	case Wildcard:
		return true
	case Fingerprint, ConverterFingerprint:
		return bytes.Equal(c.Fingerprint, fingerprint)
	default:
		return false
	}
}

// Derives the criterion for a registration.
//
// Converter registrations always keep their fingerprint, even if empty. Other names fall back to a wildcard when the sticker carried no fingerprint.
func NewCriterion(fingerprint []byte, converter bool) Criterion {
	if converter {
		return Criterion{Kind: ConverterFingerprint, Fingerprint: bytes.Clone(fingerprint)}
	}
	if len(fingerprint) == 0 {
		return Criterion{Kind: Wildcard}
	}
	return Criterion{Kind: Fingerprint, Fingerprint: bytes.Clone(fingerprint)}
}

type Binding struct {
	Name      string
	Criterion Criterion
}

type Registry struct {
	mu       sync.RWMutex
	bindings []Binding
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register unconditionally overwrites any existing binding for `name`.
//
// The "sticker" name is always registered as a converter, regardless of `converter`.
func (r *Registry) Register(name string, fingerprint []byte, converter bool) (Criterion, error) {
	name = strings.ToLower(name)
	if !IsMacroName(name) {
		return Criterion{}, fmt.Errorf("unsupported macro name: %q", name)
	}
	crit := NewCriterion(fingerprint, converter || name == MacroSticker)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bindings {
		if r.bindings[i].Name == name {
			r.bindings[i].Criterion = crit
			return crit, nil
		}
	}
	r.bindings = append(r.bindings, Binding{Name: name, Criterion: crit})
	return crit, nil
}

// Match returns the first registered name (in insertion order) whose criterion matches the incoming fingerprint.
func (r *Registry) Match(fingerprint []byte) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bindings {
		if b.Criterion.Matches(fingerprint) {
			return b.Name, true
		}
	}
	return "", false
}

func (r *Registry) Lookup(name string) (Criterion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bindings {
		if b.Name == name {
			return b.Criterion, true
		}
	}
	return Criterion{}, false
}

// snapshot of current bindings, in insertion order
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.bindings)
}
