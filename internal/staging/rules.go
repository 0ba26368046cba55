package staging

import (
	"strings"
)

const (
	DefaultTriggerPrefix = "blog_"
)

// DefaultExtensions are the audio formats the sync client delivers.
var DefaultExtensions = []string{".wav", ".mp3", ".m4a"}

// Rules decides which filenames are work items.
type Rules struct {
	Prefix     string
	Extensions []string
}

// DefaultRules matches blog_*.{wav,mp3,m4a}.
func DefaultRules() Rules {
	return Rules{
		Prefix:     DefaultTriggerPrefix,
		Extensions: append([]string(nil), DefaultExtensions...),
	}
}

// IsTemp reports names a sync client uses while a transfer is in flight.
func IsTemp(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.Contains(name, "~") ||
		strings.HasSuffix(strings.ToLower(name), ".tmp")
}

// Matches applies the case-insensitive prefix and extension test.
func (r Rules) Matches(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, strings.ToLower(r.Prefix)) {
		return false
	}
	return r.HasSupportedExtension(lower)
}

// HasSupportedExtension checks only the extension part of the rules.
func (r Rules) HasSupportedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range r.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// Classify maps a final filename to the state it enters first.
func (r Rules) Classify(name string) State {
	switch {
	case IsTemp(name):
		return StateSyncing
	case r.Matches(name):
		return StateCandidate
	default:
		return StateDiscarded
	}
}
