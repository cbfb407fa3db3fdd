// Package featureflags evaluates operator-controlled switches such as
// "moderation_feed=on,post_search=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Known flags.
const (
	// ModerationFeed enables the moderator WebSocket feed.
	ModerationFeed = "moderation_feed"
	// PostSearch enables the q= full-text filter on post listings.
	PostSearch = "post_search"
)

// Defaults apply unless FEATURE_FLAGS overrides them.
var Defaults = map[string]string{
	ModerationFeed: "on",
	PostSearch:     "on",
}

// Manager holds the flag values after defaults and overrides are merged.
type Manager struct {
	flags map[string]string
}

// NewManager parses raw as a comma-separated key=value list on top of Defaults.
// Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(Defaults))
	maps.Copy(out, Defaults)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID. Values are on/true/1,
// off/false/0 or N% for a stable per-user rollout; anonymous callers (userID 0)
// only see percentage flags at 100%.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
