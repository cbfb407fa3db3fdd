package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAreOn(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(ModerationFeed, 0))
	assert.True(t, m.Enabled(PostSearch, 7))
	assert.False(t, m.Enabled("unknown", 7))
}

func TestOverridesReplaceDefaults(t *testing.T) {
	m := NewManager("Moderation_Feed=OFF, post_search = 0 ")
	assert.False(t, m.Enabled(ModerationFeed, 1))
	assert.False(t, m.Enabled(PostSearch, 1))
	assert.Equal(t, "off", m.Raw()[ModerationFeed])
}

func TestBooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,g=maybe")
	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "g"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestPercentageRollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", 0))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))
	assert.False(t, m.Enabled("canary", 0), "anonymous callers are outside partial rollouts")

	first := m.Enabled("canary", 42)
	for range 5 {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestMalformedPairsIgnored(t *testing.T) {
	m := NewManager(" bad ,x=on,=on,y=, z = 20% ")
	raw := m.Raw()
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["z"])
	assert.NotContains(t, raw, "y")
	assert.NotContains(t, raw, "bad")
	assert.Len(t, raw, len(Defaults)+2)

	snap := m.Snapshot(123)
	assert.Len(t, snap, len(raw))
	assert.True(t, snap["x"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(ModerationFeed, 1))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
}
