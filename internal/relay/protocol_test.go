package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitControl(t *testing.T) {
	t.Run("action with remainder", func(t *testing.T) {
		action, remainder, ok := splitControl("setPassword:hunter2")
		assert.True(t, ok)
		assert.Equal(t, "setPassword", action)
		assert.Equal(t, "hunter2", remainder)
	})

	t.Run("remainder keeps later colons", func(t *testing.T) {
		action, remainder, ok := splitControl("join:a:b:c")
		assert.True(t, ok)
		assert.Equal(t, "join", action)
		assert.Equal(t, "a:b:c", remainder)
	})

	t.Run("empty remainder still counts", func(t *testing.T) {
		action, remainder, ok := splitControl("setPassword:")
		assert.True(t, ok)
		assert.Equal(t, "setPassword", action)
		assert.Equal(t, "", remainder)
	})

	t.Run("no colon is not control", func(t *testing.T) {
		_, _, ok := splitControl("setPassword")
		assert.False(t, ok)
	})

	t.Run("plain document text is not control", func(t *testing.T) {
		_, _, ok := splitControl("# Title")
		assert.False(t, ok)
	})

	t.Run("leading colon yields empty action", func(t *testing.T) {
		action, remainder, ok := splitControl(":payload")
		assert.True(t, ok)
		assert.Equal(t, "", action)
		assert.Equal(t, "payload", remainder)
	})
}
