package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jetgrab/internal/domain"
	"jetgrab/internal/session"
)

func TestCommandArg(t *testing.T) {
	assert.Equal(t, "https://a.com", commandArg("/extract https://a.com", "/extract"))
	assert.Equal(t, "a.com b.com", commandArg("/extract@jetgrab_bot  a.com b.com ", "/extract"))
	assert.Equal(t, "", commandArg("/extract@jetgrab_bot", "/extract"))
	assert.Equal(t, "", commandArg("/extract", "/extract"))
}

func TestFormatState(t *testing.T) {
	st := session.NewState(domain.DefaultPreferences())
	st.Items.SetAll([]domain.ResourceItem{
		domain.NewResourceItem(0, "https://cdn/1.mp4", domain.TypeVideo, ""),
		domain.NewResourceItem(1, "https://cdn/2.mp4", domain.TypeVideo, ""),
		domain.NewResourceItem(2, "https://cdn/3.mp4", domain.TypeVideo, ""),
	})
	st.Status = "found 3"
	st.Failed = []session.Failure{{URL: "https://bad.com", Reason: "timeout"}}

	out := formatState(st, 2)
	assert.Contains(t, out, "1. [video] https://cdn/1.mp4")
	assert.NotContains(t, out, "https://cdn/3.mp4")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "https://bad.com: timeout")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "no history yet", formatHistory(nil, 5))

	out := formatHistory([]domain.HistoryTab{
		{URL: "https://a.com", Pinned: true, UseCount: 3, Label: "A"},
		{URL: "https://b.com", UseCount: 1},
	}, 5)
	assert.Equal(t, "* A (https://a.com) x3\nhttps://b.com x1", out)
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)

	long := strings.Repeat("é", 10) // 20 bytes
	parts = splitMessage(long, 5)
	require.NotEmpty(t, parts)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 5)
		assert.True(t, strings.HasPrefix(long, p) || strings.Contains(long, p))
	}
	assert.Equal(t, long, strings.Join(parts, ""))
}
