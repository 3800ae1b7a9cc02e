package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"jetgrab/internal/domain"
	"jetgrab/internal/session"
)

const (
	// Telegram rejects longer messages.
	maxMessageLen = 4096
	listLimit     = 30
)

const helpText = `Send me one or more page links (separated by spaces, commas or semicolons) and I'll list the videos on them.

/extract <url> - list every resource type
/retry - retry the urls that failed
/package - download the selected items as a zip
/history - recently used pages
/help - this message`

// commandArg strips the leading command (and an optional @botname).
func commandArg(text, cmd string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, cmd) {
		return text
	}
	rest := text[len(cmd):]
	if strings.HasPrefix(rest, "@") {
		if i := strings.IndexAny(rest, " \t\n"); i >= 0 {
			rest = rest[i:]
		} else {
			rest = ""
		}
	}
	return strings.TrimSpace(rest)
}

func formatState(st session.State, limit int) string {
	var b strings.Builder
	b.WriteString(st.Status)
	if st.PageTitle != "" {
		fmt.Fprintf(&b, "\n%s", st.PageTitle)
	}

	visible := st.Visible()
	for i, it := range visible {
		if i == limit {
			fmt.Fprintf(&b, "\n... and %d more", len(visible)-limit)
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, it.Type, it.URL)
	}

	if len(st.Failed) > 0 {
		fmt.Fprintf(&b, "\n\nFailed (%d), /retry to try again:", len(st.Failed))
		for _, f := range st.Failed {
			fmt.Fprintf(&b, "\n- %s: %s", f.URL, f.Reason)
		}
	}
	return b.String()
}

func formatHistory(tabs []domain.HistoryTab, limit int) string {
	if len(tabs) == 0 {
		return "no history yet"
	}
	var b strings.Builder
	for i, t := range tabs {
		if i == limit {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		pin := ""
		if t.Pinned {
			pin = "* "
		}
		name := t.URL
		if t.Label != "" {
			name = t.Label + " (" + t.URL + ")"
		}
		fmt.Fprintf(&b, "%s%s x%d", pin, name, t.UseCount)
	}
	return b.String()
}

// splitMessage cuts text into chunks of at most limit bytes, preferring
// line boundaries and never splitting a rune.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	var out []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
