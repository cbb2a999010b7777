package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazysnmp/internal/session"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

func submitted(t *testing.T, cmd tea.Cmd) OIDSubmitMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(OIDSubmitMsg)
	if !ok {
		t.Fatalf("expected OIDSubmitMsg, got %T", msg)
	}
	return msg
}

func TestOIDPrompt_SubmitsSeededTarget(t *testing.T) {
	p := NewOIDPrompt(theme.DefaultTheme())
	p.Open(session.OpGet, "1.3.6.1.2.1.1.1.0", "")

	_, cmd := p.Update(key("enter"))
	msg := submitted(t, cmd)
	if msg.Kind != session.OpGet || msg.OID != "1.3.6.1.2.1.1.1.0" {
		t.Errorf("got %+v", msg)
	}
}

func TestOIDPrompt_HistoryRecall(t *testing.T) {
	p := NewOIDPrompt(theme.DefaultTheme())
	p.Open(session.OpBulkWalk, "", "")
	p.SetHistory([]string{"1.3.6.1.2.1.2", "1.3.6.1.2.1.1"})

	p.Update(key("up"))
	p.Update(key("up"))
	p.Update(key("up")) // clamps at the oldest
	_, cmd := p.Update(key("enter"))
	if got := submitted(t, cmd).OID; got != "1.3.6.1.2.1.1" {
		t.Errorf("OID = %q, want oldest history entry", got)
	}

	p.Open(session.OpBulkWalk, "", "")
	p.Update(key("up"))
	p.Update(key("down"))
	_, cmd = p.Update(key("enter"))
	if got := submitted(t, cmd).OID; got != "" {
		t.Errorf("OID = %q, want empty after recalling back past the newest", got)
	}
}

func TestOIDPrompt_SetWalksThroughTypeAndValue(t *testing.T) {
	p := NewOIDPrompt(theme.DefaultTheme())
	p.Open(session.OpSet, "1.3.6.1.2.1.1.5.0", "Integer")

	// enter on the OID moves on to the type selector, then the value
	if _, cmd := p.Update(key("enter")); cmd != nil {
		if _, isSubmit := cmd().(OIDSubmitMsg); isSubmit {
			t.Fatal("enter on the OID field submitted a set")
		}
	}
	p.Update(key("left")) // Integer -> OctetString
	p.Update(key("enter"))
	for _, r := range "core-1" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := p.Update(key("enter"))
	msg := submitted(t, cmd)
	if msg.Type != "OctetString" || msg.Value != "core-1" || msg.OID != "1.3.6.1.2.1.1.5.0" {
		t.Errorf("got %+v", msg)
	}
	if !strings.Contains(p.View(), "SET") {
		t.Error("expected the operation label in the view")
	}
}

func TestOIDPrompt_EscCloses(t *testing.T) {
	p := NewOIDPrompt(theme.DefaultTheme())
	p.Open(session.OpGetNext, "", "")

	_, cmd := p.Update(key("esc"))
	if _, ok := cmd().(CloseOIDPromptMsg); !ok {
		t.Error("expected CloseOIDPromptMsg")
	}
}
