package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"

	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

func TestRender(t *testing.T) {
	sections := []Section{
		{Title: "Session", Bindings: []key.Binding{
			key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "Get OID")),
			key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Hidden"), key.WithDisabled()),
		}},
	}

	out := Render(100, 40, theme.DefaultTheme(), sections)

	for _, want := range []string{"Keyboard Shortcuts", "Session", "Get OID"} {
		if !strings.Contains(out, want) {
			t.Errorf("help view missing %q", want)
		}
	}
	if strings.Contains(out, "Hidden") {
		t.Error("disabled binding should not be listed")
	}
}
