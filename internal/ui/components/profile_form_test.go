package components

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// nameList serves profile names and counts how often they were fetched
type nameList struct {
	names []string
	err   error
	calls int
}

func (l *nameList) Names(context.Context) ([]string, error) {
	l.calls++
	return l.names, l.err
}

type nopCreator struct{}

func (nopCreator) Create(context.Context, []byte) error { return nil }

func newTestForm(l *nameList) *ProfileForm {
	return NewProfileForm(profile.NewBuilder(l, nopCreator{}), theme.DefaultTheme())
}

// save presses Ctrl+S and returns the message the form emits, if any
func save(f *ProfileForm) tea.Msg {
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestProfileForm_EmptyNameBlocksSave(t *testing.T) {
	f := newTestForm(&nameList{})

	if f.NameState() != profile.NameEmpty {
		t.Fatalf("NameState() = %v, want NameEmpty", f.NameState())
	}
	if msg := save(f); msg != nil {
		t.Fatalf("save with empty name emitted %#v", msg)
	}
	if !strings.Contains(f.View(), "name can't be empty") {
		t.Error("expected empty-name feedback in view")
	}
}

func TestProfileForm_DuplicateNameBlocksSaveUntilFixed(t *testing.T) {
	l := &nameList{names: []string{"lab"}}
	f := newTestForm(l)

	f.Update(key("lab"))
	if f.NameState() != profile.NameDuplicate {
		t.Fatalf("NameState() = %v, want NameDuplicate", f.NameState())
	}
	if !strings.Contains(f.View(), "name already used") {
		t.Error("expected duplicate-name feedback in view")
	}
	if msg := save(f); msg != nil {
		t.Fatalf("save with duplicate name emitted %#v", msg)
	}

	f.Update(key("2"))
	if f.NameState() != profile.NameValid {
		t.Fatalf("NameState() = %v, want NameValid", f.NameState())
	}
	submit, ok := save(f).(ProfileSubmitMsg)
	if !ok {
		t.Fatal("expected ProfileSubmitMsg once the name is unique")
	}
	if submit.Fields.Name != "lab2" {
		t.Errorf("submitted name = %q, want lab2", submit.Fields.Name)
	}
}

func TestProfileForm_RefetchesNamesOnEveryCheck(t *testing.T) {
	l := &nameList{names: []string{"lab"}}
	f := newTestForm(l)

	before := l.calls
	f.Update(key("c"))
	f.Update(key("o"))
	if got := l.calls - before; got != 2 {
		t.Errorf("names fetched %d times for 2 keystrokes, want 2", got)
	}

	// Another client stores "co" before this form is saved
	l.names = append(l.names, "co")
	if msg := save(f); msg != nil {
		t.Fatalf("save emitted %#v after the name was taken", msg)
	}
	if f.NameState() != profile.NameDuplicate {
		t.Errorf("NameState() = %v, want NameDuplicate", f.NameState())
	}
}

func TestProfileForm_ListingErrorClearsOnRecovery(t *testing.T) {
	l := &nameList{err: errors.New("store offline")}
	f := newTestForm(l)

	f.Update(key("a"))
	if !strings.Contains(f.View(), "store offline") {
		t.Fatal("expected the listing failure in view")
	}
	if msg := save(f); msg != nil {
		t.Fatalf("save emitted %#v while names could not be listed", msg)
	}

	l.err = nil
	f.Update(key("b"))
	if strings.Contains(f.View(), "store offline") {
		t.Error("listing failure still shown after a successful check")
	}
	if f.NameState() != profile.NameValid {
		t.Errorf("NameState() = %v, want NameValid", f.NameState())
	}
}
