package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/status"
)

func testEntries() []*Entry {
	return []*Entry{
		{SessionName: "aoe_api_abcd1234", ID: "abcd1234-0000", Title: "api", Tool: "claude", Sandboxed: true, Status: status.Running},
		{SessionName: "aoe_orphan_ffff0000", Status: status.Idle},
	}
}

func TestSessionItemMethods(t *testing.T) {
	entries := testEntries()
	item := sessionItem{entry: entries[0]}

	t.Run("Title", func(t *testing.T) {
		if got := item.Title(); got != "api" {
			t.Errorf("Title() = %q, want %q", got, "api")
		}
	})

	t.Run("Title falls back to session name", func(t *testing.T) {
		if got := (sessionItem{entry: entries[1]}).Title(); got != "aoe_orphan_ffff0000" {
			t.Errorf("Title() = %q", got)
		}
	})

	t.Run("FilterValue", func(t *testing.T) {
		got := item.FilterValue()
		if !strings.Contains(got, "api") || !strings.Contains(got, "aoe_api_abcd1234") {
			t.Errorf("FilterValue() = %q", got)
		}
	})

	t.Run("Description", func(t *testing.T) {
		desc := item.Description()
		for _, want := range []string{"running", "claude", "sandbox", "aoe_api_abcd1234"} {
			if !strings.Contains(desc, want) {
				t.Errorf("Description() = %q, missing %q", desc, want)
			}
		}
	})

	t.Run("Description without record", func(t *testing.T) {
		desc := sessionItem{entry: entries[1]}.Description()
		if !strings.Contains(desc, "unknown") || !strings.Contains(desc, "host") {
			t.Errorf("Description() = %q", desc)
		}
	})
}

func TestModelKeyHandling(t *testing.T) {
	t.Run("attach with enter", func(t *testing.T) {
		m := NewPicker(testEntries())
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := newModel.(Model)

		if model.result.Action != ActionAttach {
			t.Errorf("Action = %v, want ActionAttach", model.result.Action)
		}
		if model.result.Entry == nil || model.result.Entry.SessionName != "aoe_api_abcd1234" {
			t.Errorf("Entry = %+v", model.result.Entry)
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("kill with d", func(t *testing.T) {
		m := NewPicker(testEntries())
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
		model := newModel.(Model)

		if model.result.Action != ActionKill {
			t.Errorf("Action = %v, want ActionKill", model.result.Action)
		}
	})

	t.Run("navigation then attach", func(t *testing.T) {
		m := NewPicker(testEntries())
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		newModel, _ = newModel.(Model).Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := newModel.(Model)

		if model.result.Entry == nil || model.result.Entry.SessionName != "aoe_orphan_ffff0000" {
			t.Errorf("Entry = %+v", model.result.Entry)
		}
	})

	t.Run("quit with q", func(t *testing.T) {
		m := NewPicker(testEntries())
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
		if !model.quitting {
			t.Error("Model should be quitting")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("quit with esc", func(t *testing.T) {
		m := NewPicker(testEntries())
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if newModel.(Model).result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", newModel.(Model).result.Action)
		}
	})

	t.Run("enter on empty list", func(t *testing.T) {
		m := NewPicker(nil)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if newModel.(Model).result.Action != ActionNone {
			t.Errorf("Action = %v, want ActionNone", newModel.(Model).result.Action)
		}
	})

	t.Run("window size update", func(t *testing.T) {
		m := NewPicker(testEntries())
		newModel, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
		model := newModel.(Model)

		if model.width != 100 || model.height != 50 {
			t.Errorf("size = %dx%d, want 100x50", model.width, model.height)
		}
		if cmd != nil {
			t.Error("Window size update should not return a command")
		}
	})
}

func TestModelView(t *testing.T) {
	t.Run("normal view contains help", func(t *testing.T) {
		view := NewPicker(testEntries()).View()
		for _, want := range []string{"[enter] Attach", "[d] Kill", "[q] Quit"} {
			if !strings.Contains(view, want) {
				t.Errorf("View should contain %q", want)
			}
		}
	})

	t.Run("quitting view is empty", func(t *testing.T) {
		m := NewPicker(testEntries())
		m.quitting = true
		if view := m.View(); view != "" {
			t.Errorf("Quitting view should be empty, got %q", view)
		}
	})
}

func TestRunPickerEmpty(t *testing.T) {
	result, err := RunPicker(nil)
	if err != nil {
		t.Fatalf("RunPicker with no sessions failed: %v", err)
	}
	if result.Action != ActionQuit {
		t.Errorf("no sessions should return ActionQuit, got %v", result.Action)
	}
}

func TestSimplePicker(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		output := SimplePicker(nil)
		if !strings.Contains(output, "No sessions running") || !strings.Contains(output, "aoe-ctl new") {
			t.Errorf("output = %q", output)
		}
	})

	t.Run("with sessions", func(t *testing.T) {
		output := SimplePicker(testEntries())
		for _, want := range []string{"1. ● api (running)", "2. ○ aoe_orphan_ffff0000 (idle)", "tmux: aoe_api_abcd1234"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})
}

func TestStatusStyle(t *testing.T) {
	for _, s := range []status.Status{status.Idle, status.Waiting, status.Running, status.Error, status.Status(99)} {
		if got := StatusStyle(s).Render("x"); !strings.Contains(got, "x") {
			t.Errorf("StatusStyle(%v) render = %q", s, got)
		}
	}
}
