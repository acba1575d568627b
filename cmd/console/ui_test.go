package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"overworld/internal/storage"
	"overworld/pkg/tilemap"
)

func testUI() ConsoleUI {
	cfg := &ConsoleConfig{Timeout: time.Second}
	return NewConsoleUI(cfg, storage.NewMockStorage())
}

func TestAreaModal_Navigation(t *testing.T) {
	m := testUI()

	model, _ := m.Update(areasLoadedMsg{areas: []tilemap.AreaID{"map_1_0", "map_3_0"}})
	ui := model.(ConsoleUI)
	if ui.loadingAreas {
		t.Fatal("still loading after areas arrived")
	}

	model, _ = ui.Update(tea.KeyMsg{Type: tea.KeyDown})
	ui = model.(ConsoleUI)
	if ui.selectedArea != 1 {
		t.Errorf("selected = %d, want 1", ui.selectedArea)
	}

	// Down at the bottom stays put.
	model, _ = ui.Update(tea.KeyMsg{Type: tea.KeyDown})
	ui = model.(ConsoleUI)
	if ui.selectedArea != 1 {
		t.Errorf("selected = %d after extra down, want 1", ui.selectedArea)
	}

	model, cmd := ui.Update(tea.KeyMsg{Type: tea.KeyEnter})
	ui = model.(ConsoleUI)
	if ui.showAreaModal {
		t.Error("modal still open after enter")
	}
	if cmd == nil {
		t.Error("no load command issued on enter")
	}
}

func TestAreaModal_EnterWithNoAreas(t *testing.T) {
	m := testUI()

	model, _ := m.Update(areasLoadedMsg{})
	ui := model.(ConsoleUI)

	model, cmd := ui.Update(tea.KeyMsg{Type: tea.KeyEnter})
	ui = model.(ConsoleUI)
	if !ui.showAreaModal {
		t.Error("modal closed with nothing to open")
	}
	if cmd != nil {
		t.Error("load command issued with no areas")
	}
}
