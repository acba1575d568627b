package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"overworld/internal/storage"
	"overworld/pkg/grid"
	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

// ConsoleUI is the BubbleTea model that runs the map viewer.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	store        storage.Storage
	mapViewport  viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error

	// Area selection state
	showAreaModal bool
	areas         []tilemap.AreaID
	selectedArea  int
	loadingAreas  bool

	// Loaded map state
	area        *tilemap.AreaMap
	connections []navgraph.Connection
	status      string
}

var (
	mapPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

// One style per traversal marker.
var markerStyles = map[tilemap.TraversalStatus]lipgloss.Style{
	tilemap.Player:       lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true), // pink
	tilemap.Walkable:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")),             // green
	tilemap.Blocked:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),            // red
	tilemap.Transition:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // yellow
	tilemap.Interactable: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // teal
	tilemap.Ledge:        lipgloss.NewStyle().Foreground(lipgloss.Color("135")),            // purple
	tilemap.Unknown:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),            // dark grey
}

func NewConsoleUI(cfg *ConsoleConfig, store storage.Storage) ConsoleUI {
	mapVp := viewport.New(50, 20)
	mapVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:        cfg,
		store:         store,
		mapViewport:   mapVp,
		metaViewport:  metaVp,
		showAreaModal: true,
		loadingAreas:  true,
	}
}

func (m ConsoleUI) timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.config.Timeout)
}

func (m ConsoleUI) Init() tea.Cmd {
	return loadAreas(m.store, m.timeout)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showAreaModal {
		return m.updateAreaModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.mapViewport, vpCmd = m.mapViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true

	case areaLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.area = msg.area
		m.connections = msg.connections
		m.status = ""
		m.writeMapContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case areasLoadedMsg:
		// A reload finished while the main view is up.
		if msg.err == nil {
			m.areas = msg.areas
		}

	case yankedMsg:
		if msg.err != nil {
			m.status = "clipboard error: " + msg.err.Error()
		} else {
			m.status = "map copied to clipboard"
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a":
			m.showAreaModal = true
			m.loadingAreas = true
			return m, loadAreas(m.store, m.timeout)
		case "tab":
			if len(m.areas) > 1 {
				m.selectedArea = (m.selectedArea + 1) % len(m.areas)
				return m, loadArea(m.store, m.areas[m.selectedArea], m.timeout)
			}
		case "r":
			if m.area != nil {
				return m, loadArea(m.store, m.area.ID, m.timeout)
			}
		case "y":
			if m.area != nil {
				text := m.area.RenderTraversal()
				return m, func() tea.Msg {
					return yankedMsg{err: clipboard.WriteAll(text)}
				}
			}
		}
	}

	m.mapViewport, vpCmd = m.mapViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m ConsoleUI) updateAreaModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true

	case areasLoadedMsg:
		m.loadingAreas = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.areas = msg.areas
		if m.selectedArea >= len(m.areas) {
			m.selectedArea = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selectedArea > 0 {
				m.selectedArea--
			}
		case "down", "j":
			if m.selectedArea < len(m.areas)-1 {
				m.selectedArea++
			}
		case "enter":
			if len(m.areas) == 0 {
				return m, nil
			}
			m.showAreaModal = false
			return m, loadArea(m.store, m.areas[m.selectedArea], m.timeout)
		}
	}
	return m, nil
}

func (m *ConsoleUI) layout() {
	mapWidth := int(float64(m.width)*0.70) - 4
	metaWidth := m.width - mapWidth - 6

	m.mapViewport.Width = mapWidth - 2
	m.mapViewport.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4

	if m.area != nil {
		m.writeMapContent()
		m.metaViewport.SetContent(m.writeMetadata())
	}
}

// writeMapContent renders the traversal grid with one color per marker.
func (m *ConsoleUI) writeMapContent() {
	if m.area == nil {
		m.mapViewport.SetContent("No map loaded.")
		return
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(m.area.DisplayName()) + "\n\n")

	min, max, ok := m.area.Traversal.Bounds()
	if !ok {
		content.WriteString("Nothing explored yet.\n")
		m.mapViewport.SetContent(content.String())
		return
	}

	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			s := m.area.Traversal.Get(grid.Coord{X: x, Y: y})
			style, found := markerStyles[s]
			if !found {
				style = markerStyles[tilemap.Unknown]
			}
			content.WriteString(style.Render(string(s)))
			if x < max.X {
				content.WriteString(" ")
			}
		}
		content.WriteString("\n")
	}
	m.mapViewport.SetContent(content.String())
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("AREA") + "\n\n")

	sum := m.area.Summarize()
	content.WriteString("Name:\n" + sum.Name + "\n\n")
	content.WriteString("Bounds:\n" + sum.Bounds + "\n\n")
	content.WriteString(fmt.Sprintf("Explored:\n%d tiles\n\n", sum.Explored))
	content.WriteString(fmt.Sprintf("Visits:\n%d\n\n", sum.Visits))

	width := m.metaViewport.Width - 2
	if len(m.connections) > 0 {
		content.WriteString("Connections:\n")
		for _, c := range m.connections {
			line := fmt.Sprintf("• %s at (%d,%d) -> %s", c.Direction, c.FromCoord.X, c.FromCoord.Y, c.ToArea)
			content.WriteString(wordwrap.String(line, width) + "\n")
		}
	} else {
		content.WriteString("Connections:\nNone found\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Tab: Next area\n")
	content.WriteString("• a: Area list\n")
	content.WriteString("• r: Reload\n")
	content.WriteString("• y: Yank map\n")
	content.WriteString("• q: Quit\n")

	return content.String()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showAreaModal {
		return m.viewAreaModal()
	}

	mapPanel := mapPanelStyle.Render(m.mapViewport.View())
	metaPanel := metaPanelStyle.Render(m.metaViewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, metaPanel)

	footer := separatorStyle.Render(strings.Repeat("─", maxInt(0, m.width-2)))
	switch {
	case m.err != nil:
		footer += "\n" + errorStyle.Render("Error: "+m.err.Error())
	case m.status != "":
		footer += "\n" + statusStyle.Render(m.status)
	default:
		footer += "\n"
	}
	return body + "\n" + footer
}

func (m ConsoleUI) viewAreaModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("EXPLORED AREAS") + "\n\n")

	switch {
	case m.loadingAreas:
		content.WriteString("Loading areas...\n")
	case m.err != nil:
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case len(m.areas) == 0:
		content.WriteString("No areas recorded yet.\nRun the agent first.\n")
	default:
		for i, id := range m.areas {
			line := string(id)
			if i == m.selectedArea {
				content.WriteString(modalSelectedItemStyle.Render("> "+line) + "\n")
			} else {
				content.WriteString(modalItemStyle.Render("  "+line) + "\n")
			}
		}
	}
	content.WriteString("\n" + modalItemStyle.Render("Enter: open • q: quit"))

	modal := modalStyle.Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
