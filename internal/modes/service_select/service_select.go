// internal/modes/service_select/service_select.go
//
// Service selection mode: fetches the carrier service catalog for the
// shipment and lets the user pick exactly one (service, offering) row.
// An empty catalog is a dead end, never a silent fall-through to the
// rule-based path.

package service_select

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fruttersoft/shipdeck/internal/carrier"
	"github.com/fruttersoft/shipdeck/internal/modes"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

// Mode handles the service selection phase
type Mode struct {
	modes.BaseMode
	offeringList list.Model
	rows         []carrier.ServiceOffering
	selected     *carrier.ServiceOffering
	loaded       bool
	width        int
	height       int
	errorMsg     string
}

// offeringItem wraps a ServiceOffering for the list display
type offeringItem struct {
	offering carrier.ServiceOffering
}

func (i offeringItem) Title() string {
	return fmt.Sprintf("%s · %s", i.offering.ServiceType, i.offering.Description)
}

func (i offeringItem) Description() string {
	return fmt.Sprintf("%s · vendor %s", i.offering.Slug, i.offering.VendorID)
}

func (i offeringItem) FilterValue() string {
	return i.offering.ServiceType + " " + i.offering.Description
}

// New creates a new service selection mode
func New() *Mode {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)
	offeringList := list.New([]list.Item{}, delegate, 0, 0)
	offeringList.Title = "Available Services"
	offeringList.SetShowStatusBar(false)
	offeringList.SetFilteringEnabled(true)

	return &Mode{
		BaseMode:     modes.NewBaseMode("Service Selection", workflow.PhaseServiceSelection),
		offeringList: offeringList,
	}
}

// Selected returns the chosen offering once the mode completes.
func (m *Mode) Selected() *carrier.ServiceOffering {
	return m.selected
}

// Init initializes the service selection mode
func (m *Mode) Init(ctx *modes.ModeContext) tea.Cmd {
	m.SetContext(ctx)
	if ctx != nil && ctx.Logbook != nil {
		ctx.Logbook.Info("Fetching available services for %s", ctx.Shipment.Name)
	}
	m.SetStatusMsg("Getting available services... Please wait...")
	return m.loadServices()
}

// Update handles messages for the service selection mode
func (m *Mode) Update(msg tea.Msg) (modes.Mode, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := msg.Width - 4
		if listWidth < 20 {
			listWidth = msg.Width
		}
		listHeight := msg.Height - 8
		if listHeight < 5 {
			listHeight = msg.Height - 2
		}
		m.offeringList.SetSize(listWidth, listHeight)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg {
				return modes.ModeErrorMsg{Error: workflow.ErrCancelled}
			}
		case "enter":
			return m.selectOffering()
		}

	case servicesLoadedMsg:
		m.errorMsg = ""
		m.loaded = true
		m.rows = msg.rows
		items := make([]list.Item, len(msg.rows))
		for i, row := range msg.rows {
			items[i] = offeringItem{offering: row}
		}
		m.offeringList.SetItems(items)
		if len(msg.rows) == 0 {
			m.SetStatusMsg("No services available for this shipment")
		} else {
			m.SetStatusMsg(fmt.Sprintf("Found %d service offering(s)", len(msg.rows)))
		}
		m.logInfo("Loaded %d service offering(s)", len(msg.rows))
		return m, nil
	}

	// Pass to list
	var cmd tea.Cmd
	m.offeringList, cmd = m.offeringList.Update(msg)
	return m, cmd
}

// View renders the service selection mode
func (m *Mode) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#6BCB77")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1)

	header := titleStyle.Render("⬡ SELECT SERVICE TYPE")
	content := m.renderContent()
	if m.errorMsg != "" {
		errBlock := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1).
			Render(fmt.Sprintf("⚠ %s", m.errorMsg))
		content = fmt.Sprintf("%s\n\n%s", content, errBlock)
	}
	footer := statusStyle.Render(m.StatusMsg())

	return fmt.Sprintf("%s\n%s\n%s", header, content, footer)
}

func (m *Mode) renderContent() string {
	if m.loaded && len(m.rows) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(1, 2).
			Render("No Services Available")
		hint := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Render("Esc → back")
		return lipgloss.JoinVertical(lipgloss.Left, empty, hint)
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → select service    Esc → cancel")
	return lipgloss.JoinVertical(lipgloss.Left, m.offeringList.View(), hint)
}

// Message types
type servicesLoadedMsg struct {
	rows []carrier.ServiceOffering
}

// loadServices fetches the catalog and flattens it into selectable rows
func (m *Mode) loadServices() tea.Cmd {
	return func() tea.Msg {
		ctx := m.Context()
		services, err := ctx.Backend.FetchServices(context.Background(), ctx.Shipment)
		if err != nil {
			return modes.ModeErrorMsg{Error: err}
		}
		return servicesLoadedMsg{rows: carrier.Flatten(services)}
	}
}

// selectOffering records the highlighted row and completes the mode
func (m *Mode) selectOffering() (modes.Mode, tea.Cmd) {
	item, ok := m.offeringList.SelectedItem().(offeringItem)
	if !ok {
		return m, nil
	}
	offering := item.offering
	m.selected = &offering
	m.SetComplete(true)
	m.SetStatusMsg(fmt.Sprintf("Selected %s (%s)", offering.ServiceType, offering.Slug))
	m.logInfo("Selected offering %s/%s", offering.Slug, offering.ServiceType)
	return m, func() tea.Msg {
		return modes.ModeCompleteMsg{NextPhase: workflow.PhaseAllocation}
	}
}

func (m *Mode) logInfo(format string, args ...any) {
	ctx := m.Context()
	if ctx == nil || ctx.Logbook == nil {
		return
	}
	ctx.Logbook.Info(format, args...)
}
