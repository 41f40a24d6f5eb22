// internal/tui/app.go
//
// This is the main TUI for shipdeck. It uses bubbletea, which follows The
// Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// The app opens on one shipment document. The menu is a pure function of
// the settings and document state, so every action ends by reloading the
// document and rebuilding the menu.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fruttersoft/shipdeck/internal/carrier"
	"github.com/fruttersoft/shipdeck/internal/config"
	"github.com/fruttersoft/shipdeck/internal/document"
	"github.com/fruttersoft/shipdeck/internal/logbook"
	"github.com/fruttersoft/shipdeck/internal/modes"
	"github.com/fruttersoft/shipdeck/internal/modes/parcel_allocation"
	"github.com/fruttersoft/shipdeck/internal/modes/service_select"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMenu     appState = iota // Main menu plus the shipment status board
	stateWorkflow                 // Running a creation workflow mode
)

// Menu entry titles. The handler dispatches on these, so they live in one
// place.
const (
	menuCreateShipment  = "Create Shipment"
	menuCreateRuleBased = "Create Rule Based Shipment"
	menuCancelShipment  = "Cancel Shipment"
	menuUpdateStatus    = "Update Status"
	menuTrackShipment   = "Track Shipment"
	menuOpenLabel       = "Open Label"
	menuReloadDocument  = "Reload Document"
	menuExit            = "Exit"
)

// displayTimeLayout is how tracking timestamps are written to the document.
const displayTimeLayout = "2006-01-02 15:04:05"

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithStore overrides the document store used by the app.
func WithStore(store document.Store) AppOption {
	return func(a *App) {
		if store != nil {
			a.store = store
		}
	}
}

// WithBackend overrides the carrier backend used by the app.
func WithBackend(backend carrier.Backend) AppOption {
	return func(a *App) {
		if backend != nil {
			a.backend = backend
		}
	}
}

// actionDoneMsg reports a finished menu action (cancel, status refresh).
type actionDoneMsg struct {
	action string
	err    error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	logbook *logbook.Logbook
	store   document.Store
	backend carrier.Backend

	shipmentName string
	shipment     *document.Shipment
	settings     document.Settings

	// Workflow run state. serviceMode is kept alongside activeMode so the
	// selected offering can be read when the catalog phase completes.
	invocation  *workflow.Invocation
	activeMode  modes.Mode
	serviceMode *service_select.Mode

	// UI components
	mainMenu  list.Model
	statusMsg string
	busy      bool

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance bound to one shipment document.
func NewApp(projectDir, shipmentName string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	lb, lbErr := logbook.New(cfg.LogPath())
	if lbErr != nil {
		lb = nil
	}

	app := &App{
		state:        stateMenu,
		config:       cfg,
		logbook:      lb,
		shipmentName: shipmentName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	if app.store == nil {
		store, err := document.NewFileStore(cfg.DocumentsPath())
		if err != nil {
			return nil, err
		}
		app.store = store
	}
	if err := app.loadDocuments(); err != nil {
		return nil, err
	}
	if app.backend == nil {
		app.backend = carrier.NewHTTPBackend(cfg.BackendBaseURL(), app.settings.APIToken, cfg.BackendTimeout())
	}

	mainMenu := list.New(buildMainMenu(app.settings, app.shipment), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = fmt.Sprintf("⬡ SHIPMENT %s", shipmentName)
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	app.mainMenu = mainMenu

	app.logInfo("Session opened · shipment %s · status %s", shipmentName, displayStatus(app.shipment))
	return app, nil
}

// loadDocuments pulls the settings and shipment snapshots from the store.
func (a *App) loadDocuments() error {
	settings, err := a.store.Settings()
	if err != nil {
		return err
	}
	doc, err := a.store.Shipment(a.shipmentName)
	if err != nil {
		return err
	}
	a.settings = settings
	a.shipment = doc
	return nil
}

// buildMainMenu derives the menu from the settings and document state: the
// creation entry appears only for submitted, unbooked shipments, and the
// booking actions only once an AWB exists.
func buildMainMenu(settings document.Settings, doc *document.Shipment) []list.Item {
	items := []list.Item{}

	if settings.Enabled && doc.DocStatus == document.DocStatusSubmitted && !doc.Booked() {
		if settings.EnableAllocation {
			items = append(items, menuItem{
				title: menuCreateRuleBased,
				desc:  "Let the routing rules pick a carrier",
			})
		} else {
			items = append(items, menuItem{
				title: menuCreateShipment,
				desc:  "Pick a carrier service and allocate items",
			})
		}
	}

	if settings.Enabled && doc.Booked() && doc.Status != document.StatusCancelled {
		items = append(items,
			menuItem{title: menuCancelShipment, desc: "Void the carrier booking"},
			menuItem{title: menuUpdateStatus, desc: "Refresh tracking from the carrier"},
			menuItem{title: menuTrackShipment, desc: "Show the public tracking URL"},
			menuItem{title: menuOpenLabel, desc: "Show the shipping label URL"},
		)
	}

	items = append(items,
		menuItem{title: menuReloadDocument, desc: "Re-read the shipment document"},
		menuItem{title: menuExit, desc: "Quit shipdeck"},
	)
	return items
}

// modeContext assembles the collaborators a mode needs. During a workflow
// the logbook is scoped to the invocation so the run's entries are tagged.
func (a *App) modeContext() *modes.ModeContext {
	lb := a.logbook
	if a.invocation != nil {
		lb = lb.Scoped(a.invocation.ShortID())
	}
	return &modes.ModeContext{
		Config:     a.config,
		Logbook:    lb,
		Store:      a.store,
		Backend:    a.backend,
		Invocation: a.invocation,
		Shipment:   a.shipment,
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		if a.state == stateWorkflow && a.activeMode != nil {
			var cmd tea.Cmd
			a.activeMode, cmd = a.activeMode.Update(msg)
			return a, cmd
		}
		return a, nil

	case actionDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			a.logError("%s failed: %v", msg.action, msg.err)
			return a, nil
		}
		a.statusMsg = fmt.Sprintf("%s complete", msg.action)
		a.logInfo("%s complete", msg.action)
		a.refreshFromStore()
		return a, nil

	case modes.ModeCompleteMsg:
		return a.advanceWorkflow(msg)

	case modes.ModeErrorMsg:
		return a.failWorkflow(msg.Error)

	case tea.KeyMsg:
		if a.busy {
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
			return a, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMenu {
				return a, tea.Quit
			}
		case "enter":
			if a.state == stateMenu {
				return a.handleMenuSelection()
			}
		}
	}

	var cmds []tea.Cmd
	switch a.state {
	case stateMenu:
		var menuCmd tea.Cmd
		a.mainMenu, menuCmd = a.mainMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	case stateWorkflow:
		if a.activeMode != nil {
			var cmd tea.Cmd
			a.activeMode, cmd = a.activeMode.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	return a, tea.Batch(cmds...)
}

// handleMenuSelection processes menu item selection
func (a *App) handleMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch item.title {
	case menuCreateShipment:
		a.logInfo("Menu · Create Shipment selected")
		return a.startWorkflow(workflow.PathService)

	case menuCreateRuleBased:
		a.logInfo("Menu · Create Rule Based Shipment selected")
		return a.startWorkflow(workflow.PathRuleBased)

	case menuCancelShipment:
		a.logInfo("Menu · Cancel Shipment selected")
		return a.runCancel()

	case menuUpdateStatus:
		a.logInfo("Menu · Update Status selected")
		return a.runStatusRefresh()

	case menuTrackShipment:
		url := a.config.TrackingURL(a.shipment.AWBNumber, a.shipment.ServiceProvider)
		a.statusMsg = fmt.Sprintf("Track at %s", url)
		a.logInfo("Tracking URL surfaced: %s", url)
		return a, nil

	case menuOpenLabel:
		if a.shipment.TrackingURL == "" {
			a.statusMsg = "No label URL on the document"
			return a, nil
		}
		a.statusMsg = fmt.Sprintf("Label at %s", a.shipment.TrackingURL)
		return a, nil

	case menuReloadDocument:
		a.refreshFromStore()
		a.statusMsg = "Document reloaded"
		return a, nil

	case menuExit:
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}

	return a, nil
}

// startWorkflow opens a creation invocation and enters its first mode.
func (a *App) startWorkflow(path workflow.Path) (tea.Model, tea.Cmd) {
	inv, err := workflow.NewInvocation(a.shipmentName, len(a.shipment.Parcels), path)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Cannot start workflow: %v", err)
		return a, nil
	}
	a.invocation = inv
	a.state = stateWorkflow
	a.logInfo("Invocation %s started · path %s · %d parcel(s)", inv.ID, inv.Path, inv.ParcelCount)

	if path == workflow.PathService {
		a.serviceMode = service_select.New()
		a.activeMode = a.serviceMode
	} else {
		a.serviceMode = nil
		a.activeMode = parcel_allocation.New(nil)
	}
	return a, a.activeMode.Init(a.modeContext())
}

// advanceWorkflow routes a completed mode into the next phase.
func (a *App) advanceWorkflow(msg modes.ModeCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		return a.failWorkflow(msg.Error)
	}
	switch msg.NextPhase {
	case workflow.PhaseAllocation:
		var offering *carrier.ServiceOffering
		if a.serviceMode != nil {
			offering = a.serviceMode.Selected()
		}
		if offering == nil {
			return a.failWorkflow(workflow.InvalidSelection("no service offering selected"))
		}
		a.activeMode = parcel_allocation.New(offering)
		return a, a.activeMode.Init(a.modeContext())

	case workflow.PhaseComplete:
		a.endWorkflow()
		a.refreshFromStore()
		a.statusMsg = fmt.Sprintf("Shipment created · AWB %s", a.shipment.AWBNumber)
		a.logInfo("Invocation finished · AWB %s", a.shipment.AWBNumber)
		return a, nil
	}
	return a, nil
}

// failWorkflow tears the invocation down. A wrapped ErrCancelled is the user
// backing out; anything else is surfaced as a notification.
func (a *App) failWorkflow(err error) (tea.Model, tea.Cmd) {
	a.endWorkflow()
	if err == nil || errors.Is(err, workflow.ErrCancelled) {
		a.statusMsg = "Cancelled"
		a.logInfo("Invocation cancelled by user")
	} else {
		a.statusMsg = fmt.Sprintf("Workflow failed: %v", err)
		a.logError("Invocation failed: %v", err)
	}
	return a, nil
}

func (a *App) endWorkflow() {
	a.state = stateMenu
	a.invocation = nil
	a.activeMode = nil
	a.serviceMode = nil
}

// refreshFromStore re-reads the settings and document and rebuilds the menu.
func (a *App) refreshFromStore() {
	if err := a.loadDocuments(); err != nil {
		a.statusMsg = fmt.Sprintf("Document reload failed: %v", err)
		a.logError("Document reload failed: %v", err)
		return
	}
	a.mainMenu.SetItems(buildMainMenu(a.settings, a.shipment))
}

// runCancel voids the booking, then clears the booking fields.
func (a *App) runCancel() (tea.Model, tea.Cmd) {
	a.busy = true
	a.statusMsg = "Cancelling Shipment... Please wait..."
	shipmentID := a.shipment.ShipmentID
	name := a.shipment.Name
	return a, func() tea.Msg {
		if err := a.backend.Cancel(context.Background(), shipmentID); err != nil {
			return actionDoneMsg{action: "Cancel Shipment", err: err}
		}
		if err := a.store.ApplyCancellation(name); err != nil {
			return actionDoneMsg{action: "Cancel Shipment", err: err}
		}
		return actionDoneMsg{action: "Cancel Shipment"}
	}
}

// runStatusRefresh pulls tracking and writes the latest checkpoint back.
func (a *App) runStatusRefresh() (tea.Model, tea.Cmd) {
	a.busy = true
	a.statusMsg = "Updating Status... Please wait..."
	awb := a.shipment.AWBNumber
	name := a.shipment.Name
	return a, func() tea.Msg {
		result, err := a.backend.Track(context.Background(), awb)
		if err != nil {
			return actionDoneMsg{action: "Update Status", err: err}
		}
		update := trackingUpdate(result)
		if err := a.store.ApplyTracking(name, update); err != nil {
			return actionDoneMsg{action: "Update Status", err: err}
		}
		return actionDoneMsg{action: "Update Status"}
	}
}

// trackingUpdate maps a tracking result onto document fields. Timestamps are
// rewritten from the carrier's RFC-1123 style into the document layout.
func trackingUpdate(result carrier.TrackingResult) document.TrackingUpdate {
	update := document.TrackingUpdate{
		Tag:                  result.Tag,
		DeliveryDate:         reformatCheckpointDate(result.DeliveryDate),
		ExpectedDeliveryDate: reformatCheckpointDate(result.ExpectedDeliveryDate),
		LastUpdateReceived:   time.Now().Format(displayTimeLayout),
	}
	if latest, ok := result.Latest(); ok {
		update.LatestLocation = latest.City
		update.Remark = latest.Remark
		if update.Tag == "" {
			update.Tag = latest.Tag
		}
	}
	return update
}

func reformatCheckpointDate(value string) string {
	if value == "" {
		return ""
	}
	t := (carrier.Checkpoint{Date: value}).Time()
	if t.IsZero() {
		return value
	}
	return t.Format(displayTimeLayout)
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}
	if a.state == stateMenu {
		a.mainMenu.SetSize(max(20, leftWidth-4), max(10, a.height-12))
	}

	var content string
	switch a.state {
	case stateMenu:
		content = a.mainMenu.View()
	case stateWorkflow:
		if a.activeMode != nil {
			content = a.activeMode.View()
		} else {
			content = "Loading workflow..."
		}
	}
	return a.renderBoard(content, leftWidth, rightWidth)
}

func (a *App) renderBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ SHIPDECK")
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(lipgloss.NewStyle().Width(max(20, leftWidth-4)).Render(mainContent))
	var body string
	if rightWidth > 0 {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderShipmentPanel(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

// renderShipmentPanel shows the shipment's booking state at a glance.
func (a *App) renderShipmentPanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Shipment %s", a.shipment.Name))
	lines := []string{
		fmt.Sprintf("Status: %s", displayStatus(a.shipment)),
		fmt.Sprintf("Parcels: %d · %.2f kg", len(a.shipment.Parcels), a.shipment.ChargedWeight()),
	}
	if a.shipment.Booked() {
		lines = append(lines, fmt.Sprintf("AWB: %s", a.shipment.AWBNumber))
		if a.shipment.ServiceProvider != "" {
			lines = append(lines, fmt.Sprintf("Provider: %s · %s", a.shipment.ServiceProvider, a.shipment.CarrierService))
		}
		if a.shipment.TrackingStatus != "" {
			lines = append(lines, fmt.Sprintf("Tracking: %s", a.shipment.TrackingStatus))
		}
		if a.shipment.LatestLocation != "" {
			lines = append(lines, fmt.Sprintf("Last seen: %s", a.shipment.LatestLocation))
		}
		if a.shipment.ExpectedDeliveryDate != "" {
			lines = append(lines, fmt.Sprintf("ETA: %s", a.shipment.ExpectedDeliveryDate))
		}
		if a.shipment.DeliveryDate != "" {
			lines = append(lines, fmt.Sprintf("Delivered: %s", a.shipment.DeliveryDate))
		}
	}
	if !a.settings.Enabled {
		lines = append(lines, "⚠ Integration disabled in settings")
	}
	body := lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · journey.log · last %d of %d", len(lines), total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func displayStatus(doc *document.Shipment) string {
	if doc.Status != "" {
		return doc.Status
	}
	switch doc.DocStatus {
	case document.DocStatusSubmitted:
		return "Submitted"
	case document.DocStatusCancelled:
		return "Cancelled"
	default:
		return "Draft"
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
